package http

import (
	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type CashoutController struct {
	Log     log.Log
	UseCase *usecase.CashoutUseCase
}

func NewCashoutController(useCase *usecase.CashoutUseCase, logger log.Log) *CashoutController {
	return &CashoutController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *CashoutController) Request(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CreateCashoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("CashoutController.Request", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID

	result := c.UseCase.Request(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Requested", fiber.StatusCreated, ctx)
}

func (c *CashoutController) Cancel(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CancelCashoutRequest)
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(request); err != nil {
			c.Log.Error("CashoutController.Cancel", "Failed to parse request body", "error", err.Error())
			return utils.ResponseError(err, ctx)
		}
	}
	request.UserID = auth.UserID
	request.CashoutID = ctx.Params("id")

	result := c.UseCase.Cancel(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Cancelled", fiber.StatusOK, ctx)
}

func (c *CashoutController) ListMine(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	result := c.UseCase.ListMine(ctx.Context(), auth.UserID, ctx.QueryInt("limit", 50), ctx.QueryInt("offset", 0))
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Requests", fiber.StatusOK, ctx)
}
