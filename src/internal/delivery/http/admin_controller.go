package http

import (
	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminController struct {
	Log            log.Log
	CashoutUseCase *usecase.CashoutUseCase
	WalletUseCase  *usecase.WalletUseCase
}

func NewAdminController(cashoutUseCase *usecase.CashoutUseCase, walletUseCase *usecase.WalletUseCase, logger log.Log) *AdminController {
	return &AdminController{
		Log:            logger,
		CashoutUseCase: cashoutUseCase,
		WalletUseCase:  walletUseCase,
	}
}

func (c *AdminController) ListPendingCashouts(ctx *fiber.Ctx) error {
	result := c.CashoutUseCase.ListPending(ctx.Context())
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Pending Cashouts", fiber.StatusOK, ctx)
}

func (c *AdminController) ApproveCashout(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.ApproveCashoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("AdminController.ApproveCashout", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.AdminID = auth.UserID
	request.CashoutID = ctx.Params("id")

	result := c.CashoutUseCase.Approve(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Approved", fiber.StatusOK, ctx)
}

func (c *AdminController) RejectCashout(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.RejectCashoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("AdminController.RejectCashout", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.AdminID = auth.UserID
	request.CashoutID = ctx.Params("id")

	result := c.CashoutUseCase.Reject(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Rejected", fiber.StatusOK, ctx)
}

func (c *AdminController) CompleteCashout(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CompleteCashoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("AdminController.CompleteCashout", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.AdminID = auth.UserID
	request.CashoutID = ctx.Params("id")

	result := c.CashoutUseCase.Complete(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Completed", fiber.StatusOK, ctx)
}

func (c *AdminController) FailCashout(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.FailCashoutRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("AdminController.FailCashout", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.AdminID = auth.UserID
	request.CashoutID = ctx.Params("id")

	result := c.CashoutUseCase.Fail(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Cashout Failed", fiber.StatusOK, ctx)
}

func (c *AdminController) RecomputeWallet(ctx *fiber.Ctx) error {
	result := c.WalletUseCase.Recompute(ctx.Context(), ctx.Params("userId"))
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Wallet Recomputed", fiber.StatusOK, ctx)
}

type adjustmentRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (c *AdminController) RecordAdjustment(ctx *fiber.Ctx) error {
	request := new(adjustmentRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("AdminController.RecordAdjustment", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := c.WalletUseCase.RecordAdjustment(ctx.Context(), ctx.Params("userId"),
		entity.TransactionType(request.Type), request.Amount, request.Description)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Adjustment Recorded", fiber.StatusCreated, ctx)
}
