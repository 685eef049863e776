package http

import (
	"net/url"

	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PaymentController struct {
	Log     log.Log
	UseCase *usecase.PaymentUseCase
}

func NewPaymentController(useCase *usecase.PaymentUseCase, logger log.Log) *PaymentController {
	return &PaymentController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *PaymentController) Initiate(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.InitiatePaymentRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("PaymentController.Initiate", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID

	result := c.UseCase.Initiate(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Payment Initiated", fiber.StatusCreated, ctx)
}

func (c *PaymentController) CheckStatus(ctx *fiber.Ctx) error {
	result := c.UseCase.CheckStatus(ctx.Context(), ctx.Params("id"))
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Payment Status", fiber.StatusOK, ctx)
}

// Webhook receives the gateway's form-encoded result notification. It is
// unauthenticated; the payload hash is the only credential.
func (c *PaymentController) Webhook(ctx *fiber.Ctx) error {
	values, err := url.ParseQuery(string(ctx.Body()))
	if err != nil {
		c.Log.Error("PaymentController.Webhook", "Failed to parse webhook body", "error", err.Error())
		return ctx.Status(fiber.StatusBadRequest).SendString("malformed payload")
	}

	result := c.UseCase.HandleWebhook(ctx.Context(), values)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	// the gateway only needs a 200 acknowledgement
	return ctx.SendStatus(fiber.StatusOK)
}
