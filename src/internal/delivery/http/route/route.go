package route

import (
	"wallet-service/src/internal/delivery/http"
	"wallet-service/src/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App               *fiber.App
	WalletController  *http.WalletController
	CashoutController *http.CashoutController
	PaymentController *http.PaymentController
	AdminController   *http.AdminController
	AuthMiddleware    fiber.Handler
	AdminMiddleware   fiber.Handler
}

func (c *RouteConfig) Setup() {
	c.App.Use(middleware.NewLogger())
	c.App.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	// gateway callbacks carry no bearer token, only the payload hash
	c.App.Post("/payments/v1/webhook", c.PaymentController.Webhook)

	c.SetupAuthRoute()
}

func (c *RouteConfig) SetupAuthRoute() {
	c.App.Use(c.AuthMiddleware)

	c.App.Get("/wallet/v1/balance", c.WalletController.GetBalance)
	c.App.Get("/wallet/v1/statistics", c.WalletController.GetStatistics)
	c.App.Get("/wallet/v1/transactions", c.WalletController.ListTransactions)
	c.App.Get("/wallet/v1/pending-clearance", c.WalletController.ListPendingClearance)

	c.App.Post("/wallet/v1/cashout", c.CashoutController.Request)
	c.App.Get("/wallet/v1/cashout", c.CashoutController.ListMine)
	c.App.Delete("/wallet/v1/cashout/:id", c.CashoutController.Cancel)

	c.App.Post("/payments/v1/initiate", c.PaymentController.Initiate)
	c.App.Get("/payments/v1/:id/status", c.PaymentController.CheckStatus)

	// service-to-service intake; creator and brand tokens must not reach it
	c.App.Post("/internal/v1/collaborations/completed", c.AdminMiddleware, c.WalletController.CollaborationCompleted)

	admin := c.App.Group("/admin/v1", c.AdminMiddleware)
	admin.Get("/cashouts/pending", c.AdminController.ListPendingCashouts)
	admin.Put("/cashouts/:id/approve", c.AdminController.ApproveCashout)
	admin.Put("/cashouts/:id/reject", c.AdminController.RejectCashout)
	admin.Put("/cashouts/:id/complete", c.AdminController.CompleteCashout)
	admin.Put("/cashouts/:id/fail", c.AdminController.FailCashout)
	admin.Post("/wallets/:userId/recompute", c.AdminController.RecomputeWallet)
	admin.Post("/wallets/:userId/adjustments", c.AdminController.RecordAdjustment)
}
