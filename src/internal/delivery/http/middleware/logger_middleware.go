package middleware

import (
	"fmt"
	"time"

	"wallet-service/src/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// NewLogger emits one structured access log line per request.
func NewLogger() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		elapsed := time.Since(start)

		logger := log.GetLogger()
		meta := fmt.Sprintf("status=%d duration=%s", ctx.Response().StatusCode(), elapsed)
		logger.Info("http", fmt.Sprintf("%s %s", ctx.Method(), ctx.Path()), "access", meta)

		if elapsed > time.Second {
			logger.Warn("http", fmt.Sprintf("slow request %s %s", ctx.Method(), ctx.Path()), "access", meta)
		}

		return err
	}
}
