package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"kanban-board/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler turns a panic in any later handler into a 500 response.
func ErrorHandler(log *logger.Loggers) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error.Error(fmt.Sprintf("Recovered from panic: %v", r),
					zap.String("path", c.Path()),
					zap.String("stack", string(debug.Stack())),
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Internal server error",
					"success": false,
					"status":  fiber.StatusInternalServerError,
				})
			}
		}()
		return c.Next()
	}
}

// RequestLogger writes one entry per request once the response status is known.
// Only the path is logged; the socket handshake carries its token in the query.
func RequestLogger(log *logger.Loggers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		requestID, _ := c.Locals("requestid").(string)
		log.Request.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestID),
		)
		return err
	}
}
