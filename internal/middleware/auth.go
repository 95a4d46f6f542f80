package middleware

import (
	"strings"

	"kanban-board/internal/service"
	"kanban-board/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LocalUserID is the fiber.Ctx locals key holding the authenticated user id.
const LocalUserID = "userID"

// TokenParser turns a bearer token into its claims.
type TokenParser interface {
	Parse(raw string) (service.Claims, error)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}

func authenticate(c *fiber.Ctx, tokens TokenParser, log *logger.Loggers, raw string) error {
	claims, err := tokens.Parse(raw)
	if err != nil {
		log.Security.Warn("rejected token",
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Error(err),
		)
		return unauthorized(c, err.Error())
	}
	c.Locals(LocalUserID, claims.UserID)
	return c.Next()
}

// UseToken requires an "Authorization: Bearer <jwt>" header.
func UseToken(tokens TokenParser, log *logger.Loggers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "No token provided")
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c, "Invalid token format")
		}
		return authenticate(c, tokens, log, parts[1])
	}
}

// UseSocketToken authenticates a websocket upgrade from the token query parameter,
// since browsers cannot set headers on the handshake.
func UseSocketToken(tokens TokenParser, log *logger.Loggers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("token")
		if raw == "" {
			return unauthorized(c, "No token provided")
		}
		return authenticate(c, tokens, log, raw)
	}
}

// UserID returns the id stored by UseToken.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
