package handlers

import (
	"context"

	"kanban-board/internal/middleware"
	realtime "kanban-board/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RequireUpgrade rejects plain HTTP requests to the socket endpoint.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Socket attaches each authenticated connection to the hub until it closes.
func Socket(hub *realtime.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals(middleware.LocalUserID).(string)
		hub.Serve(context.Background(), realtime.NewClient(userID, c))
	})
}

// Health reports that the server is up.
func Health(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "OK", fiber.Map{"status": "up"})
}
