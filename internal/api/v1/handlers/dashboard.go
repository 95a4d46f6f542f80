package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// DashboardStats returns the headline counters.
func (h *Handler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.svc.DashboardStats(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// ActiveBoards returns the most recently updated boards.
func (h *Handler) ActiveBoards(c *fiber.Ctx) error {
	boards, err := h.svc.ActiveBoards(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Active boards retrieved successfully", boards)
}

// RecentActivity returns the latest activity on the user's boards.
func (h *Handler) RecentActivity(c *fiber.Ctx) error {
	entries, err := h.svc.RecentActivity(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Recent activity retrieved successfully", entries)
}
