package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type listRequest struct {
	Name string `json:"name" validate:"required"`
}

type moveListRequest struct {
	NewOrder *int `json:"newOrder" validate:"required,gte=0"`
}

// CreateList appends a list to the board.
func (h *Handler) CreateList(c *fiber.Ctx) error {
	var req listRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	list, err := h.svc.CreateList(c.UserContext(), userID(c), c.Params("boardId"), req.Name)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "List created successfully", list)
}

// UpdateList renames a list.
func (h *Handler) UpdateList(c *fiber.Ctx) error {
	var req listRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	list, err := h.svc.UpdateList(c.UserContext(), userID(c), c.Params("listId"), req.Name)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "List updated successfully", list)
}

// MoveList moves a list to a new position on its board.
func (h *Handler) MoveList(c *fiber.Ctx) error {
	var req moveListRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	list, err := h.svc.MoveList(c.UserContext(), userID(c), c.Params("listId"), *req.NewOrder)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "List moved successfully", list)
}
