package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateInvite invites an email address to a board.
func (h *Handler) CreateInvite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	invite, err := h.svc.CreateInvite(c.UserContext(), userID(c), c.Params("boardId"), req.Email)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Invite created successfully", invite)
}

// AcceptInvite adds the current user to the invite's board.
func (h *Handler) AcceptInvite(c *fiber.Ctx) error {
	result, err := h.svc.AcceptInvite(c.UserContext(), userID(c), c.Params("token"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Invite accepted successfully", result)
}
