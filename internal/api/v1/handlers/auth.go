package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup registers a user and returns a token.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	result, err := h.svc.Signup(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "User registered successfully", result)
}

// Login checks credentials and returns a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	result, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Login successful", result)
}

// Me returns the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.svc.Me(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "User retrieved successfully", user)
}
