package handlers

import (
	"time"

	"kanban-board/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createBoardRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description"`
	Template    string  `json:"template" validate:"required,oneof=kanban tasks blank"`
	TeamID      *string `json:"teamId" validate:"omitempty,uuid"`
}

type updateBoardRequest struct {
	Name        models.Field[string] `json:"name"`
	Description models.Field[string] `json:"description"`
	Status      models.Field[string] `json:"status"`
	DueDate     models.Field[string] `json:"dueDate"`
}

// parseDate reads an optional date field. An empty string clears the date like null does.
func parseDate(field string, in models.Field[string]) (models.Field[time.Time], error) {
	if !in.Set {
		return models.Field[time.Time]{}, nil
	}
	if !in.Valid || in.Value == "" {
		return models.Null[time.Time](), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, in.Value); err == nil {
			return models.Value(t.UTC()), nil
		}
	}
	return models.Field[time.Time]{}, models.Validation(models.FieldError{Field: field, Message: "Invalid date format"})
}

// CreateBoard creates a board from a template.
func (h *Handler) CreateBoard(c *fiber.Ctx) error {
	var req createBoardRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	board, err := h.svc.CreateBoard(c.UserContext(), userID(c), models.CreateBoardInput{
		Name:        req.Name,
		Description: req.Description,
		Template:    req.Template,
		TeamID:      req.TeamID,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Board created successfully", board)
}

// ListBoards returns the boards the user can access.
func (h *Handler) ListBoards(c *fiber.Ctx) error {
	boards, err := h.svc.ListBoards(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Boards retrieved successfully", boards)
}

// GetBoard returns the board with its lists and tasks.
func (h *Handler) GetBoard(c *fiber.Ctx) error {
	board, err := h.svc.GetBoard(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Board retrieved successfully", board)
}

// UpdateBoard applies the fields present in the body.
func (h *Handler) UpdateBoard(c *fiber.Ctx) error {
	var req updateBoardRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	due, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		return h.writeError(c, err)
	}
	board, err := h.svc.UpdateBoard(c.UserContext(), userID(c), c.Params("id"), models.BoardPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     due,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Board updated successfully", board)
}

// BoardMembers lists the owner and members of a board.
func (h *Handler) BoardMembers(c *fiber.Ctx) error {
	members, err := h.svc.BoardMembers(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Board members retrieved successfully", members)
}
