package handlers

import (
	"kanban-board/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
}

type moveTaskRequest struct {
	ColumnID string `json:"columnId" validate:"required,uuid"`
	Order    *int   `json:"order" validate:"required,gte=0"`
}

// updateTaskRequest keeps absent, null and present fields apart.
type updateTaskRequest struct {
	Title       models.Field[string] `json:"title"`
	Description models.Field[string] `json:"description"`
	Priority    models.Field[string] `json:"priority"`
	DueDate     models.Field[string] `json:"dueDate"`
}

type assignTaskRequest struct {
	UserID *string `json:"userId" validate:"omitempty,uuid"`
}

// CreateTask appends a task to a list.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	task, err := h.svc.CreateTask(c.UserContext(), userID(c), c.Params("listId"), req.Title, req.Description)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Task created successfully", task)
}

// MoveTask moves a task within or across lists.
func (h *Handler) MoveTask(c *fiber.Ctx) error {
	var req moveTaskRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	task, err := h.svc.MoveTask(c.UserContext(), userID(c), c.Params("taskId"), req.ColumnID, *req.Order)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Task moved successfully", task)
}

// UpdateTask applies the fields present in the body.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	due, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		return h.writeError(c, err)
	}
	task, err := h.svc.UpdateTask(c.UserContext(), userID(c), c.Params("taskId"), models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Task updated successfully", task)
}

// AssignTask sets or clears the assignee.
func (h *Handler) AssignTask(c *fiber.Ctx) error {
	var req assignTaskRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	task, err := h.svc.AssignTask(c.UserContext(), userID(c), c.Params("taskId"), req.UserID)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Task assigned successfully", task)
}

// MyTasks lists tasks assigned to the current user.
func (h *Handler) MyTasks(c *fiber.Ctx) error {
	tasks, err := h.svc.MyTasks(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Tasks retrieved successfully", tasks)
}
