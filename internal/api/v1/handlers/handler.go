package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"kanban-board/internal/middleware"
	"kanban-board/internal/models"
	"kanban-board/internal/service"
	"kanban-board/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the /api/v1 routes.
type Handler struct {
	svc       *service.Service
	validate  *validator.Validate
	log       *logger.Loggers
	uploadDir string
}

// New builds the handlers over the service. Avatars are written to uploadDir.
func New(svc *service.Service, log *logger.Loggers, uploadDir string) *Handler {
	validate := validator.New()
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{svc: svc, validate: validate, log: log, uploadDir: uploadDir}
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": true,
		"status":  status,
		"data":    data,
	})
}

func respondError(c *fiber.Ctx, status int, message string, fields []models.FieldError) error {
	body := fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindForbidden:
		return fiber.StatusForbidden
	case models.KindUnauthorized:
		return fiber.StatusUnauthorized
	case models.KindConflict:
		return fiber.StatusConflict
	case models.KindInvalidState, models.KindValidation:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// writeError renders err in the error envelope. Errors without a kind are logged
// and never shown to the client.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return respondError(c, StatusOf(appErr.Kind), appErr.Error(), appErr.Fields)
	}
	h.log.Error.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return respondError(c, fiber.StatusInternalServerError, "Internal server error", nil)
}

// bind parses the JSON body into req and runs its validate tags.
func (h *Handler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return models.Validation(models.FieldError{Field: "body", Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields := make([]models.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, models.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return models.Validation(fields...)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func userID(c *fiber.Ctx) string {
	return middleware.UserID(c)
}
