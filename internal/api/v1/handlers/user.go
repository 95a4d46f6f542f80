package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kanban-board/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxAvatarSize = 5 << 20

type profileRequest struct {
	Name     models.Field[string] `json:"name"`
	JobTitle models.Field[string] `json:"jobTitle"`
}

// GetProfile returns the current user.
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	user, err := h.svc.GetProfile(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile applies the fields present in the body.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeError(c, err)
	}
	user, err := h.svc.UpdateProfile(c.UserContext(), userID(c), models.ProfilePatch{
		Name:     req.Name,
		JobTitle: req.JobTitle,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile updated successfully", user)
}

// validateAvatar accepts jpg and png images up to 5MB.
func validateAvatar(file *multipart.FileHeader) error {
	if file.Size > maxAvatarSize {
		return models.Validation(models.FieldError{Field: "avatar", Message: "File size exceeds the limit of 5MB"})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowedExts := map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	if !allowedExts[ext] {
		return models.Validation(models.FieldError{Field: "avatar", Message: "File type not allowed"})
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return models.Validation(models.FieldError{Field: "avatar", Message: "File must be an image"})
	}
	return nil
}

// UploadAvatar stores the "avatar" form file under the upload directory and
// records its public URL on the user.
func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return h.writeError(c, models.Validation(models.FieldError{Field: "avatar", Message: "No file uploaded"}))
	}
	if err := validateAvatar(file); err != nil {
		return h.writeError(c, err)
	}
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return h.writeError(c, fmt.Errorf("create upload dir: %w", err))
	}

	uid := userID(c)
	filename := fmt.Sprintf("%s-%d%s", uid, time.Now().UnixNano(), strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveFile(file, filepath.Join(h.uploadDir, filename)); err != nil {
		return h.writeError(c, fmt.Errorf("save avatar: %w", err))
	}
	user, err := h.svc.SetAvatar(c.UserContext(), uid, "/uploads/"+filename)
	if err != nil {
		if rmErr := os.Remove(filepath.Join(h.uploadDir, filename)); rmErr != nil {
			h.log.Error.Warn("orphaned avatar", zap.String("filename", filename), zap.Error(rmErr))
		}
		return h.writeError(c, err)
	}
	return respond(c, fiber.StatusOK, "Avatar uploaded successfully", user)
}

// GetFile serves an uploaded file by name. Path components are stripped.
func (h *Handler) GetFile(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("filename"))
	if name == "." || name == "/" || name == ".." {
		return respondError(c, fiber.StatusNotFound, "File not found", nil)
	}
	path := filepath.Join(h.uploadDir, name)
	if _, err := os.Stat(path); err != nil {
		return respondError(c, fiber.StatusNotFound, "File not found", nil)
	}
	return c.SendFile(path)
}
