package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Field is one entry of a partial update. A field missing from the JSON document
// stays unset, an explicit null is Set but not Valid, and a value is Set and Valid.
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Value is a present, non-null field.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// Null is a present field set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Valid = false
		var zero T
		f.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Ptr returns the value as a pointer, nil when the field was cleared.
func (f Field[T]) Ptr() *T {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// TaskPatch holds the task fields a request may change.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Priority    Field[string]
	DueDate     Field[time.Time]
}

func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Priority.Set && !p.DueDate.Set
}

func (p TaskPatch) Validate() error {
	var fields []FieldError
	if p.Title.Set && (!p.Title.Valid || strings.TrimSpace(p.Title.Value) == "") {
		fields = append(fields, FieldError{Field: "title", Message: "Task title is required"})
	}
	if p.Priority.Set && !ValidPriority(p.Priority.Value) {
		fields = append(fields, FieldError{Field: "priority", Message: "Priority must be one of low, medium, high"})
	}
	if len(fields) > 0 {
		return Validation(fields...)
	}
	return nil
}

// BoardPatch holds the board fields a request may change.
type BoardPatch struct {
	Name        Field[string]
	Description Field[string]
	Status      Field[string]
	DueDate     Field[time.Time]
}

func (p BoardPatch) Validate() error {
	var fields []FieldError
	if p.Name.Set && (!p.Name.Valid || strings.TrimSpace(p.Name.Value) == "") {
		fields = append(fields, FieldError{Field: "name", Message: "Board name is required"})
	}
	if p.Status.Set && !ValidBoardStatus(p.Status.Value) {
		fields = append(fields, FieldError{Field: "status", Message: "Unknown board status"})
	}
	if len(fields) > 0 {
		return Validation(fields...)
	}
	return nil
}

// ProfilePatch holds the profile fields a request may change.
type ProfilePatch struct {
	Name     Field[string]
	JobTitle Field[string]
}

func (p ProfilePatch) Validate() error {
	if p.Name.Set && (!p.Name.Valid || strings.TrimSpace(p.Name.Value) == "") {
		return Validation(FieldError{Field: "name", Message: "Name is required"})
	}
	return nil
}

// CreateBoardInput is the body of a board creation.
type CreateBoardInput struct {
	Name        string
	Description string
	Template    string
	TeamID      *string
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ValidBoardStatus(s string) bool {
	switch s {
	case BoardStatusActive, BoardStatusOnHold, BoardStatusCompleted, BoardStatusArchived:
		return true
	}
	return false
}

// TemplateColumns returns the initial column titles of a board template.
func TemplateColumns(template string) ([]string, bool) {
	switch template {
	case TemplateKanban:
		return []string{"To Do", "In Progress", DoneColumnTitle}, true
	case TemplateTasks:
		return []string{"My Tasks"}, true
	case TemplateBlank:
		return nil, true
	}
	return nil, false
}
