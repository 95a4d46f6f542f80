package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError; the HTTP layer maps each kind to a status.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
)

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is an operational error with a fixed user-facing message.
// errors.Is matches two AppErrors when the target carries no message and the kinds agree,
// so the bare sentinels below can be used to test for a class of error.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrNotFound     = &AppError{Kind: KindNotFound}
	ErrForbidden    = &AppError{Kind: KindForbidden}
	ErrUnauthorized = &AppError{Kind: KindUnauthorized}
	ErrConflict     = &AppError{Kind: KindConflict}
	ErrInvalidState = &AppError{Kind: KindInvalidState}
	ErrValidation   = &AppError{Kind: KindValidation}
)

// NotFound reports a missing or inaccessible resource.
func NotFound(format string, args ...any) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidState reports a request that is well formed but not allowed right now.
func InvalidState(format string, args ...any) error {
	return &AppError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Validation reports invalid request fields.
func Validation(fields ...FieldError) error {
	return &AppError{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// KindOf returns the kind of an AppError in err's chain, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
