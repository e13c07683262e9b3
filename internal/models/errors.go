package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidRole       = errors.New("invalid role")
	ErrDuplicateReview   = errors.New("review already exists for this work order")
	ErrDuplicate         = errors.New("already exists")
	ErrConflict          = errors.New("resource was modified concurrently")
	ErrRateLimited       = errors.New("too many requests")
)

// ValidationError carries per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields []string
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, " // ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
