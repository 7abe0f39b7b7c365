package service

import (
	"errors"

	"github.com/mediashelf/mediashelf/pkg/fields"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("only the author may modify this media")
	ErrNotFound     = errors.New("media not found")
	ErrConflict     = errors.New("media was modified concurrently, retry")
	// ErrInternal hides storage failures from callers; the cause is logged.
	ErrInternal = errors.New("internal error")
)

// Validation reasons reported per field.
const (
	ReasonRequired = "is required"
	ReasonType     = "has the wrong type"
)

// ValidationError maps offending field names to the reason they were rejected.
type ValidationError = fields.Error

func NewValidationError() *ValidationError { return fields.New() }
