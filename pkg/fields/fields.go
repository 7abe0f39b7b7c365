// Package fields carries per-field validation failures from the service
// layer to the HTTP reply.
package fields

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error maps offending field names to the reason they were rejected.
type Error struct {
	Fields map[string]string
}

func New() *Error {
	return &Error{Fields: map[string]string{}}
}

// Add records reason for field, keeping the first reason seen.
func (e *Error) Add(field, reason string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = reason
	}
}

// OrNil returns e when it holds at least one field, nil otherwise.
func (e *Error) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FromValidation converts ozzo-validation errors keyed by field name.
// It returns nil when errs holds no failures.
func FromValidation(errs validation.Errors) error {
	if errs.Filter() == nil {
		return nil
	}
	e := New()
	for field, err := range errs {
		e.Add(field, err.Error())
	}
	return e.OrNil()
}

// Join merges the field errors in errs into one *Error. Earlier errors win
// when two report the same field. Non-field errors are ignored, and nil is
// returned when no field failed.
func Join(errs ...error) error {
	out := New()
	for _, err := range errs {
		fe, ok := As(err)
		if !ok {
			continue
		}
		for field, reason := range fe.Fields {
			out.Add(field, reason)
		}
	}
	return out.OrNil()
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
