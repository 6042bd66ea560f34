package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an entity or relation does not exist
	// for the given actor.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a uniqueness constraint rejects an
	// add-relation. A second add is always an error, never a no-op.
	ErrAlreadyExists = errors.New("already exists")

	// ErrPermissionDenied is returned when a non-owner, non-staff user
	// mutates someone else's recipe.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCartEmpty distinguishes an empty shopping cart from a zero-line
	// report so callers can render a dedicated message.
	ErrCartEmpty = errors.New("shopping cart is empty")
)

// ValidationError collects all field errors for a request instead of failing
// on the first one.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records an error message for a field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
