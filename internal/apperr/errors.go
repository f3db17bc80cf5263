package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError carries every failing field, not just the first one.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a field violation. Returns the receiver so checks chain.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = message
	return e
}

// Err returns the error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// NotFoundError means the entity is absent or not visible to the caller.
type NotFoundError struct {
	Resource string
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ForbiddenError means the caller lacks the role or ownership required.
type ForbiddenError struct {
	Reason string
}

func Forbidden(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ConflictError means a state precondition failed: duplicate row, wrong
// lifecycle state, or a lost race.
type ConflictError struct {
	Reason string
}

func Conflict(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// InternalError wraps a store or collaborator failure.
type InternalError struct {
	Err error
}

func Internal(err error) *InternalError {
	return &InternalError{Err: err}
}

func (e *InternalError) Error() string {
	return "internal error"
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps a taxonomy error to its response code.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		forbidden  *ForbiddenError
		conflict   *ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Payload renders the structured, field-addressable error body.
func Payload(err error) map[string]any {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return map[string]any{
			"error":  "validation failed",
			"fields": validation.Fields,
		}
	}

	if HTTPStatus(err) == http.StatusInternalServerError {
		return map[string]any{"error": "internal error"}
	}

	return map[string]any{"error": err.Error()}
}
