package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error kinds the API distinguishes. Services wrap
// these in an *AppError; handlers use errors.Is to pick the HTTP status.
// Anything that doesn't match one of these surfaces as an unclassified 500.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// AppError is a domain error with a human-readable message and, for
// validation failures, a field → messages map that the response envelope
// carries through to the client as error.details.
type AppError struct {
	Err     error               // sentinel kind (one of the vars above)
	Message string              // human-readable error message
	Fields  map[string][]string // optional: per-field validation messages
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that a resource doesn't exist.
// HTTP handlers map this to 404.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a single-field validation failure.
// HTTP handlers map this to 400 with the field in the error details.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  map[string][]string{field: {message}},
	}
}

// ValidationFields reports a multi-field validation failure, one entry per
// offending field. The validate package uses this when a whole request body
// fails shape validation.
func ValidationFields(fields map[string][]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "one or more fields failed validation",
		Fields:  fields,
	}
}

// Unauthorized reports a missing or invalid caller identity.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "valid authentication required"
	}
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Conflict reports a uniqueness violation (duplicate email, duplicate
// provider account, and so on). HTTP handlers map this to 409.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with %s", resource, key),
	}
}
