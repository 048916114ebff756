package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	// Each test case checks that errors.Is() correctly identifies the error kind
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("question", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized(""),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("only the author can edit this question"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("account", "provider github"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("question", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("no"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("question", "abc123"),
			wantMessage: "question not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Unauthorized defaults its message",
			err:         Unauthorized(""),
			wantMessage: "valid authentication required",
		},
		{
			name:        "Conflict message includes resource and key",
			err:         Conflict("user", "email bob@example.com"),
			wantMessage: "user already exists with email bob@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	// Unwrap() must return the underlying sentinel — it's what makes
	// errors.Is() walk the chain.
	err := NotFound("answer", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFields(t *testing.T) {
	err := ValidationFields(map[string][]string{
		"title": {"title must be at least 5 characters"},
		"tags":  {"at least one tag is required"},
	})

	if len(err.Fields) != 2 {
		t.Fatalf("Fields has %d entries, want 2", len(err.Fields))
	}
	if got := err.Fields["title"][0]; got != "title must be at least 5 characters" {
		t.Errorf("Fields[title][0] = %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationFields should wrap ErrValidation")
	}
}

func TestValidationFailedField(t *testing.T) {
	// Single-field constructor still exposes the field in the details map so
	// handlers can tell the frontend WHICH field was invalid.
	err := ValidationFailed("email", "invalid email format")

	msgs, ok := err.Fields["email"]
	if !ok || len(msgs) != 1 || msgs[0] != "invalid email format" {
		t.Errorf("Fields[email] = %v, want [invalid email format]", msgs)
	}
}
