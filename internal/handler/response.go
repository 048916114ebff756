// Package handler contains the HTTP layer: request decoding, the response
// envelope, and the mapping from domain errors to status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/devforum/internal/apperror"
)

// APIResponse is the envelope every endpoint responds with. Exactly one of
// Data and Error is set, keyed off Success:
//
//	{"success": true,  "data": {...}}
//	{"success": false, "error": {"message": "...", "details": {...}}}
//
// A single shape means clients branch on one boolean instead of sniffing
// status codes and bodies.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError carries the human-readable message and, for validation failures,
// the per-field detail map.
type APIError struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Paginated wraps list results with their total count.
type Paginated struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
}

// writeJSON sends the envelope with the given status. Headers and status
// must be set before the first body byte; after that they are fixed.
func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers already went out; all we can do is log.
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeData sends a 200 success envelope.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// writeCreated sends a 201 success envelope.
func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// writeError maps a domain error onto the wire.
//
// The service layer deals in the apperror sentinels and knows nothing about
// HTTP; this is the single place where ErrNotFound becomes 404, ErrConflict
// becomes 409, and so on. errors.Is walks the wrap chain, so services are
// free to annotate errors with fmt.Errorf("...: %w", err) on the way up.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, status, APIResponse{
			Success: false,
			Error:   &APIError{Message: appErr.Message, Details: appErr.Fields},
		})
		return
	}

	// Unknown error: never leak internals (queries, hosts, file paths) to
	// the client.
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Message: "an internal error occurred"},
	})
}

// decodeJSON reads the request body into dst, rejecting malformed JSON as a
// validation error so it flows through the same envelope as field failures.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
