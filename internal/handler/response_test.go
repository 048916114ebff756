package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devforum/internal/apperror"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var body APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return body
}

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.True(t, body.Success)
	assert.Nil(t, body.Error)
	assert.NotNil(t, body.Data)
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperror.ValidationFailed("title", "too short"), http.StatusBadRequest},
		{"unauthorized", apperror.Unauthorized(""), http.StatusUnauthorized},
		{"forbidden", apperror.Forbidden("not yours"), http.StatusForbidden},
		{"not found", apperror.NotFound("question", "abc"), http.StatusNotFound},
		{"conflict", apperror.Conflict("user", "email x"), http.StatusConflict},
		{"unknown", errors.New("driver exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			// Errors arrive wrapped from the service layer.
			writeError(rec, fmt.Errorf("handling request: %w", tt.err))

			assert.Equal(t, tt.status, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("dial tcp 10.0.0.4:27017: connection refused"))

	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.NotContains(t, body.Error.Message, "10.0.0.4")
}

func TestWriteErrorValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperror.ValidationFields(map[string][]string{
		"title": {"title is required"},
		"tags":  {"tags must contain at most 3 items"},
	}))

	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Details, "title")
	assert.Contains(t, body.Error.Details, "tags")
}
