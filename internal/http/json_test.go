package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"unauthorized", apperrors.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "unauthorized", "Invalid email or password"},
		{"wrapped validation", fmt.Errorf("sign in: %w", apperrors.Validation("Email already taken")), http.StatusBadRequest, "validation", "Email already taken"},
		{"unavailable", apperrors.Wrap(errors.New("dial tcp"), apperrors.ErrCodeUnavailable, "Job board is unavailable"), http.StatusServiceUnavailable, "unavailable", "Job board is unavailable"},
		{"timeout", apperrors.Wrap(context.DeadlineExceeded, apperrors.ErrCodeTimeout, "Request timed out"), http.StatusGatewayTimeout, "timeout", "Request timed out"},
		{"not found", apperrors.NotFound("gone"), http.StatusNotFound, "not_found", "gone"},
		{"plain error is hidden", errors.New("pq: secret detail"), http.StatusInternalServerError, "internal", "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestWriteAppError_IncludesField(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAppError(rec, apperrors.ValidationField("password", "password is required"))

	assert.Equal(t, "password", decodeBody(t, rec)["field"])
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","extra":1}`))
	rec := httptest.NewRecorder()

	var dst loginRequest
	ok := DecodeJSON(rec, req, &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}
