package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobboard-ui-api/internal/service"
)

type countingRuns struct{ n int }

func (c countingRuns) Attach(context.Context, string) (*service.ClientApp, error) {
	return nil, errors.New("not used")
}

func (c countingRuns) Reload(context.Context, string) (*service.ClientApp, error) {
	return nil, errors.New("not used")
}

func (c countingRuns) Len() int { return c.n }

func TestHealthHandler_ReportsLiveClients(t *testing.T) {
	rec := httptest.NewRecorder()

	healthHandler(countingRuns{n: 3})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","clients":3}`, rec.Body.String())
}

func TestHealthHandler_WithoutCounter(t *testing.T) {
	// Embedding the interface hides Len.
	runs := struct{ ClientRuns }{countingRuns{}}
	rec := httptest.NewRecorder()

	healthHandler(runs)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_HEADHasNoBody(t *testing.T) {
	rec := httptest.NewRecorder()

	healthHandler(countingRuns{n: 1})(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Zero(t, rec.Body.Len())
}
