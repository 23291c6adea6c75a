package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	mockauth "github.com/target/jobboard-ui-api/internal/mocks/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
	"github.com/target/jobboard-ui-api/internal/service"
)

type routerHarness struct {
	handler  http.Handler
	api      *mockauth.FakeJobBoardAPI
	cache    *mockauth.MemorySessionCache
	registry *service.ClientRegistry
	clientID string
}

func newRouterHarness(t *testing.T, api *mockauth.FakeJobBoardAPI) *routerHarness {
	t.Helper()
	if api == nil {
		api = mockauth.NewFakeJobBoardAPI()
	}
	cache := mockauth.NewMemorySessionCache()
	registry := service.NewClientRegistry(service.ClientRegistryOptions{
		APIs:  api,
		Cache: cache,
		Config: service.ClientRegistryConfig{
			App: service.ClientAppConfig{BackendTimeout: time.Second},
		},
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = registry.Close(ctx)
	})

	return &routerHarness{
		handler:  NewRouter(RouterServices{Clients: registry, Cookie: ClientCookieConfig{Secure: true}}),
		api:      api,
		cache:    cache,
		registry: registry,
		clientID: uuid.NewString(),
	}
}

// seed caches sess for the harness client and starts a validated application run.
func (h *routerHarness) seed(t *testing.T, sess domainauth.Session) {
	t.Helper()
	require.NoError(t, h.cache.Save(context.Background(), h.clientID, sess))
	rec := h.call(t, http.MethodPost, "/api/app/load?wait=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func (h *routerHarness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: DefaultClientCookieName, Value: h.clientID})
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// call issues a JSON API request.
func (h *routerHarness) call(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.do(t, req)
}

// browser issues a request the way a browser navigation would.
func (h *routerHarness) browser(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return h.do(t, req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func seekerSession(saved ...string) domainauth.Session {
	return domainauth.Session{
		UserID: "user-1",
		Role:   domainauth.RoleJobSeeker,
		Email:  "seeker@example.com",
		Saved:  saved,
		Token:  "token-1",
	}
}

func TestRouter_ClientCookieIssuedOnce(t *testing.T) {
	h := newRouterHarness(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultClientCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	_, err := uuid.Parse(cookies[0].Value)
	require.NoError(t, err)

	// A valid cookie is kept as is.
	rec = h.call(t, http.MethodGet, "/api/session", "")
	assert.Empty(t, rec.Result().Cookies())
}

func TestRouter_MalformedClientCookieReplaced(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.clientID = "not-a-uuid"

	rec := h.call(t, http.MethodGet, "/api/session", "")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "not-a-uuid", cookies[0].Value)
}

func TestRouter_HealthzNeedsNoClient(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRouter_LoadWithoutCachedSession(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.call(t, http.MethodPost, "/api/app/load?wait=true", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, true, body["validated"])
	assert.Equal(t, "anonymous", body["validation"])
	assert.Equal(t, []any{}, body["saved"])
	assert.NotContains(t, body, "user")
}

func TestRouter_LoadRehydratesAndPrefersServerSavedList(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.MeFunc = func(context.Context, string, string) (ports.Account, error) {
		acct := api.Account
		acct.Saved = []string{"j2"}
		return acct, nil
	}
	h := newRouterHarness(t, api)

	h.seed(t, seekerSession("j1"))
	rec := h.call(t, http.MethodGet, "/api/session", "")

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "kept", body["validation"])
	assert.Equal(t, []any{"j2"}, body["saved"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-1", user["id"])
	assert.Equal(t, "jobseeker", user["role"])
	assert.NotContains(t, rec.Body.String(), "token-1")
}

func TestRouter_LoadClearsRejectedSession(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.MeFunc = func(context.Context, string, string) (ports.Account, error) {
		return ports.Account{}, apperrors.Unauthorized("session expired")
	}
	h := newRouterHarness(t, api)

	h.seed(t, seekerSession("j1"))
	body := decodeBody(t, h.call(t, http.MethodGet, "/api/session", ""))

	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, "cleared", body["validation"])
}

func TestRouter_Guard(t *testing.T) {
	h := newRouterHarness(t, nil)

	tests := []struct {
		name     string
		query    string
		wantCode int
		outcome  string
		redirect string
	}{
		{"public without flag", "/api/guard?path=/jobs", http.StatusOK, "render", ""},
		{"protected signed out", "/api/guard?path=/saved&require_auth=true", http.StatusOK, "redirect_signin", "/SignIn"},
		{"guest only signed out", "/api/guard?path=/SignIn&require_auth=false", http.StatusOK, "render", ""},
		{"invalid flag", "/api/guard?require_auth=maybe", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.call(t, http.MethodGet, tt.query, "")
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.outcome == "" {
				return
			}
			body := decodeBody(t, rec)
			assert.Equal(t, tt.outcome, body["outcome"])
			if tt.redirect != "" {
				assert.Equal(t, tt.redirect, body["redirect_to"])
			}
		})
	}
}

func TestRouter_GuardSignedInGuestOnlyRedirectsToDashboard(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.seed(t, seekerSession())

	body := decodeBody(t, h.call(t, http.MethodGet, "/api/guard?path=/SignIn&require_auth=false", ""))

	assert.Equal(t, "redirect_dashboard", body["outcome"])
	assert.Equal(t, "/dashboard", body["redirect_to"])
}

func TestRouter_LoginThenDashboard(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.call(t, http.MethodPost, "/auth/login", `{"email":"seeker@example.com","password":"pw","remember_me":true}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "/dashboard", body["redirect_to"])
	assert.Equal(t, 1, h.api.Logins())

	rec = h.call(t, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jobseeker-dashboard", decodeBody(t, rec)["view"])
}

func TestRouter_LoginFormPostRedirectsBrowser(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.Account.Role = domainauth.RoleEmployer
	h := newRouterHarness(t, api)

	form := url.Values{"email": {"boss@example.com"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	rec := h.do(t, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = h.call(t, http.MethodGet, "/dashboard", "")
	assert.Equal(t, "employer-dashboard", decodeBody(t, rec)["view"])
}

func TestRouter_LoginRejected(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.LoginFunc = func(context.Context, domainauth.Credentials) (ports.Account, error) {
		return ports.Account{}, apperrors.Unauthorized("Invalid email or password")
	}
	h := newRouterHarness(t, api)

	rec := h.call(t, http.MethodPost, "/auth/login", `{"email":"a@b.c","password":"bad"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unauthorized", body["error"])
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestRouter_LoginValidation(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.call(t, http.MethodPost, "/auth/login", `{"password":"pw"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation", body["error"])
	assert.Equal(t, "email", body["field"])
	assert.Equal(t, 0, h.api.Logins())
}

func TestRouter_LoginWhenSignedInIsRedirected(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.seed(t, seekerSession())

	rec := h.call(t, http.MethodPost, "/auth/login", `{"email":"a@b.c","password":"pw"}`)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", decodeBody(t, rec)["redirect_to"])
	assert.Equal(t, 0, h.api.Logins())
}

func TestRouter_ProtectedViewsSignedOut(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.browser(t, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/SignIn", rec.Header().Get("Location"))

	rec = h.call(t, http.MethodGet, "/saved", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "redirect_signin", body["outcome"])
	assert.Equal(t, "/SignIn", body["redirect_to"])
}

func TestRouter_PublicAndGuestViews(t *testing.T) {
	h := newRouterHarness(t, nil)

	assert.Equal(t, "jobs", decodeBody(t, h.call(t, http.MethodGet, "/jobs", ""))["view"])
	assert.Equal(t, "signin", decodeBody(t, h.call(t, http.MethodGet, "/SignIn", ""))["view"])
	assert.Equal(t, "register", decodeBody(t, h.call(t, http.MethodGet, "/register", ""))["view"])

	h.seed(t, seekerSession())
	rec := h.browser(t, http.MethodGet, "/register")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, "jobs", decodeBody(t, h.call(t, http.MethodGet, "/jobs", ""))["view"])
}

func TestRouter_DashboardUnrecognizedRole(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.Account.Role = ""
	h := newRouterHarness(t, api)
	sess := seekerSession()
	sess.Role = "admin"
	h.seed(t, sess)

	rec := h.call(t, http.MethodGet, "/dashboard", "")

	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, ErrCodeAccountMisconfigured, body["error"])
	assert.Equal(t, "your account is misconfigured, contact support", body["message"])
}

func TestRouter_SavedView(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.api.MeFunc = func(context.Context, string, string) (ports.Account, error) {
		return ports.Account{UserID: "user-1", Role: domainauth.RoleJobSeeker}, nil
	}
	h.seed(t, seekerSession("j1", "j2"))

	body := decodeBody(t, h.call(t, http.MethodGet, "/saved", ""))

	assert.Equal(t, "saved", body["view"])
	assert.Equal(t, []any{"j1", "j2"}, body["saved"])
}

func TestRouter_LogoutAlwaysSucceeds(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	h := newRouterHarness(t, api)
	h.seed(t, seekerSession("j1"))
	api.LogoutFunc = func(context.Context, string) error {
		return apperrors.Unavailable("backend down")
	}

	rec := h.call(t, http.MethodPost, "/auth/logout", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "/SignIn", body["redirect_to"])

	body = decodeBody(t, h.call(t, http.MethodGet, "/api/session", ""))
	assert.Equal(t, false, body["authenticated"])
}

func TestRouter_LogoutBrowserRedirects(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.seed(t, seekerSession())

	rec := h.browser(t, http.MethodPost, "/auth/logout")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/SignIn", rec.Header().Get("Location"))
}

func TestRouter_ToggleSaved(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.seed(t, seekerSession())

	rec := h.call(t, http.MethodPost, "/api/saved/job-9/toggle", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "job-9", body["job_id"])
	assert.Equal(t, true, body["saved"])

	calls := h.api.UpdateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"job-9"}, calls[0].Saved)
	assert.Equal(t, "token-1", calls[0].Token)

	notices := decodeBody(t, h.call(t, http.MethodGet, "/api/notices", ""))["notices"]
	require.Len(t, notices, 1)
	assert.Equal(t, "job saved", notices.([]any)[0].(map[string]any)["message"])
}

func TestRouter_ToggleSavedFailureRollsBack(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.UpdateSavedFunc = func(context.Context, string, string, []string) error {
		return apperrors.Unavailable("backend down")
	}
	h := newRouterHarness(t, api)
	h.seed(t, seekerSession())

	rec := h.call(t, http.MethodPost, "/api/saved/job-9/toggle", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["saved"])
	assert.Equal(t, "unavailable", body["error"])
	assert.Equal(t, "failed to save job", body["message"])

	session := decodeBody(t, h.call(t, http.MethodGet, "/api/session", ""))
	assert.Equal(t, []any{}, session["saved"])
}

// sweepingRuns sweeps every run right after handing out the first one, so the
// handler receives a run that is already closed.
type sweepingRuns struct {
	*service.ClientRegistry
	swept atomic.Bool
}

func (s *sweepingRuns) Attach(ctx context.Context, clientID string) (*service.ClientApp, error) {
	app, err := s.ClientRegistry.Attach(ctx, clientID)
	if err != nil || s.swept.Swap(true) {
		return app, err
	}
	_, err = s.Sweep(ctx, time.Now().Add(time.Hour))
	return app, err
}

func TestRouter_ToggleSavedOnSweptRunUsesNewRun(t *testing.T) {
	h := newRouterHarness(t, nil)
	h.seed(t, seekerSession())
	runs := &sweepingRuns{ClientRegistry: h.registry}
	h.handler = NewRouter(RouterServices{Clients: runs, Cookie: ClientCookieConfig{Secure: true}})

	rec := h.call(t, http.MethodPost, "/api/saved/job-9/toggle", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, runs.swept.Load())
	assert.Equal(t, true, decodeBody(t, rec)["saved"])

	require.NoError(t, h.registry.Close(context.Background()))
	cached, err := h.cache.Load(context.Background(), h.clientID)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-9"}, cached.Saved)
}

func TestRouter_ToggleSavedSignedOut(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.call(t, http.MethodPost, "/api/saved/job-9/toggle", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/SignIn", decodeBody(t, rec)["redirect_to"])
	assert.Empty(t, h.api.UpdateCalls())
}

func TestRouter_NotFound(t *testing.T) {
	h := newRouterHarness(t, nil)

	rec := h.call(t, http.MethodGet, "/api/nope", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])
}

func TestRouter_CustomPaths(t *testing.T) {
	registry := service.NewClientRegistry(service.ClientRegistryOptions{
		APIs:  mockauth.NewFakeJobBoardAPI(),
		Cache: mockauth.NewMemorySessionCache(),
	})
	t.Cleanup(func() { _ = registry.Close(context.Background()) })
	handler := NewRouter(RouterServices{
		Clients: registry,
		Paths:   guard.Paths{SignIn: "/login", Dashboard: "/home"},
	})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
