package jobboardapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobboard-ui-api/config"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
)

func defaultMapping(t *testing.T) *Mapping {
	t.Helper()
	m, err := CompileMapping(config.BackendMappingConfig{
		UserID:    "user._id || user.id || _id || id",
		Role:      "user.role || role",
		Email:     "user.email || email",
		Name:      "user.name || name",
		AvatarURL: "user.avatar || avatar",
		Saved:     "not_null(user.saved, saved)",
		Token:     "token || accessToken",
		Message:   "message || error || msg",
	})
	require.NoError(t, err)
	return m
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	f, err := NewFactory(FactoryOptions{Config: Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second, Mapping: defaultMapping(t)}})
	require.NoError(t, err)
	api, err := f.ForClient("client-1")
	require.NoError(t, err)
	c, ok := api.(*Client)
	require.True(t, ok)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoginMapsAccountAndKeepsCookie(t *testing.T) {
	var (
		mu        sync.Mutex
		gotLogin  map[string]any
		meCookie  string
		meAuthHdr string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotLogin))
		http.SetCookie(w, &http.Cookie{Name: "connect.sid", Value: "abc", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]any{"_id": "u-42", "role": "employer", "email": "boss@example.com", "name": "Boss", "saved": []any{"j1", "j2"}},
			"token": "tok-1",
		})
	})
	mux.HandleFunc("GET /api/auth/me/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if c, err := r.Cookie("connect.sid"); err == nil {
			meCookie = c.Value
		}
		meAuthHdr = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"_id": r.PathValue("id"), "role": "employer", "email": "boss@example.com"})
	})
	c := newTestClient(t, mux)

	acct, err := c.Login(context.Background(), domainauth.Credentials{Email: "boss@example.com", Password: "pw", RememberMe: true})
	require.NoError(t, err)
	assert.Equal(t, "u-42", acct.UserID)
	assert.Equal(t, domainauth.RoleEmployer, acct.Role)
	assert.Equal(t, "Boss", acct.Name)
	assert.Equal(t, []string{"j1", "j2"}, acct.Saved)
	assert.Equal(t, "tok-1", acct.Token)

	mu.Lock()
	assert.Equal(t, "boss@example.com", gotLogin["email"])
	assert.Equal(t, "pw", gotLogin["password"])
	mu.Unlock()

	me, err := c.Me(context.Background(), "u-42", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u-42", me.UserID)
	assert.Nil(t, me.Saved)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "abc", meCookie)
	assert.Equal(t, "Bearer tok-1", meAuthHdr)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		check   func(error) bool
		message string
	}{
		{"unauthorized carries backend message", http.StatusUnauthorized, map[string]any{"message": "Invalid email or password"}, apperrors.IsUnauthorized, "Invalid email or password"},
		{"forbidden", http.StatusForbidden, nil, apperrors.IsUnauthorized, "Your session is no longer valid. Please sign in again."},
		{"validation", http.StatusBadRequest, map[string]any{"error": "email is invalid"}, apperrors.IsValidation, "email is invalid"},
		{"server error", http.StatusInternalServerError, map[string]any{"message": "stack trace"}, apperrors.IsUnavailable, "The job board service is unavailable. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))

			_, err := c.Login(context.Background(), domainauth.Credentials{Email: "a@b.c", Password: "x"})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected code %q", apperrors.GetCode(err))
			assert.Equal(t, tt.message, apperrors.UserMessage(err, ""))
		})
	}
}

func TestClient_UpdateSavedSendsFullSet(t *testing.T) {
	var got struct {
		Saved []string `json:"saved"`
	}
	var path string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.UpdateSaved(context.Background(), "u 1", "tok", nil))
	assert.Equal(t, "/api/users/u 1", path)
	assert.NotNil(t, got.Saved)
	assert.Empty(t, got.Saved)
}

func TestClient_MissingUserIDIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}))

	_, err := c.Me(context.Background(), "u1", "")
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Logout(ctx, "")
	assert.True(t, apperrors.IsTimeout(err), "unexpected code %q", apperrors.GetCode(err))
}

func TestNewFactory_Validation(t *testing.T) {
	_, err := NewFactory(FactoryOptions{Config: Config{BaseURL: "http://x"}})
	require.Error(t, err)

	_, err = NewFactory(FactoryOptions{Config: Config{BaseURL: "ftp://x", Mapping: defaultMapping(t)}})
	require.Error(t, err)
}

func TestFactory_ForClientIsolatesCookies(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "first", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "role": "jobseeker"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if c, err := r.Cookie("sid"); err == nil {
			seen = append(seen, c.Value)
		} else {
			seen = append(seen, "")
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f, err := NewFactory(FactoryOptions{Config: Config{BaseURL: srv.URL, Mapping: defaultMapping(t)}})
	require.NoError(t, err)
	a, err := f.ForClient("a")
	require.NoError(t, err)
	b, err := f.ForClient("b")
	require.NoError(t, err)

	_, err = a.Login(context.Background(), domainauth.Credentials{Email: "x@y.z", Password: "p"})
	require.NoError(t, err)
	require.NoError(t, a.Logout(context.Background(), ""))
	require.NoError(t, b.Logout(context.Background(), ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", ""}, seen)
}
