package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	"github.com/target/jobboard-ui-api/internal/service"
)

// ClientRuns hands out the live application run of a client.
type ClientRuns interface {
	Attach(ctx context.Context, clientID string) (*service.ClientApp, error)
	Reload(ctx context.Context, clientID string) (*service.ClientApp, error)
}

// SessionHandlers serves the session, guard and notice endpoints and the guarded views.
type SessionHandlers struct {
	Clients ClientRuns
	Paths   guard.Paths
	Logger  *slog.Logger
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type userResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	Validated     bool          `json:"validated"`
	Validation    string        `json:"validation"`
	User          *userResponse `json:"user,omitempty"`
	Saved         []string      `json:"saved"`
}

func sessionView(app *service.ClientApp) sessionResponse {
	outcome := app.Validator.Outcome()
	resp := sessionResponse{
		Validated:  outcome != service.ValidationPending,
		Validation: string(outcome),
		Saved:      []string{},
	}
	sess := app.Store.Current()
	if sess == nil {
		return resp
	}
	resp.Authenticated = true
	resp.User = newUserResponse(*sess)
	resp.Saved = sess.Clone().Saved
	return resp
}

func newUserResponse(s domainauth.Session) *userResponse {
	return &userResponse{
		ID:        s.UserID,
		Role:      string(s.Role),
		Email:     s.Email,
		Name:      s.Name,
		AvatarURL: s.AvatarURL,
	}
}

// app resolves the application run of the requesting client. On failure the error
// response has been written and ok is false.
func (h *SessionHandlers) app(w http.ResponseWriter, r *http.Request) (*service.ClientApp, bool) {
	clientID, ok := ClientIDFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_client", Err: errors.New("client id is required")})
		return nil, false
	}
	app, err := h.Clients.Attach(r.Context(), clientID)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "attach client failed", "client_id", clientID, "error", err)
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "unavailable", Err: errors.New("session unavailable")})
		return nil, false
	}
	return app, true
}

// Load starts a new application run for the client. With ?wait=true it returns only
// once the remote validation of the cached session has finished (or the request ended).
func (h *SessionHandlers) Load(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ClientIDFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_client", Err: errors.New("client id is required")})
		return
	}
	app, err := h.Clients.Reload(r.Context(), clientID)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "reload client failed", "client_id", clientID, "error", err)
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "unavailable", Err: errors.New("session unavailable")})
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		app.Validator.Wait(r.Context())
	}
	WriteJSON(w, http.StatusOK, sessionView(app))
}

// Session reports the client's current session.
func (h *SessionHandlers) Session(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionView(app))
}

type guardResponse struct {
	Path        string        `json:"path,omitempty"`
	Requirement string        `json:"requirement"`
	Outcome     guard.Outcome `json:"outcome"`
	RedirectTo  string        `json:"redirect_to,omitempty"`
}

// Guard evaluates the route guard for a client-side navigation.
// Without require_auth the route is treated as public.
func (h *SessionHandlers) Guard(w http.ResponseWriter, r *http.Request) {
	req := guard.Public
	if raw := r.URL.Query().Get("require_auth"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "validation",
				Err:     errors.New("require_auth must be a boolean"),
				Field:   "require_auth",
			})
			return
		}
		req = guard.For(v)
	}

	app, ok := h.app(w, r)
	if !ok {
		return
	}
	d := h.Paths.Decide(req, app.Store.Present())
	WriteJSON(w, http.StatusOK, guardResponse{
		Path:        r.URL.Query().Get("path"),
		Requirement: req.String(),
		Outcome:     d.Outcome,
		RedirectTo:  d.Location,
	})
}

// Notices drains the client's pending notices.
func (h *SessionHandlers) Notices(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notices": app.Notices.Drain()})
}

type redirectResponse struct {
	Outcome    guard.Outcome `json:"outcome"`
	RedirectTo string        `json:"redirect_to"`
}

// redirect sends the client to the decision's location: an HTTP redirect for browsers,
// a JSON body with 401 (sign-in) or 303 (dashboard) for API callers.
func redirect(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	if IsBrowserRequest(r) {
		http.Redirect(w, r, d.Location, http.StatusFound)
		return
	}
	status := http.StatusSeeOther
	if d.Outcome == guard.RedirectSignIn {
		status = http.StatusUnauthorized
	}
	WriteJSON(w, status, redirectResponse{Outcome: d.Outcome, RedirectTo: d.Location})
}

// guarded wraps a handler with the route guard for req.
func (h *SessionHandlers) guarded(req guard.Requirement, next func(http.ResponseWriter, *http.Request, *service.ClientApp)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := h.app(w, r)
		if !ok {
			return
		}
		if d := h.Paths.Decide(req, app.Store.Present()); d.IsRedirect() {
			redirect(w, r, d)
			return
		}
		next(w, r, app)
	}
}
