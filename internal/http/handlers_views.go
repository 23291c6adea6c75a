package httpx

import (
	"errors"
	"net/http"

	"github.com/target/jobboard-ui-api/internal/domain/dashboard"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	"github.com/target/jobboard-ui-api/internal/service"
)

// View names returned to the browser application.
const (
	ViewSignIn   = "signin"
	ViewRegister = "register"
	ViewSaved    = "saved"
	ViewJobs     = "jobs"
)

// ErrCodeAccountMisconfigured is returned when a session's role selects no dashboard.
const ErrCodeAccountMisconfigured = "account_misconfigured"

type viewResponse struct {
	View string `json:"view"`
}

type savedViewResponse struct {
	View  string   `json:"view"`
	Saved []string `json:"saved"`
}

func renderView(name string) func(http.ResponseWriter, *http.Request, *service.ClientApp) {
	return func(w http.ResponseWriter, _ *http.Request, _ *service.ClientApp) {
		WriteJSON(w, http.StatusOK, viewResponse{View: name})
	}
}

// Dashboard mounts the dashboard variant matching the session's role.
func (h *SessionHandlers) Dashboard(w http.ResponseWriter, r *http.Request, app *service.ClientApp) {
	sess := app.Store.Current()
	if sess == nil {
		// Signed out between the guard and here.
		redirect(w, r, h.Paths.Decide(guard.RequireAuth, false))
		return
	}

	variant, err := dashboard.Select(sess.Role)
	if err != nil {
		h.logger().WarnContext(r.Context(), "no dashboard for role",
			"client_id", app.ClientID, "user_id", sess.UserID, "role", string(sess.Role))
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: ErrCodeAccountMisconfigured,
			Err:     errors.New(dashboard.MisconfiguredMessage),
		})
		return
	}
	WriteJSON(w, http.StatusOK, viewResponse{View: string(variant)})
}

// Saved renders the saved-jobs view with the current saved list.
func (h *SessionHandlers) Saved(w http.ResponseWriter, _ *http.Request, app *service.ClientApp) {
	saved := []string{}
	if sess := app.Store.Current(); sess != nil {
		saved = sess.Clone().Saved
	}
	WriteJSON(w, http.StatusOK, savedViewResponse{View: ViewSaved, Saved: saved})
}
