package httpx

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	"github.com/target/jobboard-ui-api/internal/service"
)

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type loginResponse struct {
	Status     string          `json:"status"`
	RedirectTo string          `json:"redirect_to"`
	Session    sessionResponse `json:"session"`
}

type logoutResponse struct {
	Status     string `json:"status"`
	RedirectTo string `json:"redirect_to"`
}

// Login signs the client in. It is guest-only: a signed-in client is sent to the dashboard.
// JSON bodies and urlencoded form posts are both accepted.
func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request, app *service.ClientApp) {
	in, ok := decodeLogin(w, r)
	if !ok {
		return
	}

	creds := domainauth.Credentials{
		Email:      in.Email,
		Password:   in.Password,
		RememberMe: in.RememberMe,
	}
	_, err := app.SignIn(r.Context(), creds)
	if errors.Is(err, service.ErrRunClosed) {
		if app, ok = h.app(w, r); !ok {
			return
		}
		_, err = app.SignIn(r.Context(), creds)
	}
	switch {
	case errors.Is(err, service.ErrAlreadySignedIn):
		redirect(w, r, h.Paths.Decide(guard.GuestOnly, true))
		return
	case err != nil:
		WriteAppError(w, err)
		return
	}

	dashboardPath := h.Paths.Decide(guard.GuestOnly, true).Location
	if IsBrowserRequest(r) {
		http.Redirect(w, r, dashboardPath, http.StatusFound)
		return
	}
	WriteJSON(w, http.StatusOK, loginResponse{Status: "success", RedirectTo: dashboardPath, Session: sessionView(app)})
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	var in loginRequest
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/x-www-form-urlencoded" && mt != "multipart/form-data" {
		return in, DecodeJSON(w, r, &in)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return in, false
	}
	in.Email = r.PostForm.Get("email")
	in.Password = r.PostForm.Get("password")
	in.RememberMe, _ = strconv.ParseBool(r.PostForm.Get("remember_me"))
	return in, true
}

// Logout signs the client out. The local session is always cleared, even when the
// backend logout fails, so the response is always a redirect to the sign-in page.
func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	next, err := app.SignOut(r.Context())
	if errors.Is(err, service.ErrRunClosed) {
		if app, ok = h.app(w, r); !ok {
			return
		}
		next, err = app.SignOut(r.Context())
	}
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if IsBrowserRequest(r) {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	WriteJSON(w, http.StatusOK, logoutResponse{Status: "success", RedirectTo: next})
}
