package httpx

import (
	"errors"
	"net/http"

	"github.com/target/jobboard-ui-api/internal/domain/guard"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/service"
)

type toggleResponse struct {
	JobID string `json:"job_id"`
	// Saved is the local membership after the toggle settled (or, when Pending, right now).
	Saved   bool   `json:"saved"`
	Pending bool   `json:"pending,omitempty"`
	Stale   bool   `json:"stale,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToggleSaved flips a job's saved membership. The change is applied locally at once; the
// response waits for the backend outcome unless the request ends first, in which case it
// reports the pending local state with 202.
func (h *SessionHandlers) ToggleSaved(w http.ResponseWriter, r *http.Request, app *service.ClientApp) {
	jobID := r.PathValue("jobID")

	results, err := app.Toggle(r.Context(), jobID)
	if errors.Is(err, service.ErrRunClosed) {
		var ok bool
		if app, ok = h.app(w, r); !ok {
			return
		}
		results, err = app.Toggle(r.Context(), jobID)
	}
	switch {
	case errors.Is(err, service.ErrNoSession):
		redirect(w, r, h.Paths.Decide(guard.RequireAuth, false))
		return
	case err != nil:
		WriteAppError(w, err)
		return
	}

	select {
	case res := <-results:
		writeToggleResult(w, res)
	case <-r.Context().Done():
		member := false
		if sess := app.Store.Current(); sess != nil {
			member = sess.HasSaved(jobID)
		}
		WriteJSON(w, http.StatusAccepted, toggleResponse{JobID: jobID, Saved: member, Pending: true})
	}
}

func writeToggleResult(w http.ResponseWriter, res service.ToggleResult) {
	out := toggleResponse{JobID: res.JobID, Saved: res.Member, Stale: res.Stale}
	if res.Err == nil || res.Stale {
		WriteJSON(w, http.StatusOK, out)
		return
	}

	code := apperrors.GetCode(res.Err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	out.Error = string(code)
	out.Message = service.MsgUnsaveFailed
	if res.Saved {
		out.Message = service.MsgSaveFailed
	}
	WriteJSON(w, statusForCode(code), out)
}
