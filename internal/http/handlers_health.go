package httpx

import (
	"net/http"
)

// clientCounter reports how many client application runs are live.
type clientCounter interface {
	Len() int
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients *int   `json:"clients,omitempty"`
}

// healthHandler answers readiness/liveness checks. It never attaches a client,
// so probes do not create application runs.
func healthHandler(clients ClientRuns) http.HandlerFunc {
	counter, _ := clients.(clientCounter)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		resp := healthResponse{Status: "ok"}
		if counter != nil {
			n := counter.Len()
			resp.Clients = &n
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
