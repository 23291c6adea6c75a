package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/jobboard-ui-api/internal/domain/guard"
)

// RegisterPath serves the registration view. Sign-in and dashboard paths are configurable.
const RegisterPath = "/register"

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Clients ClientRuns
	Paths   guard.Paths
	Cookie  ClientCookieConfig
	Logger  *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router with browser detection applied.
func NewRouter(services RouterServices) http.Handler {
	if services.Clients == nil {
		panic("ClientRuns is required")
	}
	paths := services.Paths
	if paths.SignIn == "" || paths.Dashboard == "" {
		def := guard.DefaultPaths()
		if paths.SignIn == "" {
			paths.SignIn = def.SignIn
		}
		if paths.Dashboard == "" {
			paths.Dashboard = def.Dashboard
		}
	}

	h := &SessionHandlers{Clients: services.Clients, Paths: paths, Logger: services.Logger}
	withClient := ClientID(services.Cookie)

	mux := http.NewServeMux()
	health := healthHandler(services.Clients)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	registerSessionRoutes(mux, h, withClient)
	registerViewRoutes(mux, h, withClient)

	mux.HandleFunc("/", notFoundHandler)

	return BrowserDetection()(mux)
}

func registerSessionRoutes(mux *http.ServeMux, h *SessionHandlers, withClient func(http.Handler) http.Handler) {
	mux.Handle("POST /api/app/load", withClient(http.HandlerFunc(h.Load)))
	mux.Handle("GET /api/session", withClient(http.HandlerFunc(h.Session)))
	mux.Handle("GET /api/guard", withClient(http.HandlerFunc(h.Guard)))
	mux.Handle("GET /api/notices", withClient(http.HandlerFunc(h.Notices)))
	mux.Handle("POST /api/saved/{jobID}/toggle", withClient(h.guarded(guard.RequireAuth, h.ToggleSaved)))
	mux.Handle("POST /auth/login", withClient(h.guarded(guard.GuestOnly, h.Login)))
	mux.Handle("POST /auth/logout", withClient(http.HandlerFunc(h.Logout)))
}

func registerViewRoutes(mux *http.ServeMux, h *SessionHandlers, withClient func(http.Handler) http.Handler) {
	mux.Handle("GET "+h.Paths.SignIn, withClient(h.guarded(guard.GuestOnly, renderView(ViewSignIn))))
	mux.Handle("GET "+RegisterPath, withClient(h.guarded(guard.GuestOnly, renderView(ViewRegister))))
	mux.Handle("GET "+h.Paths.Dashboard, withClient(h.guarded(guard.RequireAuth, h.Dashboard)))
	mux.Handle("GET /saved", withClient(h.guarded(guard.RequireAuth, h.Saved)))
	mux.Handle("GET /jobs", withClient(h.guarded(guard.Public, renderView(ViewJobs))))
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
}
