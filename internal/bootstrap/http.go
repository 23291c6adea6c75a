package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/jobboard-ui-api/config"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	httpx "github.com/target/jobboard-ui-api/internal/http"
	"github.com/target/jobboard-ui-api/internal/service"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig, errCh chan<- error) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:  logger,
		Clients: cfg.Services.Clients,
		App:     appCfg,
	})

	return startServer(logger, handler, appCfg.HTTP.Addr, errCh)
}

type httpHandlerConfig struct {
	Logger  *slog.Logger
	Clients *service.ClientRegistry
	App     *config.AppConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	router := httpx.NewRouter(httpx.RouterServices{
		Clients: cfg.Clients,
		Paths:   guard.Paths{SignIn: cfg.App.Routes.SignInPath, Dashboard: cfg.App.Routes.DashboardPath},
		Cookie: httpx.ClientCookieConfig{
			Name:   cfg.App.Clients.CookieName,
			Domain: cfg.App.HTTP.CookieDomain,
			Secure: cfg.App.HTTP.CookieSecure,
		},
		Logger: cfg.Logger,
	})

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(cfg.Logger)(router)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Toggles wait for the backend, which is bounded by BACKEND_TIMEOUT (max 60s).
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(cfg.Context, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
