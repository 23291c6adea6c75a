package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for the client cookie.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks the client cookie Secure. Forced off in dev mode by bootstrap.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"true"`

	// ShutdownTimeout bounds graceful shutdown of the server and client runs.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.CookieDomain = strings.TrimSpace(h.CookieDomain)
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30 * time.Second
	}
}

// RoutesConfig names the redirect targets used by the route guard.
type RoutesConfig struct {
	SignInPath    string `env:"SIGNIN_PATH"    envDefault:"/SignIn"`
	DashboardPath string `env:"DASHBOARD_PATH" envDefault:"/dashboard"`
}

// Sanitize ensures both paths are absolute, falling back to the defaults.
func (r *RoutesConfig) Sanitize() {
	r.SignInPath = sanitizePath(r.SignInPath, "/SignIn")
	r.DashboardPath = sanitizePath(r.DashboardPath, "/dashboard")
}

func sanitizePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return fallback
	}
	return p
}
