package config

import (
	"fmt"
	"strings"
	"time"
)

// BackendMode selects how the job-board backend is reached.
type BackendMode string

const (
	// BackendModeREST talks to the job-board REST backend over HTTP.
	BackendModeREST BackendMode = "rest"
	// BackendModeMock uses the in-process dev backend (for development only).
	BackendModeMock BackendMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for BackendMode.
func (b *BackendMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "rest", "mock":
		*b = BackendMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BackendMode: %q (valid options: rest, mock)", v)
	}
}

const (
	// DefaultBackendTimeout bounds each backend request when none is configured.
	DefaultBackendTimeout = 15 * time.Second
	minBackendTimeout     = time.Second
	maxBackendTimeout     = 60 * time.Second
)

// BackendConfig groups job-board backend configuration.
type BackendConfig struct {
	// Mode determines which backend implementation to use.
	Mode BackendMode `env:"MODE" envDefault:"rest"`

	// BaseURL is the root of the REST backend (e.g. "http://localhost:5000/api").
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5000"`

	// Timeout bounds each backend request. Clamped to [1s, 60s].
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// Mapping holds JMESPath expressions that extract session fields from backend payloads.
	Mapping BackendMappingConfig `envPrefix:"MAP_"`

	// Dev configures the mock backend (used when Mode=mock).
	Dev DevBackendConfig `envPrefix:"DEV_"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	switch {
	case b.Timeout <= 0:
		b.Timeout = DefaultBackendTimeout
	case b.Timeout < minBackendTimeout:
		b.Timeout = minBackendTimeout
	case b.Timeout > maxBackendTimeout:
		b.Timeout = maxBackendTimeout
	}
	if b.Mode == "" {
		b.Mode = BackendModeREST
	}
	b.Mapping.Sanitize()
}

// BackendMappingConfig contains JMESPath expressions evaluated against backend JSON responses.
type BackendMappingConfig struct {
	UserID    string `env:"USER_ID"    envDefault:"user._id || user.id || _id || id"`
	Role      string `env:"ROLE"       envDefault:"user.role || role"`
	Email     string `env:"EMAIL"      envDefault:"user.email || email"`
	Name      string `env:"NAME"       envDefault:"user.name || name"`
	AvatarURL string `env:"AVATAR_URL" envDefault:"user.avatar || avatar"`
	Saved     string `env:"SAVED"      envDefault:"not_null(user.saved, saved)"`
	Token     string `env:"TOKEN"      envDefault:"token || accessToken"`
	// Message extracts a human-readable error from failed responses.
	Message string `env:"MESSAGE" envDefault:"message || error || msg"`
}

// Sanitize trims whitespace around expressions.
func (m *BackendMappingConfig) Sanitize() {
	for _, p := range []*string{&m.UserID, &m.Role, &m.Email, &m.Name, &m.AvatarURL, &m.Saved, &m.Token, &m.Message} {
		*p = strings.TrimSpace(*p)
	}
}

// DevBackendConfig controls the mock backend identity.
// Used when BACKEND_MODE=mock for development and testing.
type DevBackendConfig struct {
	UserID   string `env:"USER_ID"  envDefault:"dev-user"`
	Email    string `env:"EMAIL"    envDefault:"dev@example.com"`
	Password string `env:"PASSWORD" envDefault:"dev"`
	Name     string `env:"NAME"     envDefault:"Dev User"`
	// Role is the role of the dev user. Any value is accepted so misconfigured accounts can be reproduced.
	Role  string   `env:"ROLE"  envDefault:"jobseeker"`
	Saved []string `env:"SAVED" envDefault:""          envSeparator:","`
	// FailSaves makes every saved-list update fail, for exercising rollbacks.
	FailSaves bool `env:"FAIL_SAVES" envDefault:"false"`
	// Latency is added to every mock backend call.
	Latency time.Duration `env:"LATENCY" envDefault:"0s"`
}
