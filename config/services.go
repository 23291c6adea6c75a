package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReaper runs the idle client and expired session reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeReaper}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, reaper)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ClientsConfig controls per-browser application runs.
type ClientsConfig struct {
	// CookieName is the cookie carrying the client id.
	CookieName string `env:"COOKIE_NAME" envDefault:"jb_client"`

	// IdleTTL is how long an application run stays in memory without requests.
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"30m"`

	// NoticeCapacity bounds pending notices per client.
	NoticeCapacity int `env:"NOTICE_CAPACITY" envDefault:"20"`
}

// Sanitize applies guardrails to client configuration values.
func (c *ClientsConfig) Sanitize() {
	if c.CookieName = strings.TrimSpace(c.CookieName); c.CookieName == "" {
		c.CookieName = "jb_client"
	}
	if c.IdleTTL < time.Minute {
		c.IdleTTL = time.Minute
	}
	if c.NoticeCapacity < 1 {
		c.NoticeCapacity = 20
	}
}

// ReaperConfig contains reaper service configuration.
type ReaperConfig struct {
	// Interval is how often idle client runs are closed and expired cached sessions purged.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1m"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Second {
		r.Interval = time.Minute
	}
}
