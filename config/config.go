package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Job-board backend and dev backend configuration
//   - database.go: Session cache, database and Redis configuration
//   - http.go: HTTP server and route configuration
//   - services.go: Service mode, client run and reaper configuration
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, insecure cookies).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Backend configuration
	Backend BackendConfig `envPrefix:"BACKEND_"`

	// Session cache and storage configuration
	SessionCache SessionCacheConfig `envPrefix:"SESSION_CACHE_"`
	Postgres     DBConfig           `envPrefix:"DB_"`
	Redis        RedisConfig        `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP   HTTPConfig
	Routes RoutesConfig `envPrefix:"ROUTE_"`

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http,reaper"`

	// Client application run configuration
	Clients ClientsConfig `envPrefix:"CLIENT_"`

	// Reaper configuration
	Reaper ReaperConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Backend.Sanitize()
	c.SessionCache.Sanitize()
	c.HTTP.Sanitize()
	c.Routes.Sanitize()
	c.Clients.Sanitize()
	c.Reaper.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReaper]
}
