package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionCacheDriver selects where client sessions are cached between application loads.
type SessionCacheDriver string

const (
	SessionCacheRedis    SessionCacheDriver = "redis"
	SessionCachePostgres SessionCacheDriver = "postgres"
	SessionCacheMemory   SessionCacheDriver = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionCacheDriver.
func (d *SessionCacheDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "postgres", "memory":
		*d = SessionCacheDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionCacheDriver: %q (valid options: redis, postgres, memory)", v)
	}
}

// SessionCacheConfig controls the client session cache.
type SessionCacheConfig struct {
	Driver SessionCacheDriver `env:"DRIVER"     envDefault:"redis"`
	// TTL is how long a cached session survives without being rewritten.
	TTL       time.Duration `env:"TTL"        envDefault:"720h"`
	KeyPrefix string        `env:"KEY_PREFIX" envDefault:"client_session:"`
}

// Sanitize applies guardrails to session cache configuration values.
func (c *SessionCacheConfig) Sanitize() {
	if c.Driver == "" {
		c.Driver = SessionCacheRedis
	}
	if c.TTL <= 0 {
		c.TTL = 720 * time.Hour
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "client_session:"
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"jobboard"`
	Password string `env:"PASSWORD"                envDefault:"jobboard"`
	Name     string `env:"NAME"                    envDefault:"jobboard"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN returns the pgx connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
