package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/jobboard-ui-api/config"
	"github.com/target/jobboard-ui-api/internal/adapters/devbackend"
	"github.com/target/jobboard-ui-api/internal/adapters/jobboardapi"
	redisadapter "github.com/target/jobboard-ui-api/internal/adapters/redis"
	"github.com/target/jobboard-ui-api/internal/data"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
	"github.com/target/jobboard-ui-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Clients *service.ClientRegistry
	Cache   ports.SessionCache
	// Purger is set for caches without native key expiry.
	Purger        ports.ExpiredSessionPurger
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Sink returns the metrics sink, or nil when metrics are disabled.
//
//nolint:ireturn // a nil interface keeps "metrics disabled" checks simple for callers.
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB               // set when SESSION_CACHE_DRIVER=postgres
	RedisClient redis.UniversalClient // set when SESSION_CACHE_DRIVER=redis
	Logger      *slog.Logger
	// Transport overrides the backend HTTP transport (optional).
	Transport http.RoundTripper
}

// buildObservability configures the metrics adapter.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

type sessionCacheBundle struct {
	cache  ports.SessionCache
	purger ports.ExpiredSessionPurger
}

// newSessionCache selects the session cache implementation for the configured driver.
func newSessionCache(deps *ServiceDeps) (sessionCacheBundle, error) {
	cfg := deps.Config.SessionCache
	switch cfg.Driver {
	case config.SessionCachePostgres:
		if deps.DB == nil {
			return sessionCacheBundle{}, errors.New("postgres session cache requires a database connection")
		}
		repo := data.NewClientSessionRepo(data.ClientSessionRepoOptions{DB: deps.DB, TTL: cfg.TTL})
		return sessionCacheBundle{cache: repo, purger: repo}, nil
	case config.SessionCacheMemory:
		mem := data.NewMemorySessionCache(cfg.TTL, nil)
		return sessionCacheBundle{cache: mem, purger: mem}, nil
	default:
		if deps.RedisClient == nil {
			return sessionCacheBundle{}, errors.New("redis session cache requires a redis client")
		}
		return sessionCacheBundle{cache: redisadapter.NewSessionCache(redisadapter.SessionCacheOptions{
			Client: deps.RedisClient,
			Prefix: cfg.KeyPrefix,
			TTL:    cfg.TTL,
		})}, nil
	}
}

// newBackendFactory builds the per-client job-board API for the configured backend mode.
//
//nolint:ireturn // the backend implementation is chosen at runtime.
func newBackendFactory(deps *ServiceDeps, metrics statsd.Sink) (ports.JobBoardAPIFactory, error) {
	cfg := deps.Config.Backend
	if cfg.Mode == config.BackendModeMock {
		deps.Logger.Warn("using in-process mock job-board backend; do not run in production",
			"user_id", cfg.Dev.UserID,
			"role", cfg.Dev.Role,
			"fail_saves", cfg.Dev.FailSaves,
		)
		backend, err := devbackend.New(devbackend.Config{
			UserID:    cfg.Dev.UserID,
			Email:     cfg.Dev.Email,
			Password:  cfg.Dev.Password,
			Name:      cfg.Dev.Name,
			Role:      cfg.Dev.Role,
			Saved:     cfg.Dev.Saved,
			FailSaves: cfg.Dev.FailSaves,
			Latency:   cfg.Dev.Latency,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev backend: %w", err)
		}
		return backend, nil
	}

	mapping, err := jobboardapi.CompileMapping(cfg.Mapping)
	if err != nil {
		return nil, fmt.Errorf("compile backend mapping: %w", err)
	}
	factory, err := jobboardapi.NewFactory(jobboardapi.FactoryOptions{
		Transport: deps.Transport,
		Config: jobboardapi.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Mapping: mapping,
			Logger:  deps.Logger,
			Metrics: metrics,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	return factory, nil
}

// NewServices wires the session cache, the backend and the client registry.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cfg := deps.Config

	obs := buildObservability(deps.Logger, cfg.Observability)

	caches, err := newSessionCache(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	apis, err := newBackendFactory(deps, obs.Sink())
	if err != nil {
		return ServiceContainer{}, err
	}

	registry := service.NewClientRegistry(service.ClientRegistryOptions{
		APIs:  apis,
		Cache: caches.cache,
		Config: service.ClientRegistryConfig{
			IdleTTL: cfg.Clients.IdleTTL,
			App: service.ClientAppConfig{
				BackendTimeout: cfg.Backend.Timeout,
				CacheTimeout:   service.DefaultCacheTimeout,
				Paths:          guard.Paths{SignIn: cfg.Routes.SignInPath, Dashboard: cfg.Routes.DashboardPath},
				NoticeCapacity: cfg.Clients.NoticeCapacity,
				Logger:         deps.Logger,
				Metrics:        obs.Sink(),
			},
		},
	})

	deps.Logger.Info("services initialised",
		"session_cache", string(cfg.SessionCache.Driver),
		"backend_mode", string(cfg.Backend.Mode),
		"client_idle_ttl", cfg.Clients.IdleTTL.String(),
		"metrics_enabled", obs.MetricsSink != nil,
	)

	return ServiceContainer{
		Clients:       registry,
		Cache:         caches.cache,
		Purger:        caches.purger,
		Observability: obs,
	}, nil
}

const (
	// shutdownWaitTimeout is the maximum time to wait for background services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)
