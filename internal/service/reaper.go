package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobboard-ui-api/config"
	obserrors "github.com/target/jobboard-ui-api/internal/observability/errors"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// IdleSweeper closes application runs that have been idle for too long.
type IdleSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Clients IdleSweeper                // Required: live application runs
	Purger  ports.ExpiredSessionPurger // Optional: cache without native expiry
	Config  ReaperServiceConfig
}

// ReaperServiceConfig holds the reaper schedule and ambient dependencies.
type ReaperServiceConfig struct {
	Reaper  config.ReaperConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// ReaperService periodically releases idle client runs and expired cached sessions.
type ReaperService struct {
	clients IdleSweeper
	purger  ports.ExpiredSessionPurger
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Clients == nil {
		return nil, errors.New("IdleSweeper is required")
	}
	if opts.Config.Reaper.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}

	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"interval", opts.Config.Reaper.Interval,
		"purge_expired", opts.Purger != nil,
	)

	return &ReaperService{
		clients: opts.Clients,
		purger:  opts.Purger,
		config:  opts.Config.Reaper,
		logger:  logger,
		metrics: opts.Config.Metrics,
		now:     time.Now,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "reaper cleanup failed",
					"error", err,
					"error_class", obserrors.Classify(err),
				)
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval so replicas do not sweep in lockstep.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// RunOnce performs one cleanup pass. Every step runs even if an earlier one fails.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	start := s.now()
	var errs []error

	closed, err := s.clients.Sweep(ctx, start)
	if err != nil {
		errs = append(errs, fmt.Errorf("close idle clients: %w", err))
	}
	if closed > 0 {
		s.logger.InfoContext(ctx, "closed idle client runs", "count", closed)
	}

	var purged int64
	if s.purger != nil {
		purged, err = s.purger.PurgeExpired(ctx, start)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge expired sessions: %w", err))
		}
		if purged > 0 {
			s.logger.InfoContext(ctx, "purged expired cached sessions", "count", purged)
		}
	}

	s.emitMetrics(closed, purged, s.now().Sub(start), errors.Join(errs...))

	if len(errs) > 0 {
		return fmt.Errorf("cleanup failed: %w", errors.Join(errs...))
	}
	return nil
}

func (s *ReaperService) emitMetrics(closed int, purged int64, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	tags := map[string]string{"result": result}
	s.metrics.Count("reaper.clients_closed", int64(closed), tags)
	s.metrics.Count("reaper.sessions_purged", purged, tags)
	s.metrics.Timing("reaper.duration", elapsed, tags)
}
