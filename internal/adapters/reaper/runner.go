// Package reaper provides adapters for running the client reaper.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/jobboard-ui-api/config"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
	"github.com/target/jobboard-ui-api/internal/service"
)

// Runner provides a simple adapter to run the reaper loop.
// It constructs the reaper service and runs the cleanup loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Clients service.IdleSweeper
	Config  config.ReaperConfig
	Logger  *slog.Logger

	// Optional: set when the session cache has no native key expiry.
	Purger  ports.ExpiredSessionPurger
	Metrics statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Clients == nil {
		return nil, errors.New("client registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Clients: opts.Clients,
		Purger:  opts.Purger,
		Config: service.ReaperServiceConfig{
			Reaper:  opts.Config,
			Logger:  opts.Logger,
			Metrics: opts.Metrics,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: opts.Logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}

// RunOnce performs a single cleanup pass.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.reaper.RunOnce(ctx)
}
