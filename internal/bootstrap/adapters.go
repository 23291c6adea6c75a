package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/jobboard-ui-api/config"
	"github.com/target/jobboard-ui-api/internal/adapters/reaper"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
	"github.com/target/jobboard-ui-api/internal/service"
)

// ReaperConfig contains configuration for reaper.
type ReaperConfig struct {
	Clients service.IdleSweeper
	Purger  ports.ExpiredSessionPurger
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics statsd.Sink
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		Clients: cfg.Clients,
		Purger:  cfg.Purger,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
