package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/target/jobboard-ui-api/internal/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultClientIdleTTL is how long an application run may stay idle before it is swept.
const DefaultClientIdleTTL = 30 * time.Minute

// ErrRegistryClosed is returned by Attach and Reload after Close.
var ErrRegistryClosed = errors.New("client registry closed")

// ClientRegistryConfig holds registry settings.
type ClientRegistryConfig struct {
	IdleTTL time.Duration
	App     ClientAppConfig
}

// ClientRegistryOptions groups dependencies for ClientRegistry.
type ClientRegistryOptions struct {
	APIs   ports.JobBoardAPIFactory // Required
	Cache  ports.SessionCache       // Required
	Config ClientRegistryConfig
}

// ClientRegistry owns the live application run of every client.
type ClientRegistry struct {
	apis    ports.JobBoardAPIFactory
	cache   ports.SessionCache
	idleTTL time.Duration
	appCfg  ClientAppConfig
	logger  *slog.Logger

	mu       sync.Mutex
	apps     map[string]*ClientApp
	retiring map[string]*ClientApp
	closed   bool
	loads    singleflight.Group
}

// NewClientRegistry constructs a ClientRegistry.
func NewClientRegistry(opts ClientRegistryOptions) *ClientRegistry {
	if opts.APIs == nil {
		panic("JobBoardAPIFactory is required")
	}
	if opts.Cache == nil {
		panic("SessionCache is required")
	}

	idle := opts.Config.IdleTTL
	if idle <= 0 {
		idle = DefaultClientIdleTTL
	}
	logger := opts.Config.App.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ClientRegistry{
		apis:    opts.APIs,
		cache:   opts.Cache,
		idleTTL: idle,
		appCfg:  opts.Config.App,
		logger:  logger.With("component", "client_registry"),
		apps:     make(map[string]*ClientApp),
		retiring: make(map[string]*ClientApp),
	}
}

// Attach returns the live application run of clientID, starting one if none exists.
// Concurrent attaches for the same client share a single load.
func (r *ClientRegistry) Attach(ctx context.Context, clientID string) (*ClientApp, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if app, ok := r.apps[clientID]; ok {
		app.Touch(time.Now())
		r.mu.Unlock()
		return app, nil
	}
	r.mu.Unlock()

	return r.load(ctx, clientID)
}

// Reload ends the client's current run, if any, and starts a fresh one.
func (r *ClientRegistry) Reload(ctx context.Context, clientID string) (*ClientApp, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	old := r.apps[clientID]
	delete(r.apps, clientID)
	if old != nil {
		r.retiring[clientID] = old
	}
	r.mu.Unlock()

	if old != nil {
		if err := r.retire(ctx, old); err != nil {
			r.logger.WarnContext(ctx, "previous run did not close cleanly", "client_id", clientID, "error", err)
		}
	}
	return r.load(ctx, clientID)
}

func (r *ClientRegistry) load(ctx context.Context, clientID string) (*ClientApp, error) {
	v, err, _ := r.loads.Do(clientID, func() (any, error) {
		r.mu.Lock()
		if app, ok := r.apps[clientID]; ok {
			r.mu.Unlock()
			return app, nil
		}
		prev := r.retiring[clientID]
		r.mu.Unlock()

		// The new run starts from the cache, so the retiring run's final flush must land first.
		if prev != nil {
			select {
			case <-prev.Closed():
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		api, err := r.apis.ForClient(clientID)
		if err != nil {
			return nil, fmt.Errorf("backend client: %w", err)
		}
		app, err := NewClientApp(context.WithoutCancel(ctx), clientID, ClientAppOptions{
			API:    api,
			Cache:  r.cache,
			Config: r.appCfg,
		})
		if err != nil {
			return nil, fmt.Errorf("start application run: %w", err)
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, errors.Join(ErrRegistryClosed, app.Close(context.WithoutCancel(ctx)))
		}
		r.apps[clientID] = app
		r.mu.Unlock()
		return app, nil
	})
	if err != nil {
		return nil, err
	}

	app, ok := v.(*ClientApp)
	if !ok {
		return nil, errors.New("unexpected application run type")
	}
	r.mu.Lock()
	app.Touch(time.Now())
	r.mu.Unlock()
	return app, nil
}

// Len returns the number of live application runs.
func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// Sweep closes runs idle since before now minus the idle TTL and returns how many were closed.
func (r *ClientRegistry) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*ClientApp
	for id, app := range r.apps {
		if app.LastSeen().Before(cutoff) {
			idle = append(idle, app)
			delete(r.apps, id)
			r.retiring[id] = app
		}
	}
	r.mu.Unlock()

	return len(idle), r.retire(ctx, idle...)
}

// Close closes every run and rejects further attaches.
func (r *ClientRegistry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	apps := make([]*ClientApp, 0, len(r.apps))
	for _, app := range r.apps {
		apps = append(apps, app)
	}
	clear(r.apps)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "closing client registry", "runs", len(apps))
	return closeAll(ctx, apps)
}

// retire closes runs already removed from r.apps and forgets them once closed.
func (r *ClientRegistry) retire(ctx context.Context, apps ...*ClientApp) error {
	err := closeAll(ctx, apps)

	r.mu.Lock()
	for _, app := range apps {
		if r.retiring[app.ClientID] == app {
			delete(r.retiring, app.ClientID)
		}
	}
	r.mu.Unlock()
	return err
}

func closeAll(ctx context.Context, apps []*ClientApp) error {
	var g errgroup.Group
	g.SetLimit(16)
	for _, app := range apps {
		g.Go(func() error {
			if err := app.Close(ctx); err != nil {
				return fmt.Errorf("close client %s: %w", app.ClientID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
