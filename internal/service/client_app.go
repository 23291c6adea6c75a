package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// DefaultCacheTimeout bounds session cache reads and writes.
const DefaultCacheTimeout = 5 * time.Second

// ErrRunClosed is returned by actions started on a run that has already been closed.
var ErrRunClosed = errors.New("application run closed")

// ClientAppConfig holds settings shared by every application run.
type ClientAppConfig struct {
	BackendTimeout time.Duration
	CacheTimeout   time.Duration
	Paths          guard.Paths
	NoticeCapacity int
	Logger         *slog.Logger
	Metrics        statsd.Sink
}

// ClientAppOptions groups dependencies for a ClientApp.
type ClientAppOptions struct {
	API    ports.JobBoardAPI  // Required
	Cache  ports.SessionCache // Required
	Config ClientAppConfig
}

// ClientApp is one application run of one browser: its session store, the one-shot
// validator, the saved-jobs mutator, the sign-in/out actions and pending notices.
type ClientApp struct {
	ClientID string
	RunID    string

	Store     *SessionStore
	Validator *SessionValidator
	SavedJobs *SavedJobs
	Auth      *AuthService
	Notices   *NoticeQueue
	Paths     guard.Paths

	cache          ports.SessionCache
	cacheTimeout   time.Duration
	backendTimeout time.Duration
	logger         *slog.Logger

	lastSeen    atomic.Int64
	unsubscribe func()
	persisted   chan struct{}

	runMu     sync.Mutex
	closing   bool
	active    sync.WaitGroup
	closeOnce sync.Once
	closed    chan struct{}
}

// NewClientApp starts a new application run for clientID: the cached session (if any) is
// loaded, changes are persisted back to the cache, and the remote validation is started.
func NewClientApp(ctx context.Context, clientID string, opts ClientAppOptions) (*ClientApp, error) {
	if clientID == "" {
		return nil, errors.New("client ID is required")
	}
	if opts.API == nil {
		panic("JobBoardAPI is required")
	}
	if opts.Cache == nil {
		panic("SessionCache is required")
	}

	cfg := opts.Config
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = DefaultCacheTimeout
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = DefaultBackendTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	runID := uuid.NewString()
	logger := cfg.Logger.With("client_id", clientID, "run_id", runID)

	app := &ClientApp{
		ClientID:       clientID,
		RunID:          runID,
		Notices:        NewNoticeQueue(cfg.NoticeCapacity),
		Paths:          cfg.Paths,
		cache:          opts.Cache,
		cacheTimeout:   cfg.CacheTimeout,
		backendTimeout: cfg.BackendTimeout,
		logger:         logger,
		persisted:      make(chan struct{}),
		closed:         make(chan struct{}),
	}
	app.Touch(time.Now())

	app.Store = NewSessionStore(app.loadCached(ctx))
	app.Validator = NewSessionValidator(SessionValidatorOptions{
		Store:  app.Store,
		API:    opts.API,
		Config: SessionValidatorConfig{Timeout: cfg.BackendTimeout, Logger: logger, Metrics: cfg.Metrics},
	})
	app.SavedJobs = NewSavedJobs(SavedJobsOptions{
		Store:    app.Store,
		API:      opts.API,
		Notifier: app.Notices,
		Config:   SavedJobsConfig{Timeout: cfg.BackendTimeout, Logger: logger, Metrics: cfg.Metrics},
	})
	app.Auth = NewAuthService(AuthServiceOptions{
		Store:  app.Store,
		API:    opts.API,
		Config: AuthServiceConfig{Timeout: cfg.BackendTimeout, SignInPath: cfg.Paths.SignIn, Logger: logger},
	})

	changes, unsubscribe := app.Store.Subscribe()
	app.unsubscribe = unsubscribe
	go app.persistLoop(changes)

	app.Validator.Start(ctx)
	logger.DebugContext(ctx, "application run started", "cached_session", app.Store.Present())

	return app, nil
}

func (a *ClientApp) loadCached(ctx context.Context) *domainauth.Session {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cacheTimeout)
	defer cancel()

	sess, err := a.cache.Load(ctx, a.ClientID)
	switch {
	case err == nil:
		return &sess
	case errors.Is(err, ports.ErrSessionNotCached):
		return nil
	default:
		a.logger.WarnContext(ctx, "failed to load cached session; starting signed out", "error", err)
		return nil
	}
}

// persistLoop writes the latest session to the cache after every change until unsubscribed.
func (a *ClientApp) persistLoop(changes <-chan struct{}) {
	defer close(a.persisted)
	for range changes {
		a.persist()
	}
}

func (a *ClientApp) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cacheTimeout)
	defer cancel()

	sess := a.Store.Current()
	var err error
	if sess == nil {
		err = a.cache.Delete(ctx, a.ClientID)
	} else {
		err = a.cache.Save(ctx, a.ClientID, *sess)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "failed to persist session", "error", err, "present", sess != nil)
	}
}

// Touch records activity at t.
func (a *ClientApp) Touch(t time.Time) { a.lastSeen.Store(t.UnixNano()) }

// LastSeen returns the time of the last recorded activity.
func (a *ClientApp) LastSeen() time.Time { return time.Unix(0, a.lastSeen.Load()) }

// enter admits one action into the run. Every successful enter must be paired with a.active.Done.
func (a *ClientApp) enter() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.closing {
		return ErrRunClosed
	}
	a.active.Add(1)
	return nil
}

// Toggle flips the saved membership of jobID on this run. See SavedJobs.Toggle.
func (a *ClientApp) Toggle(ctx context.Context, jobID string) (<-chan ToggleResult, error) {
	if err := a.enter(); err != nil {
		return nil, err
	}
	defer a.active.Done()
	return a.SavedJobs.Toggle(ctx, jobID)
}

// SignIn signs the client in on this run. The run's validation shares the backend session
// with the login, so it is allowed to finish first, for at most the backend timeout.
func (a *ClientApp) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Session, error) {
	if err := a.enter(); err != nil {
		return domainauth.Session{}, err
	}
	defer a.active.Done()

	waitCtx, cancel := context.WithTimeout(ctx, a.backendTimeout)
	outcome := a.Validator.Wait(waitCtx)
	cancel()
	if outcome == ValidationPending {
		a.logger.WarnContext(ctx, "signing in before session validation finished")
	}
	return a.Auth.SignIn(ctx, creds)
}

// SignOut signs the client out on this run and returns the sign-in path.
func (a *ClientApp) SignOut(ctx context.Context) (string, error) {
	if err := a.enter(); err != nil {
		return "", err
	}
	defer a.active.Done()
	return a.Auth.SignOut(ctx), nil
}

// Closed is closed once Close has finished.
func (a *ClientApp) Closed() <-chan struct{} { return a.closed }

// Close ends the run: new actions are refused, then it waits (bounded by ctx) for the
// validation, running actions and in-flight toggles, and flushes the final session to
// the cache. It is safe to call more than once.
func (a *ClientApp) Close(ctx context.Context) error {
	var err error
	a.closeOnce.Do(func() {
		defer close(a.closed)

		a.runMu.Lock()
		a.closing = true
		a.runMu.Unlock()

		select {
		case <-a.Validator.Done():
		case <-ctx.Done():
		}

		// SavedJobs only gains toggles inside an action.
		if err = waitFor(ctx, a.active.Wait); err == nil {
			err = waitFor(ctx, a.SavedJobs.Wait)
		}

		a.unsubscribe()
		select {
		case <-a.persisted:
		case <-ctx.Done():
			err = ctx.Err()
		}
		a.logger.DebugContext(ctx, "application run closed")
	})
	return err
}

// waitFor blocks until wait returns or ctx ends.
func waitFor(ctx context.Context, wait func()) error {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
