package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	obserrors "github.com/target/jobboard-ui-api/internal/observability/errors"
	"github.com/target/jobboard-ui-api/internal/observability/metrics"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// ValidationOutcome records how the single remote validation of a run ended.
type ValidationOutcome string

const (
	ValidationPending   ValidationOutcome = "pending"
	ValidationKept      ValidationOutcome = "kept"
	ValidationCleared   ValidationOutcome = "cleared"
	ValidationAnonymous ValidationOutcome = "anonymous"
)

// DefaultBackendTimeout bounds every backend call when no timeout is configured.
const DefaultBackendTimeout = 15 * time.Second

// SessionValidatorConfig holds the optional knobs of a SessionValidator.
type SessionValidatorConfig struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// SessionValidatorOptions groups dependencies for SessionValidator.
type SessionValidatorOptions struct {
	Store  *SessionStore     // Required
	API    ports.JobBoardAPI // Required
	Config SessionValidatorConfig
}

// SessionValidator re-checks a cached session against the backend once per application run.
// Any failure clears the session.
type SessionValidator struct {
	store   *SessionStore
	api     ports.JobBoardAPI
	timeout time.Duration
	logger  *slog.Logger
	metrics statsd.Sink

	once    sync.Once
	done    chan struct{}
	mu      sync.RWMutex
	outcome ValidationOutcome
}

// NewSessionValidator constructs a SessionValidator.
func NewSessionValidator(opts SessionValidatorOptions) *SessionValidator {
	if opts.Store == nil {
		panic("SessionStore is required")
	}
	if opts.API == nil {
		panic("JobBoardAPI is required")
	}

	timeout := opts.Config.Timeout
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionValidator{
		store:   opts.Store,
		api:     opts.API,
		timeout: timeout,
		logger:  logger.With("component", "session_validator"),
		metrics: opts.Config.Metrics,
		done:    make(chan struct{}),
		outcome: ValidationPending,
	}
}

// Start launches the validation in the background. Only the first call has any effect.
// The run is detached from ctx cancellation but keeps its values.
func (v *SessionValidator) Start(ctx context.Context) {
	v.once.Do(func() {
		go func() {
			defer close(v.done)
			v.setOutcome(v.validate(context.WithoutCancel(ctx)))
		}()
	})
}

// Done is closed once validation has finished.
func (v *SessionValidator) Done() <-chan struct{} { return v.done }

// Wait blocks until validation finishes or ctx ends and returns the outcome known at that point.
func (v *SessionValidator) Wait(ctx context.Context) ValidationOutcome {
	select {
	case <-v.done:
	case <-ctx.Done():
	}
	return v.Outcome()
}

// Outcome returns the current validation outcome.
func (v *SessionValidator) Outcome() ValidationOutcome {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.outcome
}

func (v *SessionValidator) setOutcome(o ValidationOutcome) {
	v.mu.Lock()
	v.outcome = o
	v.mu.Unlock()
}

func (v *SessionValidator) validate(ctx context.Context) ValidationOutcome {
	start := time.Now()
	sess := v.store.Current()

	var outcome ValidationOutcome
	if sess == nil {
		v.logoutAnonymous(ctx)
		outcome = ValidationAnonymous
	} else {
		outcome = v.checkSession(ctx, *sess)
	}

	metrics.EmitValidation(v.metrics, string(outcome), time.Since(start))
	return outcome
}

// logoutAnonymous tells the backend to drop any lingering server session. Failures are ignored.
func (v *SessionValidator) logoutAnonymous(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if err := v.api.Logout(ctx, ""); err != nil {
		v.logger.WarnContext(ctx, "anonymous logout failed", "error", err, "error_class", obserrors.Classify(err))
	}
}

func (v *SessionValidator) checkSession(ctx context.Context, sess domainauth.Session) ValidationOutcome {
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	acct, err := v.api.Me(callCtx, sess.UserID, sess.Token)
	if err != nil {
		v.logger.InfoContext(ctx, "session rejected by backend; clearing",
			"user_id", sess.UserID,
			"error", err,
			"error_class", obserrors.Classify(err),
		)
		return v.clear(sess.UserID)
	}

	if acct.UserID != "" && acct.UserID != sess.UserID {
		v.logger.WarnContext(ctx, "backend returned a different user; clearing",
			"user_id", sess.UserID,
			"backend_user_id", acct.UserID,
		)
		return v.clear(sess.UserID)
	}
	if acct.Role != "" && acct.Role != sess.Role {
		v.logger.WarnContext(ctx, "role changed since sign-in; clearing",
			"user_id", sess.UserID,
			"role", string(sess.Role),
			"backend_role", string(acct.Role),
		)
		return v.clear(sess.UserID)
	}

	if !v.store.replaceIfUser(sess.UserID, func(cur domainauth.Session) domainauth.Session {
		return refreshSession(cur, acct)
	}) {
		// Replaced or cleared during the check.
		return ValidationCleared
	}
	return ValidationKept
}

func (v *SessionValidator) clear(userID string) ValidationOutcome {
	v.store.clearIfUser(userID)
	return ValidationCleared
}

// refreshSession merges server-provided profile fields into cur. The role is never changed.
func refreshSession(cur domainauth.Session, acct ports.Account) domainauth.Session {
	if acct.Email != "" {
		cur.Email = acct.Email
	}
	if acct.Name != "" {
		cur.Name = acct.Name
	}
	if acct.AvatarURL != "" {
		cur.AvatarURL = acct.AvatarURL
	}
	if acct.Saved != nil {
		cur.Saved = acct.Saved
	}
	if acct.Token != "" {
		cur.Token = acct.Token
	}
	return cur
}
