package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/domain/guard"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// AuthServiceConfig holds the optional knobs of AuthService.
type AuthServiceConfig struct {
	Timeout    time.Duration
	SignInPath string
	Logger     *slog.Logger
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Store  *SessionStore     // Required
	API    ports.JobBoardAPI // Required
	Config AuthServiceConfig
}

// AuthService performs the sign-in and sign-out actions of one client application run.
type AuthService struct {
	store      *SessionStore
	api        ports.JobBoardAPI
	timeout    time.Duration
	signInPath string
	logger     *slog.Logger
}

// ErrAlreadySignedIn is returned by SignIn when a session is already present.
var ErrAlreadySignedIn = errors.New("already signed in")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Store == nil {
		panic("SessionStore is required")
	}
	if opts.API == nil {
		panic("JobBoardAPI is required")
	}

	cfg := opts.Config
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBackendTimeout
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = guard.DefaultSignInPath
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &AuthService{
		store:      opts.Store,
		api:        opts.API,
		timeout:    cfg.Timeout,
		signInPath: cfg.SignInPath,
		logger:     cfg.Logger.With("component", "auth"),
	}
}

// SignIn authenticates against the backend and installs the resulting session.
// Backend rejections come back as *errors.AppError carrying the backend's message.
func (s *AuthService) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		return domainauth.Session{}, apperrors.ValidationField("email", "email is required")
	}
	if creds.Password == "" {
		return domainauth.Session{}, apperrors.ValidationField("password", "password is required")
	}
	if s.store.Present() {
		return domainauth.Session{}, ErrAlreadySignedIn
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	acct, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.InfoContext(ctx, "sign in rejected", "error", err)
		return domainauth.Session{}, fmt.Errorf("sign in: %w", err)
	}
	if acct.UserID == "" {
		return domainauth.Session{}, apperrors.Unavailable("sign in response did not identify a user")
	}

	sess := acct.Session()
	s.store.Set(sess)
	s.logger.InfoContext(ctx, "user signed in", "user_id", sess.UserID, "role", string(sess.Role))

	return sess.Clone(), nil
}

// SignOut ends the session. The remote logout is best effort; the local session is
// always cleared and the sign-in path is returned.
func (s *AuthService) SignOut(ctx context.Context) string {
	sess := s.store.Current()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var token, userID string
	if sess != nil {
		token, userID = sess.Token, sess.UserID
	}
	if err := s.api.Logout(callCtx, token); err != nil {
		s.logger.WarnContext(ctx, "remote logout failed; clearing local session anyway", "user_id", userID, "error", err)
	}

	s.store.Clear()
	if sess != nil {
		s.logger.InfoContext(ctx, "user signed out", "user_id", userID)
	}
	return s.signInPath
}
