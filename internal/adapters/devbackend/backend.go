// Package devbackend provides an in-process job-board backend for local development.
package devbackend

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// Config controls the dev backend identity and behavior.
// UserID, Email and Password are required.
type Config struct {
	UserID   string
	Email    string
	Password string
	Name     string
	// Role is not validated so misconfigured accounts can be reproduced locally.
	Role  string
	Saved []string
	// FailSaves makes every UpdateSaved call fail with an unavailable error.
	FailSaves bool
	// Latency delays every call.
	Latency time.Duration
}

// Backend implements ports.JobBoardAPI with a single configured account.
// Every client shares the same backend state, like a real server would.
type Backend struct {
	cfg Config

	mu     sync.Mutex
	saved  []string
	tokens map[string]struct{}
}

var (
	_ ports.JobBoardAPI        = (*Backend)(nil)
	_ ports.JobBoardAPIFactory = (*Backend)(nil)
)

// New constructs a dev backend from Config.
func New(cfg Config) (*Backend, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev backend: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev backend: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev backend: Password is required")
	}
	return &Backend{
		cfg:    cfg,
		saved:  domainauth.UniqueIDs(cfg.Saved),
		tokens: make(map[string]struct{}),
	}, nil
}

// ForClient returns the shared backend.
func (b *Backend) ForClient(string) (ports.JobBoardAPI, error) { return b, nil }

// Login accepts only the configured email (case-insensitive) and password.
func (b *Backend) Login(ctx context.Context, creds domainauth.Credentials) (ports.Account, error) {
	if err := b.delay(ctx); err != nil {
		return ports.Account{}, err
	}
	emailOK := strings.EqualFold(strings.TrimSpace(creds.Email), b.cfg.Email)
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(b.cfg.Password)) == 1
	if !emailOK || !passOK {
		return ports.Account{}, apperrors.Unauthorized("Invalid email or password")
	}

	token, err := randomString(32)
	if err != nil {
		return ports.Account{}, fmt.Errorf("generate token: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = struct{}{}
	acct := b.accountLocked()
	acct.Token = token
	return acct, nil
}

// Me returns the account when userID and token match a live login.
func (b *Backend) Me(ctx context.Context, userID, token string) (ports.Account, error) {
	if err := b.delay(ctx); err != nil {
		return ports.Account{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tokens[token]; !ok || userID != b.cfg.UserID {
		return ports.Account{}, apperrors.Unauthorized("Not authenticated")
	}
	return b.accountLocked(), nil
}

// Logout revokes token. Unknown tokens are ignored.
func (b *Backend) Logout(ctx context.Context, token string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
	return nil
}

// UpdateSaved replaces the saved list of the configured user.
func (b *Backend) UpdateSaved(ctx context.Context, userID, token string, saved []string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}
	if b.cfg.FailSaves {
		return apperrors.Unavailable("saved jobs are unavailable (dev backend failure injection)")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tokens[token]; !ok || userID != b.cfg.UserID {
		return apperrors.Unauthorized("Not authenticated")
	}
	b.saved = domainauth.UniqueIDs(saved)
	return nil
}

// Saved returns the backend's copy of the saved list.
func (b *Backend) Saved() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.saved)
}

func (b *Backend) accountLocked() ports.Account {
	return ports.Account{
		UserID: b.cfg.UserID,
		Role:   domainauth.Role(b.cfg.Role),
		Email:  b.cfg.Email,
		Name:   b.cfg.Name,
		Saved:  append([]string{}, b.saved...),
	}
}

func (b *Backend) delay(ctx context.Context) error {
	if b.cfg.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(b.cfg.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.ErrCodeTimeout, "The job board service did not respond in time.")
	}
}

func randomString(n int) (string, error) {
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
