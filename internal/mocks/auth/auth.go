package auth

// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.JobBoardAPI        = (*FakeJobBoardAPI)(nil)
	_ ports.JobBoardAPIFactory = (*FakeJobBoardAPI)(nil)
	_ ports.SessionCache       = (*MemorySessionCache)(nil)
	_ ports.Notifier           = (*RecordingNotifier)(nil)
)

// UpdateSavedCall records one UpdateSaved invocation.
type UpdateSavedCall struct {
	UserID string
	Token  string
	Saved  []string
}

// FakeJobBoardAPI simulates the job-board backend. Func fields override the defaults;
// without them every call succeeds against Account.
type FakeJobBoardAPI struct {
	LoginFunc       func(ctx context.Context, creds domainauth.Credentials) (ports.Account, error)
	MeFunc          func(ctx context.Context, userID, token string) (ports.Account, error)
	LogoutFunc      func(ctx context.Context, token string) error
	UpdateSavedFunc func(ctx context.Context, userID, token string, saved []string) error

	// Account is returned by the default Login and Me.
	Account ports.Account

	mu          sync.Mutex
	logins      int
	meCalls     int
	logouts     int
	updateCalls []UpdateSavedCall
}

// NewFakeJobBoardAPI creates a FakeJobBoardAPI with a job seeker account.
func NewFakeJobBoardAPI() *FakeJobBoardAPI {
	return &FakeJobBoardAPI{
		Account: ports.Account{
			UserID: "user-1",
			Role:   domainauth.RoleJobSeeker,
			Email:  "seeker@example.com",
			Name:   "Sam Seeker",
			Token:  "token-1",
		},
	}
}

// ForClient returns the fake itself for every client.
func (f *FakeJobBoardAPI) ForClient(string) (ports.JobBoardAPI, error) { return f, nil }

func (f *FakeJobBoardAPI) Login(ctx context.Context, creds domainauth.Credentials) (ports.Account, error) {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}
	return f.Account, nil
}

func (f *FakeJobBoardAPI) Me(ctx context.Context, userID, token string) (ports.Account, error) {
	f.mu.Lock()
	f.meCalls++
	f.mu.Unlock()

	if f.MeFunc != nil {
		return f.MeFunc(ctx, userID, token)
	}
	acct := f.Account
	acct.Saved = nil
	return acct, nil
}

func (f *FakeJobBoardAPI) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()

	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx, token)
	}
	return nil
}

func (f *FakeJobBoardAPI) UpdateSaved(ctx context.Context, userID, token string, saved []string) error {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, UpdateSavedCall{UserID: userID, Token: token, Saved: slices.Clone(saved)})
	f.mu.Unlock()

	if f.UpdateSavedFunc != nil {
		return f.UpdateSavedFunc(ctx, userID, token, saved)
	}
	return nil
}

// Logins returns the number of Login calls.
func (f *FakeJobBoardAPI) Logins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

// MeCalls returns the number of Me calls.
func (f *FakeJobBoardAPI) MeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

// Logouts returns the number of Logout calls.
func (f *FakeJobBoardAPI) Logouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

// UpdateCalls returns a copy of the recorded UpdateSaved calls.
func (f *FakeJobBoardAPI) UpdateCalls() []UpdateSavedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.updateCalls)
}

// MemorySessionCache is an in-memory session cache for unit tests. It never expires entries.
type MemorySessionCache struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionCache creates a new in-memory session cache.
func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionCache) Save(_ context.Context, clientID string, sess domainauth.Session) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[clientID] = sess.Clone()
	return nil
}

func (m *MemorySessionCache) Load(_ context.Context, clientID string) (domainauth.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[clientID]
	if !ok || clientID == "" {
		return domainauth.Session{}, ports.ErrSessionNotCached
	}
	return sess.Clone(), nil
}

func (m *MemorySessionCache) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, clientID)
	return nil
}

// List returns every cached session.
func (m *MemorySessionCache) List(_ context.Context) ([]ports.CachedSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ports.CachedSession, 0, len(m.sessions))
	for id, sess := range m.sessions {
		out = append(out, ports.CachedSession{ClientID: id, Session: sess.Clone()})
	}
	slices.SortFunc(out, func(a, b ports.CachedSession) int {
		switch {
		case a.ClientID < b.ClientID:
			return -1
		case a.ClientID > b.ClientID:
			return 1
		}
		return 0
	})
	return out, nil
}

// RecordingNotifier keeps every notice it receives.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []ports.Notice
}

func (r *RecordingNotifier) Notify(n ports.Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *RecordingNotifier) Notices() []ports.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notices)
}

// Messages returns only the notice texts, in order.
func (r *RecordingNotifier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.Message
	}
	return out
}
