package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
)

// Account is the backend's view of a signed-in user.
type Account struct {
	UserID    string
	Role      domainauth.Role
	Email     string
	Name      string
	AvatarURL string
	// Saved is nil when the backend response carried no saved list.
	Saved []string
	// Token is the bearer token issued at login, if any.
	Token string
}

// Session converts the account into a local session.
func (a Account) Session() domainauth.Session {
	return domainauth.Session{
		UserID:    a.UserID,
		Role:      a.Role,
		Email:     a.Email,
		Name:      a.Name,
		AvatarURL: a.AvatarURL,
		Saved:     a.Saved,
		Token:     a.Token,
	}.Normalize()
}

// JobBoardAPI is the REST backend as seen by one client. Implementations map
// backend failures to *errors.AppError (unauthorized, validation, unavailable, timeout).
type JobBoardAPI interface {
	// Login exchanges credentials for an account (POST /auth/login).
	Login(ctx context.Context, creds domainauth.Credentials) (Account, error)
	// Me re-validates a session against the backend (GET /auth/me/{userId}).
	Me(ctx context.Context, userID, token string) (Account, error)
	// Logout ends the backend session (POST /auth/logout).
	Logout(ctx context.Context, token string) error
	// UpdateSaved replaces the user's saved list (PUT /users/{userId}).
	UpdateSaved(ctx context.Context, userID, token string, saved []string) error
}

// JobBoardAPIFactory hands out a JobBoardAPI per client so backend cookies are not shared between browsers.
type JobBoardAPIFactory interface {
	ForClient(clientID string) (JobBoardAPI, error)
}

// ErrSessionNotCached is returned by a SessionCache when no snapshot exists for a client.
var ErrSessionNotCached = errors.New("session not cached")

// SessionCache persists the last known session of a client between application loads.
type SessionCache interface {
	Save(ctx context.Context, clientID string, sess domainauth.Session) error
	Load(ctx context.Context, clientID string) (domainauth.Session, error)
	Delete(ctx context.Context, clientID string) error
}

// CachedSession is one cache entry as listed by admin tooling.
type CachedSession struct {
	ClientID  string
	Session   domainauth.Session
	ExpiresAt time.Time
}

// NoticeKind distinguishes success and failure notices.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a short user-facing message.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// Notifier delivers notices to the user of a client.
type Notifier interface {
	Notify(n Notice)
}

// ExpiredSessionPurger removes cached sessions past their expiry.
// Caches with native key expiry (Redis) do not need it.
type ExpiredSessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionListFilter narrows the cached sessions returned to admin tooling.
type SessionListFilter struct {
	// ClientID, when set, limits the listing to one client.
	ClientID string
	// UserID, when set, limits the listing to one user's clients.
	UserID string
	// Limit caps the number of entries; 0 means no limit.
	Limit int
}

// SessionCacheAdmin is the maintenance surface of a SessionCache used by the admin CLI.
type SessionCacheAdmin interface {
	List(ctx context.Context, filter SessionListFilter) ([]CachedSession, error)
	// DeleteClients removes the given clients' snapshots, or every snapshot when ids is empty.
	DeleteClients(ctx context.Context, ids []string) (int64, error)
}
