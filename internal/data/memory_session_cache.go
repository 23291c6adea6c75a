package data

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
)

type memoryEntry struct {
	sess      domainauth.Session
	expiresAt time.Time
}

// MemorySessionCache keeps client session snapshots in process memory.
// Snapshots are lost on restart; it backs the "memory" cache driver used in development.
type MemorySessionCache struct {
	mu           sync.RWMutex
	entries      map[string]memoryEntry
	ttl          time.Duration
	timeProvider TimeProvider
}

// NewMemorySessionCache creates an empty cache. A nil TimeProvider uses the system clock.
func NewMemorySessionCache(ttl time.Duration, tp TimeProvider) *MemorySessionCache {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &MemorySessionCache{entries: make(map[string]memoryEntry), ttl: ttl, timeProvider: tp}
}

func (m *MemorySessionCache) Save(_ context.Context, clientID string, sess domainauth.Session) error {
	if clientID == "" {
		return ErrClientIDRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[clientID] = memoryEntry{sess: sess.Clone(), expiresAt: m.timeProvider.Now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionCache) Load(_ context.Context, clientID string) (domainauth.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[clientID]
	if !ok || !e.expiresAt.After(m.timeProvider.Now()) {
		return domainauth.Session{}, ports.ErrSessionNotCached
	}
	return e.sess.Clone(), nil
}

func (m *MemorySessionCache) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, clientID)
	return nil
}

// List returns unexpired snapshots ordered by client id.
func (m *MemorySessionCache) List(_ context.Context, filter ports.SessionListFilter) ([]ports.CachedSession, error) {
	now := m.timeProvider.Now()

	m.mu.RLock()
	out := make([]ports.CachedSession, 0, len(m.entries))
	for id, e := range m.entries {
		switch {
		case !e.expiresAt.After(now):
			continue
		case filter.ClientID != "" && filter.ClientID != id:
			continue
		case filter.UserID != "" && filter.UserID != e.sess.UserID:
			continue
		}
		out = append(out, ports.CachedSession{ClientID: id, Session: e.sess.Clone(), ExpiresAt: e.expiresAt})
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b ports.CachedSession) int { return strings.Compare(a.ClientID, b.ClientID) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// DeleteClients removes the given snapshots, or all snapshots when ids is empty.
func (m *MemorySessionCache) DeleteClients(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(ids) == 0 {
		n := int64(len(m.entries))
		clear(m.entries)
		return n, nil
	}
	var n int64
	for _, id := range ids {
		if _, ok := m.entries[id]; ok {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// PurgeExpired drops snapshots whose expiry is at or before now.
func (m *MemorySessionCache) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, e := range m.entries {
		if !e.expiresAt.After(now) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}
