// Package redis provides the Redis-backed client session cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
)

const (
	// DefaultKeyPrefix namespaces client session keys.
	DefaultKeyPrefix = "client_session:"
	// DefaultTTL is the lifetime of a snapshot that is not rewritten.
	DefaultTTL = 30 * 24 * time.Hour

	scanBatch = 200
)

// SessionCacheOptions configures a SessionCache.
type SessionCacheOptions struct {
	Client redis.UniversalClient // Required
	Prefix string
	TTL    time.Duration
}

// SessionCache stores client session snapshots as JSON strings with a TTL.
// Every Save refreshes the TTL, so active clients never expire.
type SessionCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionCache creates a Redis-backed session cache.
func NewSessionCache(opts SessionCacheOptions) *SessionCache {
	if opts.Client == nil {
		panic("redis client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionCache{client: opts.Client, prefix: prefix, ttl: ttl}
}

func (s *SessionCache) key(clientID string) string { return s.prefix + clientID }

func (s *SessionCache) Save(ctx context.Context, clientID string, sess domainauth.Session) error {
	if clientID == "" {
		return errors.New("client ID cannot be empty")
	}

	data, err := json.Marshal(sess.Normalize())
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(clientID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionCache) Load(ctx context.Context, clientID string) (domainauth.Session, error) {
	if clientID == "" {
		return domainauth.Session{}, ports.ErrSessionNotCached
	}

	data, err := s.client.Get(ctx, s.key(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotCached
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess.Normalize(), nil
}

func (s *SessionCache) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(clientID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// List scans the key space under the prefix and returns snapshots ordered by client id.
func (s *SessionCache) List(ctx context.Context, filter ports.SessionListFilter) ([]ports.CachedSession, error) {
	var keys []string
	if filter.ClientID != "" {
		keys = []string{s.key(filter.ClientID)}
	} else {
		var err error
		if keys, err = s.scanKeys(ctx); err != nil {
			return nil, err
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	gets := make([]*redis.StringCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	for i, k := range keys {
		gets[i] = pipe.Get(ctx, k)
		ttls[i] = pipe.PTTL(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}

	now := time.Now()
	out := make([]ports.CachedSession, 0, len(keys))
	for i, k := range keys {
		data, err := gets[i].Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", k, err)
		}
		var sess domainauth.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, fmt.Errorf("unmarshal session %s: %w", k, err)
		}
		if filter.UserID != "" && sess.UserID != filter.UserID {
			continue
		}
		entry := ports.CachedSession{ClientID: strings.TrimPrefix(k, s.prefix), Session: sess.Normalize()}
		if ttl := ttls[i].Val(); ttl > 0 {
			entry.ExpiresAt = now.Add(ttl)
		}
		out = append(out, entry)
	}

	slices.SortFunc(out, func(a, b ports.CachedSession) int { return strings.Compare(a.ClientID, b.ClientID) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// DeleteClients removes the given snapshots, or every snapshot under the prefix when ids is empty.
func (s *SessionCache) DeleteClients(ctx context.Context, ids []string) (int64, error) {
	var keys []string
	if len(ids) == 0 {
		var err error
		if keys, err = s.scanKeys(ctx); err != nil {
			return 0, err
		}
	} else {
		for _, id := range ids {
			if id != "" {
				keys = append(keys, s.key(id))
			}
		}
	}

	var total int64
	for chunk := range slices.Chunk(keys, scanBatch) {
		n, err := s.client.Del(ctx, chunk...).Result()
		if err != nil {
			return total, fmt.Errorf("redis del: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *SessionCache) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
