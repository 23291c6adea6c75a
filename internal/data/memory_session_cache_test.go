package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
)

func seeker(userID string, saved ...string) domainauth.Session {
	return domainauth.Session{UserID: userID, Role: domainauth.RoleJobSeeker, Saved: saved, Token: "t-" + userID}
}

func TestMemorySessionCache_SaveLoadExpire(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFixedTimeProvider(start)
	cache := NewMemorySessionCache(time.Hour, clock)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "c1", seeker("u1", "j1")))
	got, err := cache.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, got.Saved)

	got.Saved[0] = "mutated"
	again, err := cache.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, again.Saved)

	clock.AddTime(time.Hour)
	_, err = cache.Load(ctx, "c1")
	require.ErrorIs(t, err, ports.ErrSessionNotCached)

	n, err := cache.PurgeExpired(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemorySessionCache_SaveRequiresClientID(t *testing.T) {
	cache := NewMemorySessionCache(0, nil)
	require.ErrorIs(t, cache.Save(context.Background(), "", seeker("u1")), ErrClientIDRequired)
}

func TestMemorySessionCache_ListAndDeleteClients(t *testing.T) {
	cache := NewMemorySessionCache(time.Hour, nil)
	ctx := context.Background()
	for id, user := range map[string]string{"b": "u1", "a": "u1", "c": "u2"} {
		require.NoError(t, cache.Save(ctx, id, seeker(user)))
	}

	all, err := cache.List(ctx, ports.SessionListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ClientID, all[1].ClientID, all[2].ClientID})

	u1, err := cache.List(ctx, ports.SessionListFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.Equal(t, "a", u1[0].ClientID)

	one, err := cache.List(ctx, ports.SessionListFilter{ClientID: "c"})
	require.NoError(t, err)
	require.Len(t, one, 1)

	n, err := cache.DeleteClients(ctx, []string{"a", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = cache.DeleteClients(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
