package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobboard-ui-api/config"
	"github.com/target/jobboard-ui-api/internal/data"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
)

type adminHarness struct {
	cache  *data.MemorySessionCache
	clock  *data.FixedTimeProvider
	out    *bytes.Buffer
	cmdCtx *commandContext
	closed bool
}

func newAdminHarness(t *testing.T, stdin string, withPurger bool) *adminHarness {
	t.Helper()
	h := &adminHarness{
		clock: data.NewFixedTimeProvider(time.Now()),
		out:   &bytes.Buffer{},
	}
	h.cache = data.NewMemorySessionCache(time.Hour, h.clock)
	h.cmdCtx = &commandContext{
		Ctx:    context.Background(),
		Logger: slog.Default(),
		Out:    h.out,
		In:     strings.NewReader(stdin),
		OpenCache: func(context.Context, *slog.Logger, *config.AppConfig) (*cacheHandle, error) {
			handle := &cacheHandle{Admin: h.cache, Close: func() error {
				h.closed = true
				return nil
			}}
			if withPurger {
				handle.Purger = h.cache
			}
			return handle, nil
		},
	}
	return h
}

func (h *adminHarness) seed(t *testing.T, clientID, userID string, saved ...string) {
	t.Helper()
	require.NoError(t, h.cache.Save(context.Background(), clientID, domainauth.Session{
		UserID: userID,
		Role:   domainauth.RoleJobSeeker,
		Email:  userID + "@example.com",
		Saved:  saved,
		Token:  "secret-token",
	}))
}

func TestCommands_UsageListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
}

func TestListClientSessions_Table(t *testing.T) {
	h := newAdminHarness(t, "", true)
	h.seed(t, "client-a", "u1", "job-1", "job-2")
	h.seed(t, "client-b", "u2")

	require.NoError(t, runListClientSessions(h.cmdCtx, nil))

	out := h.out.String()
	assert.Contains(t, out, "CLIENT")
	assert.Contains(t, out, "client-a")
	assert.Contains(t, out, "client-b")
	assert.Contains(t, out, "2 session(s)")
	assert.NotContains(t, out, "secret-token")
	assert.True(t, h.closed)
}

func TestListClientSessions_FilteredJSON(t *testing.T) {
	h := newAdminHarness(t, "", true)
	h.seed(t, "client-a", "u1", "job-1")
	h.seed(t, "client-b", "u2")

	require.NoError(t, runListClientSessions(h.cmdCtx, []string{"--user", "u1", "--json"}))

	var records []sessionRecord
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "client-a", records[0].ClientID)
	assert.Equal(t, []string{"job-1"}, records[0].Saved)
	assert.NotContains(t, h.out.String(), "secret-token")
}

func TestListClientSessions_Empty(t *testing.T) {
	h := newAdminHarness(t, "", true)

	require.NoError(t, runListClientSessions(h.cmdCtx, nil))

	assert.Contains(t, h.out.String(), "No cached sessions found.")
}

func TestClearClientSessions_ByClientWithYes(t *testing.T) {
	h := newAdminHarness(t, "", true)
	h.seed(t, "client-a", "u1")
	h.seed(t, "client-b", "u2")

	require.NoError(t, runClearClientSessions(h.cmdCtx, []string{"--client", "client-a", "--yes"}))

	assert.Contains(t, h.out.String(), "Deleted 1 cached session(s).")
	_, err := h.cache.Load(context.Background(), "client-a")
	require.Error(t, err)
	_, err = h.cache.Load(context.Background(), "client-b")
	require.NoError(t, err)
}

func TestClearClientSessions_AllConfirmed(t *testing.T) {
	h := newAdminHarness(t, "yes\n", true)
	h.seed(t, "client-a", "u1")
	h.seed(t, "client-b", "u2")

	require.NoError(t, runClearClientSessions(h.cmdCtx, []string{"--all"}))

	assert.Contains(t, h.out.String(), "ALL clients")
	assert.Contains(t, h.out.String(), "Deleted 2 cached session(s).")
}

func TestClearClientSessions_AbortedLeavesSessions(t *testing.T) {
	h := newAdminHarness(t, "n\n", true)
	h.seed(t, "client-a", "u1")

	err := runClearClientSessions(h.cmdCtx, []string{"--client", "client-a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	_, loadErr := h.cache.Load(context.Background(), "client-a")
	require.NoError(t, loadErr)
}

func TestClearClientSessions_DryRun(t *testing.T) {
	h := newAdminHarness(t, "", true)
	h.seed(t, "client-a", "u1")
	h.seed(t, "client-b", "u2")

	require.NoError(t, runClearClientSessions(h.cmdCtx, []string{"--client", "client-a,client-missing", "--dry-run"}))

	assert.Contains(t, h.out.String(), "1 cached session(s) would be deleted")
	_, err := h.cache.Load(context.Background(), "client-a")
	require.NoError(t, err)
}

func TestParseClearFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr string
	}{
		{name: "requires a target", args: nil, wantErr: "either --client or --all"},
		{name: "all excludes client", args: []string{"--all", "--client", "a"}, wantErr: "cannot be combined"},
		{name: "dedupes client ids", args: []string{"--client", "a, b,a,,"}, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseClearFlags(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.ClientIDs)
		})
	}
}

func TestParseListFlags_RejectsNegativeLimit(t *testing.T) {
	_, err := parseListFlags([]string{"--limit", "-1"})
	require.Error(t, err)

	opts, err := parseListFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, opts.Limit)
}

func TestPurgeExpiredSessions(t *testing.T) {
	h := newAdminHarness(t, "", true)
	h.seed(t, "client-a", "u1")
	h.clock.AddTime(2 * time.Hour)

	require.NoError(t, runPurgeExpiredSessions(h.cmdCtx, nil))

	assert.Contains(t, h.out.String(), "Purged 1 expired session(s).")
}

func TestPurgeExpiredSessions_NativeExpiry(t *testing.T) {
	h := newAdminHarness(t, "", false)

	require.NoError(t, runPurgeExpiredSessions(h.cmdCtx, nil))

	assert.Contains(t, h.out.String(), "nothing to purge")
}

func TestCommands_PropagateOpenCacheError(t *testing.T) {
	h := newAdminHarness(t, "", true)
	h.cmdCtx.OpenCache = func(context.Context, *slog.Logger, *config.AppConfig) (*cacheHandle, error) {
		return nil, errors.New("dial tcp: refused")
	}

	err := runListClientSessions(h.cmdCtx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestOpenSessionCache_MemoryDriverRejected(t *testing.T) {
	cfg := &config.AppConfig{SessionCache: config.SessionCacheConfig{Driver: config.SessionCacheMemory}}

	_, err := openSessionCache(context.Background(), slog.Default(), cfg)

	require.ErrorIs(t, err, errMemoryCache)
}
