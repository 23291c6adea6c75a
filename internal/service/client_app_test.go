package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/mocks"
	mockauth "github.com/target/jobboard-ui-api/internal/mocks/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
	"go.uber.org/mock/gomock"
)

func newTestApp(t *testing.T, api ports.JobBoardAPI, cache ports.SessionCache) *ClientApp {
	t.Helper()
	app, err := NewClientApp(context.Background(), "client-1", ClientAppOptions{
		API:    api,
		Cache:  cache,
		Config: ClientAppConfig{BackendTimeout: time.Second},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func waitValidated(t *testing.T, app *ClientApp) {
	t.Helper()
	select {
	case <-app.Validator.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("validation did not finish")
	}
}

func TestClientApp_HydratesFromCacheAndValidates(t *testing.T) {
	cache := mockauth.NewMemorySessionCache()
	require.NoError(t, cache.Save(context.Background(), "client-1", seekerSession("j1")))
	api := mockauth.NewFakeJobBoardAPI()

	app := newTestApp(t, api, cache)
	waitValidated(t, app)

	assert.Equal(t, ValidationKept, app.Validator.Outcome())
	require.NotNil(t, app.Store.Current())
	assert.Equal(t, []string{"j1"}, app.Store.Current().Saved)
	assert.Equal(t, 1, api.MeCalls())
	assert.NotEmpty(t, app.RunID)
}

func TestClientApp_FailedValidationClearsCache(t *testing.T) {
	cache := mockauth.NewMemorySessionCache()
	require.NoError(t, cache.Save(context.Background(), "client-1", seekerSession()))
	api := &mockauth.FakeJobBoardAPI{
		MeFunc: func(context.Context, string, string) (ports.Account, error) {
			return ports.Account{}, apperrors.Unauthorized("expired")
		},
	}

	app := newTestApp(t, api, cache)
	waitValidated(t, app)
	require.NoError(t, app.Close(context.Background()))

	assert.Nil(t, app.Store.Current())
	_, err := cache.Load(context.Background(), "client-1")
	require.ErrorIs(t, err, ports.ErrSessionNotCached)
}

func TestClientApp_PersistsSignInAndToggles(t *testing.T) {
	cache := mockauth.NewMemorySessionCache()
	api := mockauth.NewFakeJobBoardAPI()

	app := newTestApp(t, api, cache)
	waitValidated(t, app)
	assert.Equal(t, ValidationAnonymous, app.Validator.Outcome())

	_, err := app.SignIn(context.Background(), domainauth.Credentials{Email: "seeker@example.com", Password: "pw"})
	require.NoError(t, err)
	ch, err := app.Toggle(context.Background(), "j1")
	require.NoError(t, err)
	<-ch

	require.NoError(t, app.Close(context.Background()))

	cached, err := cache.Load(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cached.UserID)
	assert.Equal(t, []string{"j1"}, cached.Saved)
	assert.Equal(t, []string{MsgJobSaved}, noticeMessages(app.Notices.Drain()))
}

func TestClientApp_CacheLoadFailureStartsSignedOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockSessionCache(ctrl)
	cache.EXPECT().Load(gomock.Any(), "client-1").Return(domainauth.Session{}, errors.New("redis down"))
	cache.EXPECT().Delete(gomock.Any(), "client-1").Return(nil).AnyTimes()

	app := newTestApp(t, mockauth.NewFakeJobBoardAPI(), cache)
	waitValidated(t, app)

	assert.Nil(t, app.Store.Current())
	assert.Equal(t, ValidationAnonymous, app.Validator.Outcome())
}

func TestClientApp_RequiresClientID(t *testing.T) {
	_, err := NewClientApp(context.Background(), "", ClientAppOptions{
		API:   mockauth.NewFakeJobBoardAPI(),
		Cache: mockauth.NewMemorySessionCache(),
	})
	require.Error(t, err)
}

func TestClientApp_Touch(t *testing.T) {
	app := newTestApp(t, mockauth.NewFakeJobBoardAPI(), mockauth.NewMemorySessionCache())
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	app.Touch(at)

	assert.True(t, app.LastSeen().Equal(at))
}

func noticeMessages(ns []ports.Notice) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Message
	}
	return out
}

func TestClientApp_ClosedRunRefusesActions(t *testing.T) {
	ctx := context.Background()
	cache := mockauth.NewMemorySessionCache()
	require.NoError(t, cache.Save(ctx, "client-1", seekerSession()))
	api := mockauth.NewFakeJobBoardAPI()

	app := newTestApp(t, api, cache)
	require.NoError(t, app.Close(ctx))

	select {
	case <-app.Closed():
	default:
		t.Fatal("Closed was not signalled")
	}

	_, err := app.Toggle(ctx, "j1")
	require.ErrorIs(t, err, ErrRunClosed)
	_, err = app.SignIn(ctx, domainauth.Credentials{Email: "seeker@example.com", Password: "pw"})
	require.ErrorIs(t, err, ErrRunClosed)
	_, err = app.SignOut(ctx)
	require.ErrorIs(t, err, ErrRunClosed)

	assert.Empty(t, api.UpdateCalls())
	assert.Zero(t, api.Logins())
	cached, err := cache.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Empty(t, cached.Saved)
}

func TestClientApp_SignInWaitsForAnonymousLogout(t *testing.T) {
	release := make(chan struct{})
	var loggedOut, loginSawLogout atomic.Bool

	api := mockauth.NewFakeJobBoardAPI()
	api.LogoutFunc = func(ctx context.Context, _ string) error {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		loggedOut.Store(true)
		return nil
	}
	api.LoginFunc = func(context.Context, domainauth.Credentials) (ports.Account, error) {
		loginSawLogout.Store(loggedOut.Load())
		return api.Account, nil
	}

	app := newTestApp(t, api, mockauth.NewMemorySessionCache())

	done := make(chan error, 1)
	go func() {
		_, err := app.SignIn(context.Background(), domainauth.Credentials{Email: "seeker@example.com", Password: "pw"})
		done <- err
	}()

	assert.Never(t, func() bool { return api.Logins() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sign in did not complete")
	}
	assert.True(t, loginSawLogout.Load(), "login must follow the anonymous logout")
	assert.Equal(t, ValidationAnonymous, app.Validator.Outcome())
	require.NotNil(t, app.Store.Current())
	assert.Equal(t, "user-1", app.Store.Current().UserID)
}

func TestClientApp_SignInProceedsWhenValidationHangs(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	api.LogoutFunc = func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	app, err := NewClientApp(context.Background(), "client-1", ClientAppOptions{
		API:    api,
		Cache:  mockauth.NewMemorySessionCache(),
		Config: ClientAppConfig{BackendTimeout: 50 * time.Millisecond},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	_, err = app.SignIn(context.Background(), domainauth.Credentials{Email: "seeker@example.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, 1, api.Logins())
}
