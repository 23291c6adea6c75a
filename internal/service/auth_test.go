package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/mocks"
	mockauth "github.com/target/jobboard-ui-api/internal/mocks/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
	"go.uber.org/mock/gomock"
)

func TestAuthService_SignIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockJobBoardAPI(ctrl)
	creds := domainauth.Credentials{Email: "boss@example.com", Password: "pw", RememberMe: true}
	api.EXPECT().Login(gomock.Any(), creds).Return(ports.Account{
		UserID: "emp-1",
		Role:   domainauth.RoleEmployer,
		Email:  "boss@example.com",
		Saved:  []string{"a", "a"},
		Token:  "tok",
	}, nil)

	store := NewSessionStore(nil)
	svc := NewAuthService(AuthServiceOptions{Store: store, API: api})

	sess, err := svc.SignIn(context.Background(), domainauth.Credentials{Email: " boss@example.com ", Password: "pw", RememberMe: true})
	require.NoError(t, err)
	assert.Equal(t, "emp-1", sess.UserID)
	assert.Equal(t, domainauth.RoleEmployer, sess.Role)
	assert.Equal(t, []string{"a"}, sess.Saved)

	cur := store.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "tok", cur.Token)
}

func TestAuthService_SignInSurfacesBackendMessage(t *testing.T) {
	api := &mockauth.FakeJobBoardAPI{
		LoginFunc: func(context.Context, domainauth.Credentials) (ports.Account, error) {
			return ports.Account{}, apperrors.Unauthorized("Invalid email or password")
		},
	}
	store := NewSessionStore(nil)
	svc := NewAuthService(AuthServiceOptions{Store: store, API: api})

	_, err := svc.SignIn(context.Background(), domainauth.Credentials{Email: "a@b.c", Password: "bad"})

	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, "Invalid email or password", apperrors.UserMessage(err, ""))
	assert.Nil(t, store.Current())
}

func TestAuthService_SignInValidation(t *testing.T) {
	api := mockauth.NewFakeJobBoardAPI()
	svc := NewAuthService(AuthServiceOptions{Store: NewSessionStore(nil), API: api})

	_, err := svc.SignIn(context.Background(), domainauth.Credentials{Password: "pw"})
	assert.Equal(t, "email", apperrors.GetField(err))

	_, err = svc.SignIn(context.Background(), domainauth.Credentials{Email: "a@b.c"})
	assert.Equal(t, "password", apperrors.GetField(err))

	assert.Equal(t, 0, api.Logins())
}

func TestAuthService_SignInRejectsIncompleteAccount(t *testing.T) {
	api := &mockauth.FakeJobBoardAPI{
		LoginFunc: func(context.Context, domainauth.Credentials) (ports.Account, error) {
			return ports.Account{Role: domainauth.RoleEmployer}, nil
		},
	}
	store := NewSessionStore(nil)
	svc := NewAuthService(AuthServiceOptions{Store: store, API: api})

	_, err := svc.SignIn(context.Background(), domainauth.Credentials{Email: "a@b.c", Password: "pw"})

	assert.True(t, apperrors.IsUnavailable(err))
	assert.Nil(t, store.Current())
}

func TestAuthService_SignInWhenAlreadySignedIn(t *testing.T) {
	sess := seekerSession()
	api := mockauth.NewFakeJobBoardAPI()
	svc := NewAuthService(AuthServiceOptions{Store: NewSessionStore(&sess), API: api})

	_, err := svc.SignIn(context.Background(), domainauth.Credentials{Email: "a@b.c", Password: "pw"})

	require.ErrorIs(t, err, ErrAlreadySignedIn)
	assert.Equal(t, 0, api.Logins())
}

func TestAuthService_SignOutAlwaysClears(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{"remote logout succeeds", nil},
		{"remote logout fails", errors.New("backend down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotToken string
			api := &mockauth.FakeJobBoardAPI{
				LogoutFunc: func(_ context.Context, token string) error {
					gotToken = token
					return tt.logoutErr
				},
			}
			sess := seekerSession("j1")
			store := NewSessionStore(&sess)
			svc := NewAuthService(AuthServiceOptions{Store: store, API: api})

			next := svc.SignOut(context.Background())

			assert.Equal(t, "/SignIn", next)
			assert.Equal(t, "token-1", gotToken)
			assert.Nil(t, store.Current())
		})
	}
}

func TestAuthService_SignOutWithoutSession(t *testing.T) {
	store := NewSessionStore(nil)
	svc := NewAuthService(AuthServiceOptions{
		Store:  store,
		API:    mockauth.NewFakeJobBoardAPI(),
		Config: AuthServiceConfig{SignInPath: "/login"},
	})

	assert.Equal(t, "/login", svc.SignOut(context.Background()))
	assert.Nil(t, store.Current())
}
