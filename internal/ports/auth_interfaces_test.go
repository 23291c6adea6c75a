package ports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	mocks "github.com/target/jobboard-ui-api/internal/mocks/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.JobBoardAPI = (*mocks.FakeJobBoardAPI)(nil)
	var _ ports.JobBoardAPIFactory = (*mocks.FakeJobBoardAPI)(nil)
	var _ ports.SessionCache = (*mocks.MemorySessionCache)(nil)
	var _ ports.Notifier = (*mocks.RecordingNotifier)(nil)
}

func TestAccount_Session(t *testing.T) {
	acct := ports.Account{
		UserID: "u1",
		Role:   domainauth.RoleJobSeeker,
		Email:  "a@b.c",
		Saved:  []string{"j1", "j1", "j2"},
		Token:  "tok",
	}

	sess := acct.Session()

	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, domainauth.RoleJobSeeker, sess.Role)
	assert.Equal(t, []string{"j1", "j2"}, sess.Saved)
	assert.Equal(t, "tok", sess.Token)
}
