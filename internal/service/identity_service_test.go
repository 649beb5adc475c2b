package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

func TestRegisterCreatesUserAndSession(t *testing.T) {
	f := newFixture(t)

	session, err := f.identity.Register(f.ctx, "alice", "pass1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.User.Username)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.Zero(t, session.User.Balance)
	assert.Empty(t, session.User.Transactions)

	stored := f.user(t, "alice")
	require.NotNil(t, stored)
	assert.Equal(t, "pass1", stored.Password)
}

func TestRegisterValidationOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.Register(f.ctx, "alice", "pass1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{name: "duplicate wins over weak password", username: "alice", password: "x", want: ErrDuplicateUsername},
		{name: "reserved wins over weak password", username: "PresetBinn.ID", password: "x", want: ErrReservedIdentity},
		{name: "reserved alias", username: " presetbinn.id@GMAIL.com ", password: "longenough", want: ErrReservedIdentity},
		{name: "weak password", username: "bob", password: "abc", want: ErrWeakPassword},
		{name: "blank username", username: "   ", password: "pass1", want: ErrInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.identity.Register(f.ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUsernamesAreCaseSensitiveKeys(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.Register(f.ctx, "Alice", "pass1")
	require.NoError(t, err)

	_, err = f.identity.Register(f.ctx, "alice", "pass2")
	require.NoError(t, err)

	_, err = f.identity.Login(f.ctx, "ALICE", "pass1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginRegularUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.Register(f.ctx, "alice", "pass1")
	require.NoError(t, err)

	session, err := f.identity.Login(f.ctx, "alice", "  pass1 ")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)

	_, err = f.identity.Login(f.ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = f.identity.Login(f.ctx, "carol", "pass1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminLoginIgnoresStoredRecord(t *testing.T) {
	f := newFixture(t)
	// A record under the reserved key can only exist through direct store edits.
	require.NoError(t, f.store.InTx(f.ctx, func(tx repository.Tx) error {
		return tx.CreateUser(f.ctx, &models.User{Username: adminUsername, Password: "intruder", Balance: 999, Role: models.RoleUser})
	}))

	for _, username := range []string{"presetbinn.id", "  PRESETBINN.ID", adminAlias} {
		session, err := f.identity.Login(f.ctx, username, adminSecret)
		require.NoError(t, err, username)
		assert.True(t, session.IsAdmin())
		assert.Zero(t, session.User.Balance)
		assert.Empty(t, session.User.Transactions)
	}

	_, err := f.identity.Login(f.ctx, adminUsername, "intruder")
	assert.ErrorIs(t, err, ErrAdminAuthDenied)
	assert.Len(t, f.notifier.security, 1)
}

func TestLogoutDropsSessionAndReveal(t *testing.T) {
	f := newFixture(t)
	session := f.fund(t, "alice", 10000)
	_, err := f.purchases.Purchase(f.ctx, session, "monthly", models.AccountSharing)
	require.NoError(t, err)

	current, err := f.identity.Session(session.Token)
	require.NoError(t, err)
	require.NotNil(t, current.LastPurchase)

	f.identity.Logout(session.Token)
	_, err = f.identity.Session(session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProfileReloadsHistory(t *testing.T) {
	f := newFixture(t)
	session, err := f.identity.Register(f.ctx, "alice", "pass1")
	require.NoError(t, err)
	_, err = f.topUps.Request(f.ctx, session, 20000, models.PaymentOVO)
	require.NoError(t, err)

	user, err := f.identity.Profile(f.ctx, session)
	require.NoError(t, err)
	require.Len(t, user.Transactions, 1)
	assert.Equal(t, models.StatusPending, user.Transactions[0].Status)
	assert.Zero(t, user.Balance)
}
