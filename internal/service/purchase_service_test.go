package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

func TestPurchaseConservesBalance(t *testing.T) {
	f := newFixture(t)
	session := f.fund(t, "alice", 50000)
	devBefore := f.developerBalance(t)

	trx, err := f.purchases.Purchase(f.ctx, session, "yearly", models.AccountPrivate)
	require.NoError(t, err)

	assert.Equal(t, int64(50000), trx.Amount)
	assert.Equal(t, int64(0), f.user(t, "alice").Balance)
	assert.Equal(t, devBefore+50000, f.developerBalance(t))
}

func TestPurchaseIssuesCredentials(t *testing.T) {
	f := newFixture(t)
	f.purchases.now = func() time.Time { return time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC) }
	session := f.fund(t, "alice", 10000)

	trx, err := f.purchases.Purchase(f.ctx, session, "monthly", models.AccountSharing)
	require.NoError(t, err)

	assert.Regexp(t, `^TRX-`, trx.ID)
	assert.Equal(t, models.TransactionPurchase, trx.Type)
	assert.Equal(t, models.StatusSuccess, trx.Status)
	assert.Equal(t, "monthly", trx.PlanID)
	assert.Equal(t, models.AccountSharing, trx.AccountType)
	require.NotNil(t, trx.Credentials)

	seed := SeedStock()
	assert.Equal(t, seed[0].Email, trx.Credentials.Email)
	assert.Equal(t, seed[0].Link, trx.Credentials.AccessLink)
	assert.Equal(t, models.PasswordSentinel, trx.Credentials.Password)
	assert.Equal(t, "2026-03-03", trx.Credentials.ExpiresAt)

	pool, err := f.stock.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, pool, 29)
	assert.NotContains(t, pool, seed[0])

	current, err := f.identity.Session(session.Token)
	require.NoError(t, err)
	require.NotNil(t, current.LastPurchase)
	assert.Equal(t, trx.ID, current.LastPurchase.ID)
	assert.Equal(t, int64(5000), current.User.Balance)

	f.purchases.DismissLastPurchase(current)
	current, err = f.identity.Session(session.Token)
	require.NoError(t, err)
	assert.Nil(t, current.LastPurchase)
}

func TestPurchaseInsufficientBalanceChangesNothing(t *testing.T) {
	f := newFixture(t)
	session := f.fund(t, "alice", 0)
	require.NoError(t, f.store.InTx(f.ctx, func(tx repository.Tx) error {
		return tx.UpdateBalance(f.ctx, "alice", 5000)
	}))

	_, err := f.purchases.Purchase(f.ctx, session, "monthly", models.AccountPrivate)
	assert.Equal(t, 30, f.stockCount(t))

	var shortfall *InsufficientBalanceError
	require.True(t, errors.As(err, &shortfall))
	assert.Equal(t, int64(15000), shortfall.Price)
	assert.Equal(t, int64(10000), shortfall.Shortfall)

	// Base price fallback: a plan without variants charges the base amount.
	plan := models.Plan{ID: "monthly", Name: "Paket Bulanan", Base: models.PriceOffer{Enabled: true, Amount: 10000}}
	require.NoError(t, f.catalog.UpdatePlan(f.ctx, plan))

	_, err = f.purchases.Purchase(f.ctx, session, "monthly", models.AccountSharing)
	require.True(t, errors.As(err, &shortfall))
	assert.Equal(t, int64(5000), shortfall.Shortfall)

	assert.Equal(t, int64(5000), f.user(t, "alice").Balance)
	assert.Equal(t, 30, f.stockCount(t))
	assert.Zero(t, f.developerBalance(t))
}

func TestPurchaseOutOfStockKeepsBalance(t *testing.T) {
	f := newFixture(t)
	session := f.fund(t, "alice", 20000)
	require.NoError(t, f.store.InTx(f.ctx, func(tx repository.Tx) error {
		return tx.ReplaceStock(f.ctx, nil)
	}))

	_, err := f.purchases.Purchase(f.ctx, session, "monthly", models.AccountSharing)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, int64(20000), f.user(t, "alice").Balance)
	assert.Zero(t, f.developerBalance(t))
}

func TestPurchaseRejectsBadCallers(t *testing.T) {
	f := newFixture(t)
	session := f.fund(t, "alice", 10000)
	admin, err := f.identity.Login(f.ctx, adminUsername, adminSecret)
	require.NoError(t, err)

	_, err = f.purchases.Purchase(f.ctx, nil, "monthly", models.AccountSharing)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.purchases.Purchase(f.ctx, admin, "monthly", models.AccountSharing)
	assert.ErrorIs(t, err, ErrAdminPurchase)

	_, err = f.purchases.Purchase(f.ctx, session, "lifetime", models.AccountSharing)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = f.purchases.Purchase(f.ctx, session, "monthly", models.AccountType("FAMILY"))
	assert.ErrorIs(t, err, ErrInvalidAccountType)

	plan := DefaultPlans()[0]
	plan.Offers[models.AccountPrivate].Enabled = false
	require.NoError(t, f.catalog.UpdatePlan(f.ctx, plan))
	_, err = f.purchases.Purchase(f.ctx, session, "monthly", models.AccountPrivate)
	assert.ErrorIs(t, err, models.ErrOfferUnavailable)

	assert.Equal(t, int64(10000), f.user(t, "alice").Balance)
}

func TestEndToEndTopUpAndPurchase(t *testing.T) {
	f := newFixture(t)
	f.topUps.intn = func(n int) int { return 417 }

	alice, err := f.identity.Register(f.ctx, "alice", "pass1")
	require.NoError(t, err)

	topUp, err := f.topUps.Request(f.ctx, alice, 10000, models.PaymentDANA)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, topUp.Status)
	assert.GreaterOrEqual(t, topUp.Amount, int64(10000))
	assert.LessOrEqual(t, topUp.Amount, int64(10998))

	_, err = f.topUps.Approve(f.ctx, topUp.ID)
	require.NoError(t, err)
	assert.Equal(t, topUp.Amount, f.user(t, "alice").Balance)

	pending, err := f.topUps.Pending(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	poolBefore := f.stockCount(t)
	devBefore := f.developerBalance(t)

	alice, err = f.identity.Session(alice.Token)
	require.NoError(t, err)
	trx, err := f.purchases.Purchase(f.ctx, alice, "monthly", models.AccountSharing)
	require.NoError(t, err)

	assert.Equal(t, topUp.Amount-5000, f.user(t, "alice").Balance)
	assert.Equal(t, devBefore+5000, f.developerBalance(t))
	assert.Equal(t, poolBefore-1, f.stockCount(t))
	assert.Equal(t, models.StatusSuccess, trx.Status)
	require.NotNil(t, trx.Credentials)
	assert.NotEmpty(t, trx.Credentials.Email)

	history := f.user(t, "alice").Transactions
	require.Len(t, history, 2)
	assert.Equal(t, trx.ID, history[0].ID)
	assert.Equal(t, topUp.ID, history[1].ID)

	ledger, err := f.purchases.DeveloperLedger(f.ctx)
	require.NoError(t, err)
	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, trx.ID, ledger.Transactions[0].ID)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	f := newFixture(t)
	const buyers = 40
	seeded := f.stockCount(t)
	require.Equal(t, 30, seeded)
	devBefore := f.developerBalance(t)

	sessions := make([]*Session, buyers)
	for i := range sessions {
		sessions[i] = f.fund(t, fmt.Sprintf("buyer%02d", i), 10000)
	}

	type outcome struct {
		trx *models.Transaction
		err error
	}
	results := make([]outcome, buyers)
	var wg sync.WaitGroup
	for i, session := range sessions {
		wg.Add(1)
		go func(i int, session *Session) {
			defer wg.Done()
			trx, err := f.purchases.Purchase(f.ctx, session, "monthly", models.AccountSharing)
			results[i] = outcome{trx: trx, err: err}
		}(i, session)
	}
	wg.Wait()

	emails := map[string]bool{}
	for i, res := range results {
		if res.err != nil {
			assert.ErrorIs(t, res.err, ErrOutOfStock)
			assert.Equal(t, int64(10000), f.user(t, fmt.Sprintf("buyer%02d", i)).Balance)
			continue
		}
		require.NotNil(t, res.trx.Credentials)
		assert.False(t, emails[res.trx.Credentials.Email], "email %s issued twice", res.trx.Credentials.Email)
		emails[res.trx.Credentials.Email] = true
		assert.Equal(t, int64(5000), f.user(t, fmt.Sprintf("buyer%02d", i)).Balance)
	}

	assert.Len(t, emails, seeded)
	assert.Equal(t, 0, f.stockCount(t))
	assert.Equal(t, devBefore+int64(seeded)*5000, f.developerBalance(t))
}
