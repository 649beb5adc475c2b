package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
	"github.com/digkill/PresetStore/pkg/logger"
)

const (
	adminUsername = "presetbinn.id"
	adminAlias    = "presetbinn.id@gmail.com"
	adminSecret   = "s3cret"
)

type recordingNotifier struct {
	mu       sync.Mutex
	topUps   []models.Transaction
	security []string
}

func (n *recordingNotifier) TopUpRequested(_ context.Context, trx models.Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topUps = append(n.topUps, trx)
}

func (n *recordingNotifier) SecurityEvent(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.security = append(n.security, message)
}

type fixture struct {
	ctx       context.Context
	store     *repository.FileStore
	sessions  *SessionManager
	notifier  *recordingNotifier
	identity  *IdentityService
	stock     *StockService
	topUps    *TopUpService
	catalog   *CatalogService
	purchases *PurchaseService
	reports   *ReportService
}

// newFixture wires every service against an in-memory store with the default catalog
// and the seed stock installed. Random choices always pick index 0.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := repository.OpenFileStore("")
	require.NoError(t, err)

	log := logger.Discard()
	intn := func(int) int { return 0 }
	f := &fixture{
		ctx:      context.Background(),
		store:    store,
		sessions: NewSessionManager(time.Hour),
		notifier: &recordingNotifier{},
	}
	wallet := NewWallet(log)
	admin := AdminAccount{Username: adminUsername, Aliases: []string{adminAlias}, Password: adminSecret}
	f.identity = NewIdentityService(log, store, f.sessions, admin, f.notifier)
	f.stock = NewStockService(log, store, intn)
	f.topUps = NewTopUpService(log, store, wallet, f.sessions, f.notifier, []int64{10000, 20000, 50000, 100000}, intn)
	f.catalog = NewCatalogService(log, store)
	f.purchases = NewPurchaseService(log, store, wallet, f.stock, f.sessions)
	f.reports = NewReportService(log, f.purchases, nil)

	require.NoError(t, f.stock.EnsureSeeded(f.ctx))
	require.NoError(t, f.catalog.EnsureDefaults(f.ctx))
	return f
}

// fund registers username and credits balance through an approved top-up.
func (f *fixture) fund(t *testing.T, username string, base int64) *Session {
	t.Helper()
	session, err := f.identity.Register(f.ctx, username, "pass1")
	require.NoError(t, err)
	if base == 0 {
		return session
	}
	trx, err := f.topUps.Request(f.ctx, session, base, models.PaymentDANA)
	require.NoError(t, err)
	_, err = f.topUps.Approve(f.ctx, trx.ID)
	require.NoError(t, err)
	refreshed, err := f.identity.Session(session.Token)
	require.NoError(t, err)
	return refreshed
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	var user *models.User
	require.NoError(t, f.store.InTx(f.ctx, func(tx repository.Tx) error {
		var err error
		user, err = loadUserWithHistory(f.ctx, tx, username)
		return err
	}))
	return user
}

func (f *fixture) developerBalance(t *testing.T) int64 {
	t.Helper()
	ledger, err := f.purchases.DeveloperLedger(f.ctx)
	require.NoError(t, err)
	return ledger.Balance
}

func (f *fixture) stockCount(t *testing.T) int {
	t.Helper()
	n, err := f.stock.Count(f.ctx)
	require.NoError(t, err)
	return n
}
