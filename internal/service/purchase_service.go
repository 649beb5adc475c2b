package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

const credentialDateLayout = "2006-01-02"

type PurchaseService struct {
	log      *slog.Logger
	store    repository.Store
	wallet   *Wallet
	stock    *StockService
	sessions *SessionManager
	now      func() time.Time
}

func NewPurchaseService(log *slog.Logger, store repository.Store, wallet *Wallet, stock *StockService, sessions *SessionManager) *PurchaseService {
	return &PurchaseService{
		log:      log,
		store:    store,
		wallet:   wallet,
		stock:    stock,
		sessions: sessions,
		now:      time.Now,
	}
}

// Purchase sells one account of the given plan and type to the session's user. The
// stock draw, the debit, the developer credit and the transaction record commit
// together or not at all. The returned transaction is also kept on the session as its
// last purchase until dismissed.
func (s *PurchaseService) Purchase(ctx context.Context, session *Session, planID string, accountType models.AccountType) (*models.Transaction, error) {
	if session == nil {
		return nil, ErrAuthRequired
	}
	if session.IsAdmin() {
		return nil, ErrAdminPurchase
	}
	if !accountType.Valid() {
		return nil, ErrInvalidAccountType
	}

	var (
		trx   models.Transaction
		buyer *models.User
	)
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		plans, err := loadPlans(ctx, tx)
		if err != nil {
			return err
		}
		plan, err := findPlan(plans, planID)
		if err != nil {
			return err
		}
		price, err := plan.Price(accountType)
		if err != nil {
			return err
		}

		user, err := loadUserWithHistory(ctx, tx, session.User.Username)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if !CanAfford(user, price) {
			return &InsufficientBalanceError{Price: price, Balance: user.Balance, Shortfall: price - user.Balance}
		}

		item, err := s.stock.draw(ctx, tx)
		if err != nil {
			return err
		}

		now := s.now()
		id, err := newTransactionID("TRX")
		if err != nil {
			return err
		}
		trx = models.Transaction{
			ID:          id,
			Username:    user.Username,
			Type:        models.TransactionPurchase,
			PlanID:      plan.ID,
			Amount:      price,
			Timestamp:   now.UTC(),
			Status:      models.StatusSuccess,
			AccountType: accountType,
			Credentials: issueCredentials(item, now),
		}

		buyer, err = s.wallet.ApplyPurchase(ctx, tx, user, price, trx)
		if err != nil {
			return err
		}
		return creditDeveloper(ctx, tx, price)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase completed", "id", trx.ID, "username", trx.Username, "plan_id", trx.PlanID, "account_type", trx.AccountType, "amount", trx.Amount)
	s.sessions.RefreshUser(buyer)
	s.sessions.SetLastPurchase(session.Token, &trx)
	return &trx, nil
}

// DismissLastPurchase clears the credential reveal kept on the session.
func (s *PurchaseService) DismissLastPurchase(session *Session) {
	if session != nil {
		s.sessions.ClearLastPurchase(session.Token)
	}
}

// DeveloperLedger returns the revenue counter and every purchase in the order it was made.
func (s *PurchaseService) DeveloperLedger(ctx context.Context) (*models.DeveloperLedger, error) {
	ledger := &models.DeveloperLedger{}
	err := s.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetSetting(ctx, repository.SettingDeveloperBalance, &ledger.Balance); err != nil {
			return err
		}
		purchases, err := tx.ListTransactions(ctx, repository.TransactionFilter{Type: models.TransactionPurchase})
		if err != nil {
			return err
		}
		ledger.Transactions = nonNil(purchases)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func creditDeveloper(ctx context.Context, tx repository.Tx, amount int64) error {
	var balance int64
	if _, err := tx.GetSetting(ctx, repository.SettingDeveloperBalance, &balance); err != nil {
		return err
	}
	return tx.PutSetting(ctx, repository.SettingDeveloperBalance, balance+amount)
}

func issueCredentials(item models.StockItem, issuedAt time.Time) *models.Credentials {
	creds := &models.Credentials{
		Email:      item.Email,
		AccessLink: item.Link,
		ExpiresAt:  issuedAt.AddDate(0, 1, 0).Format(credentialDateLayout),
	}
	if item.Link != "" {
		creds.Password = models.PasswordSentinel
	}
	return creds
}
