package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

// Wallet applies balance changes inside a caller's unit of work. It never opens its own
// transaction, so debits and credits commit together with whatever else the caller does.
type Wallet struct {
	log *slog.Logger
}

func NewWallet(log *slog.Logger) *Wallet {
	return &Wallet{log: log}
}

func CanAfford(user *models.User, amount int64) bool {
	return user != nil && user.Balance >= amount
}

// ApplyPurchase debits amount and records trx. The returned user carries the new balance
// with trx prepended to its history.
func (w *Wallet) ApplyPurchase(ctx context.Context, tx repository.Tx, user *models.User, amount int64, trx models.Transaction) (*models.User, error) {
	if user.IsAdmin() {
		return nil, ErrAdminNotSpendable
	}
	if !CanAfford(user, amount) {
		return nil, &InsufficientBalanceError{Price: amount, Balance: user.Balance, Shortfall: amount - user.Balance}
	}

	updated := *user
	updated.Balance = user.Balance - amount
	if err := tx.UpdateBalance(ctx, updated.Username, updated.Balance); err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if err := tx.InsertTransaction(ctx, &trx); err != nil {
		return nil, err
	}
	updated.Transactions = append([]models.Transaction{trx}, user.Transactions...)
	return &updated, nil
}

// ApplyTopUpCredit credits the owner of a top-up and marks it SUCCESS. It reports false,
// without touching any balance, when the owner has no record.
func (w *Wallet) ApplyTopUpCredit(ctx context.Context, tx repository.Tx, username string, amount int64, transactionID string) (bool, error) {
	user, err := tx.GetUser(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if err := tx.UpdateBalance(ctx, username, user.Balance+amount); err != nil {
		return false, fmt.Errorf("credit wallet: %w", err)
	}
	if err := tx.UpdateTransactionStatus(ctx, transactionID, models.StatusSuccess); err != nil {
		return false, err
	}
	return true, nil
}

// MarkTopUpFailed follows the same lookup contract as ApplyTopUpCredit.
func (w *Wallet) MarkTopUpFailed(ctx context.Context, tx repository.Tx, username string, transactionID string) (bool, error) {
	user, err := tx.GetUser(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if err := tx.UpdateTransactionStatus(ctx, transactionID, models.StatusFailed); err != nil {
		return false, err
	}
	return true, nil
}
