package repository

import (
	"context"
	"errors"

	"github.com/digkill/PresetStore/internal/models"
)

var (
	ErrDuplicate = errors.New("record already exists")
	ErrNotFound  = errors.New("record not found")
	ErrReadOnly  = errors.New("write inside a read-only unit")
)

// Names of the singleton documents kept in the settings table.
const (
	SettingPlanCatalog      = "plan_catalog"
	SettingAnnouncement     = "announcement"
	SettingDeveloperBalance = "developer_balance"
	SettingStockSeeded      = "stock_seeded"
)

// TransactionFilter selects rows from the transaction table. Empty fields match everything.
type TransactionFilter struct {
	Username    string
	Type        models.TransactionType
	Status      models.TransactionStatus
	NewestFirst bool
}

func (f TransactionFilter) Match(t models.Transaction) bool {
	if f.Username != "" && t.Username != f.Username {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// Tx is a unit of work. Reads performed through a Tx lock what they return until the
// unit commits, so read-modify-write sequences inside one InTx call are serialised.
// Lookups of a single record return nil, nil when it does not exist.
type Tx interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateBalance(ctx context.Context, username string, balance int64) error

	InsertTransaction(ctx context.Context, trx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)

	ListStock(ctx context.Context) ([]models.StockItem, error)
	RemoveStock(ctx context.Context, email string) error
	ReplaceStock(ctx context.Context, items []models.StockItem) error

	GetSetting(ctx context.Context, name string, dst any) (bool, error)
	PutSetting(ctx context.Context, name string, value any) error
}

// Store commits every change made by fn atomically, or none of them when fn fails.
// View runs fn as a read-only unit that takes no row locks. Writes inside it fail.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
