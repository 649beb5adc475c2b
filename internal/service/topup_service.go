package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

// maxTopUpSuffix bounds the random verification suffix added to each request, so the
// admin can match a transfer to a request by its last three digits.
const maxTopUpSuffix = 999

// TopUpResolution is the outcome of approving or rejecting a request. Credited is false
// when the request's owner no longer has a record and nothing could be applied.
type TopUpResolution struct {
	Transaction models.Transaction `json:"transaction"`
	Credited    bool               `json:"credited"`
}

type TopUpService struct {
	log      *slog.Logger
	store    repository.Store
	wallet   *Wallet
	sessions *SessionManager
	notifier Notifier
	amounts  []int64
	intn     func(n int) int
	now      func() time.Time
}

func NewTopUpService(log *slog.Logger, store repository.Store, wallet *Wallet, sessions *SessionManager, notifier Notifier, amounts []int64, intn func(n int) int) *TopUpService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TopUpService{
		log:      log,
		store:    store,
		wallet:   wallet,
		sessions: sessions,
		notifier: notifier,
		amounts:  amounts,
		intn:     intn,
		now:      time.Now,
	}
}

// Amounts lists the base amounts a user may request.
func (s *TopUpService) Amounts() []int64 {
	return slices.Clone(s.amounts)
}

// Request files a PENDING top-up for the session's user. The balance is untouched until
// the admin approves it.
func (s *TopUpService) Request(ctx context.Context, session *Session, baseAmount int64, method models.PaymentMethod) (*models.Transaction, error) {
	if session == nil {
		return nil, ErrAuthRequired
	}
	if session.IsAdmin() {
		return nil, ErrAdminNotSpendable
	}
	if !slices.Contains(s.amounts, baseAmount) {
		return nil, ErrInvalidAmount
	}
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	id, err := newTransactionID("TOP")
	if err != nil {
		return nil, err
	}
	trx := models.Transaction{
		ID:            id,
		Username:      session.User.Username,
		Type:          models.TransactionTopUp,
		Amount:        baseAmount + int64(s.intn(maxTopUpSuffix)),
		Timestamp:     s.now().UTC(),
		Status:        models.StatusPending,
		PaymentMethod: method,
	}

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		owner, err := tx.GetUser(ctx, trx.Username)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}
		return tx.InsertTransaction(ctx, &trx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("top-up requested", "id", trx.ID, "username", trx.Username, "amount", trx.Amount, "method", trx.PaymentMethod)
	s.notifier.TopUpRequested(ctx, trx)
	return &trx, nil
}

// Pending returns the review queue, newest first.
func (s *TopUpService) Pending(ctx context.Context) ([]models.Transaction, error) {
	var pending []models.Transaction
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		pending, err = tx.ListTransactions(ctx, repository.TransactionFilter{
			Type:        models.TransactionTopUp,
			Status:      models.StatusPending,
			NewestFirst: true,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list pending top-ups: %w", err)
	}
	return nonNil(pending), nil
}

// Approve credits the owner's wallet and closes the request.
func (s *TopUpService) Approve(ctx context.Context, id string) (*TopUpResolution, error) {
	return s.resolve(ctx, id, true)
}

// Reject closes the request as FAILED without touching any balance.
func (s *TopUpService) Reject(ctx context.Context, id string) (*TopUpResolution, error) {
	return s.resolve(ctx, id, false)
}

func (s *TopUpService) resolve(ctx context.Context, id string, approve bool) (*TopUpResolution, error) {
	var (
		result TopUpResolution
		owner  *models.User
	)
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		trx, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if trx == nil || trx.Type != models.TransactionTopUp {
			return ErrTopUpNotFound
		}
		if trx.Status != models.StatusPending {
			return ErrTopUpResolved
		}

		var applied bool
		if approve {
			applied, err = s.wallet.ApplyTopUpCredit(ctx, tx, trx.Username, trx.Amount, trx.ID)
		} else {
			applied, err = s.wallet.MarkTopUpFailed(ctx, tx, trx.Username, trx.ID)
		}
		if err != nil {
			return err
		}

		result.Credited = approve && applied
		if !applied {
			// The owner is gone: close the request so it leaves the queue.
			if err := tx.UpdateTransactionStatus(ctx, trx.ID, models.StatusFailed); err != nil {
				return err
			}
			trx.Status = models.StatusFailed
			result.Transaction = *trx
			return nil
		}

		if approve {
			trx.Status = models.StatusSuccess
		} else {
			trx.Status = models.StatusFailed
		}
		result.Transaction = *trx
		owner, err = loadUserWithHistory(ctx, tx, trx.Username)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch {
	case owner == nil:
		s.log.Warn("top-up owner missing, request closed without credit", "id", id, "username", result.Transaction.Username)
	case approve:
		s.log.Info("top-up approved", "id", id, "username", owner.Username, "amount", result.Transaction.Amount)
		s.sessions.RefreshUser(owner)
	default:
		s.log.Info("top-up rejected", "id", id, "username", owner.Username)
		s.sessions.RefreshUser(owner)
	}
	return &result, nil
}

func newTransactionID(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	return prefix + "-" + id.String(), nil
}
