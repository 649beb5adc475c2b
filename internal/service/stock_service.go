package service

import (
	"context"
	"log/slog"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

// Draw picks one item uniformly at random and returns it with the rest of the pool in
// its original order. pool is not modified.
func Draw(pool []models.StockItem, intn func(n int) int) (models.StockItem, []models.StockItem, error) {
	if len(pool) == 0 {
		return models.StockItem{}, nil, ErrOutOfStock
	}
	idx := intn(len(pool))
	remaining := make([]models.StockItem, 0, len(pool)-1)
	remaining = append(remaining, pool[:idx]...)
	remaining = append(remaining, pool[idx+1:]...)
	return pool[idx], remaining, nil
}

type StockService struct {
	log   *slog.Logger
	store repository.Store
	intn  func(n int) int
	seed  []models.StockItem
}

func NewStockService(log *slog.Logger, store repository.Store, intn func(n int) int) *StockService {
	return &StockService{
		log:   log,
		store: store,
		intn:  intn,
		seed:  SeedStock(),
	}
}

// EnsureSeeded fills the pool with the seed list once, on first start. A pool drained
// by purchases afterwards stays empty until an explicit Reset.
func (s *StockService) EnsureSeeded(ctx context.Context) error {
	return s.store.InTx(ctx, func(tx repository.Tx) error {
		var seeded bool
		if _, err := tx.GetSetting(ctx, repository.SettingStockSeeded, &seeded); err != nil || seeded {
			return err
		}
		items, err := tx.ListStock(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			s.log.Info("seeding stock pool", "items", len(s.seed))
			if err := tx.ReplaceStock(ctx, s.seed); err != nil {
				return err
			}
		}
		return tx.PutSetting(ctx, repository.SettingStockSeeded, true)
	})
}

func (s *StockService) List(ctx context.Context) ([]models.StockItem, error) {
	var items []models.StockItem
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		items, err = tx.ListStock(ctx)
		return err
	})
	return items, err
}

func (s *StockService) Count(ctx context.Context) (int, error) {
	items, err := s.List(ctx)
	return len(items), err
}

// Reset discards the current pool, including manual edits, and restores the seed list.
func (s *StockService) Reset(ctx context.Context, confirm bool) ([]models.StockItem, error) {
	if !confirm {
		return nil, ErrConfirmationRequired
	}
	if err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.ReplaceStock(ctx, s.seed)
	}); err != nil {
		return nil, err
	}
	s.log.Info("stock pool reset", "items", len(s.seed))
	return SeedStock(), nil
}

// draw removes one random item from the pool inside the caller's unit of work.
func (s *StockService) draw(ctx context.Context, tx repository.Tx) (models.StockItem, error) {
	pool, err := tx.ListStock(ctx)
	if err != nil {
		return models.StockItem{}, err
	}
	item, _, err := Draw(pool, s.intn)
	if err != nil {
		return models.StockItem{}, err
	}
	if err := tx.RemoveStock(ctx, item.Email); err != nil {
		return models.StockItem{}, err
	}
	return item, nil
}
