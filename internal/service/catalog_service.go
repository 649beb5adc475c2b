package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/repository"
)

// CatalogService owns the plan catalog and the site announcement. Both are replaced
// wholesale by the admin.
type CatalogService struct {
	log   *slog.Logger
	store repository.Store
}

func NewCatalogService(log *slog.Logger, store repository.Store) *CatalogService {
	return &CatalogService{log: log, store: store}
}

// EnsureDefaults installs the default catalog, the announcement and a zero revenue
// counter when they are missing.
func (s *CatalogService) EnsureDefaults(ctx context.Context) error {
	return s.store.InTx(ctx, func(tx repository.Tx) error {
		var plans []models.Plan
		found, err := tx.GetSetting(ctx, repository.SettingPlanCatalog, &plans)
		if err != nil {
			return err
		}
		if !found {
			s.log.Info("installing default plan catalog")
			if err := tx.PutSetting(ctx, repository.SettingPlanCatalog, DefaultPlans()); err != nil {
				return err
			}
		}

		var announcement models.Announcement
		found, err = tx.GetSetting(ctx, repository.SettingAnnouncement, &announcement)
		if err != nil {
			return err
		}
		if !found {
			if err := tx.PutSetting(ctx, repository.SettingAnnouncement, DefaultAnnouncement()); err != nil {
				return err
			}
		}

		// The revenue counter row must exist before purchases lock it.
		var balance int64
		found, err = tx.GetSetting(ctx, repository.SettingDeveloperBalance, &balance)
		if err != nil || found {
			return err
		}
		return tx.PutSetting(ctx, repository.SettingDeveloperBalance, int64(0))
	})
}

func (s *CatalogService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		plans, err = loadPlans(ctx, tx)
		return err
	})
	return plans, err
}

func (s *CatalogService) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	plans, err := s.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	return findPlan(plans, id)
}

// UpdatePlan replaces the plan with the same id. Unknown ids are rejected rather than
// appended.
func (s *CatalogService) UpdatePlan(ctx context.Context, plan models.Plan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		plans, err := loadPlans(ctx, tx)
		if err != nil {
			return err
		}
		for i := range plans {
			if plans[i].ID == plan.ID {
				plans[i] = plan
				return tx.PutSetting(ctx, repository.SettingPlanCatalog, plans)
			}
		}
		return ErrPlanNotFound
	})
	if err != nil {
		return err
	}
	s.log.Info("plan updated", "plan_id", plan.ID)
	return nil
}

func (s *CatalogService) Announcement(ctx context.Context) (models.Announcement, error) {
	announcement := DefaultAnnouncement()
	err := s.store.View(ctx, func(tx repository.Tx) error {
		_, err := tx.GetSetting(ctx, repository.SettingAnnouncement, &announcement)
		return err
	})
	return announcement, err
}

func (s *CatalogService) UpdateAnnouncement(ctx context.Context, announcement models.Announcement) error {
	if err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.PutSetting(ctx, repository.SettingAnnouncement, announcement)
	}); err != nil {
		return err
	}
	s.log.Info("announcement updated", "active", announcement.IsActive)
	return nil
}

func loadPlans(ctx context.Context, tx repository.Tx) ([]models.Plan, error) {
	var plans []models.Plan
	found, err := tx.GetSetting(ctx, repository.SettingPlanCatalog, &plans)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultPlans(), nil
	}
	return plans, nil
}

func findPlan(plans []models.Plan, id string) (*models.Plan, error) {
	for i := range plans {
		if plans[i].ID == id {
			plan := plans[i]
			return &plan, nil
		}
	}
	return nil, ErrPlanNotFound
}
