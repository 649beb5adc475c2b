package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/PresetStore/internal/models"
)

func TestEnsureDefaultsInstallsCatalog(t *testing.T) {
	f := newFixture(t)

	plans, err := f.catalog.ListPlans(f.ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "monthly", plans[0].ID)
	assert.True(t, plans[1].Recommended)

	price, err := plans[0].Price(models.AccountSharing)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), price)

	announcement, err := f.catalog.Announcement(f.ctx)
	require.NoError(t, err)
	assert.True(t, announcement.IsActive)
}

func TestEnsureDefaultsKeepsAdminEdits(t *testing.T) {
	f := newFixture(t)
	plan := DefaultPlans()[1]
	plan.Name = "Paket Tahunan Promo"
	require.NoError(t, f.catalog.UpdatePlan(f.ctx, plan))
	require.NoError(t, f.catalog.UpdateAnnouncement(f.ctx, models.Announcement{Text: "Libur", IsActive: false}))

	require.NoError(t, f.catalog.EnsureDefaults(f.ctx))

	got, err := f.catalog.GetPlan(f.ctx, "yearly")
	require.NoError(t, err)
	assert.Equal(t, "Paket Tahunan Promo", got.Name)

	announcement, err := f.catalog.Announcement(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Announcement{Text: "Libur", IsActive: false}, announcement)
}

func TestUpdatePlanValidation(t *testing.T) {
	f := newFixture(t)

	unpriced := models.Plan{ID: "monthly", Name: "Paket Bulanan"}
	assert.ErrorIs(t, f.catalog.UpdatePlan(f.ctx, unpriced), models.ErrNoPrice)

	unknown := DefaultPlans()[0]
	unknown.ID = "weekly"
	assert.ErrorIs(t, f.catalog.UpdatePlan(f.ctx, unknown), ErrPlanNotFound)

	_, err := f.catalog.GetPlan(f.ctx, "weekly")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}
