package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	"github.com/smallbiznis/foundr/internal/testutil/dbtest"
	"github.com/smallbiznis/foundr/internal/tier/domain"
	"github.com/smallbiznis/foundr/internal/tier/repository"
	"github.com/smallbiznis/foundr/internal/tier/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) domain.Service {
	t.Helper()
	return service.New(service.Params{
		DB:    dbtest.Open(t),
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func defaultCatalog(t *testing.T) config.TierCatalog {
	t.Helper()
	holder, err := config.NewStaticTierCatalogHolder(config.DefaultTierCatalog())
	require.NoError(t, err)
	return holder.Get()
}

func TestSyncCatalogAndList(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.SyncCatalog(ctx, defaultCatalog(t)))

	tiers, err := svc.List(ctx, domain.ListTierRequest{})
	require.NoError(t, err)
	require.Len(t, tiers, 5)
	assert.Equal(t, "explorer", tiers[0].ID)
	assert.Equal(t, "legacy", tiers[4].ID)
	assert.Len(t, tiers[2].Features, 6)
	assert.Equal(t, domain.UserTypes{"founder"}, tiers[2].UserTypes)

	founders, err := svc.List(ctx, domain.ListTierRequest{UserType: "Founder"})
	require.NoError(t, err)
	assert.Len(t, founders, 5)

	partners, err := svc.List(ctx, domain.ListTierRequest{UserType: "partner"})
	require.NoError(t, err)
	assert.Empty(t, partners)

	_, err = svc.List(ctx, domain.ListTierRequest{UserType: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidUserType)
}

func TestGetTier(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.SyncCatalog(ctx, defaultCatalog(t)))

	forge, err := svc.Get(ctx, "forge")
	require.NoError(t, err)
	assert.Equal(t, int64(29900), forge.PriceCents())
	assert.False(t, forge.IsFree())

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "abc;drop")
	assert.ErrorIs(t, err, domain.ErrInvalidTierID)
}

func TestSyncCatalogDeactivatesRemovedTiers(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	catalog := defaultCatalog(t)
	require.NoError(t, svc.SyncCatalog(ctx, catalog))

	catalog.Tiers = catalog.Tiers[:2]
	catalog.Tiers[1].Price = 89
	require.NoError(t, svc.SyncCatalog(ctx, catalog))

	tiers, err := svc.List(ctx, domain.ListTierRequest{})
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, 89.0, tiers[1].Price)

	_, err = svc.Get(ctx, "legacy")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
