package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/foundr/internal/reference/repository"
	"github.com/smallbiznis/foundr/internal/reference/service"
	"github.com/smallbiznis/foundr/internal/testutil/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedCountriesOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	svc := service.New(service.Params{DB: dbtest.Open(t), Log: zap.NewNop(), Repo: repository.Provide()})

	res, err := svc.SeedCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(service.DefaultCountries()), res.Inserted)
	assert.False(t, res.Skipped)

	res, err = svc.SeedCountries(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.True(t, res.Skipped)

	countries, err := svc.ListCountries(ctx)
	require.NoError(t, err)
	assert.Len(t, countries, len(service.DefaultCountries()))
}

func TestResolveCountry(t *testing.T) {
	ctx := context.Background()
	svc := service.New(service.Params{DB: dbtest.Open(t), Log: zap.NewNop(), Repo: repository.Provide()})
	_, err := svc.SeedCountries(ctx)
	require.NoError(t, err)

	byCode, err := svc.ResolveCountry(ctx, "de")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, "DE", byCode.Code)

	byName, err := svc.ResolveCountry(ctx, "germany")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, byCode.ID, byName.ID)

	byID, err := svc.ResolveCountry(ctx, "1")
	require.NoError(t, err)
	assert.NotNil(t, byID)

	unknown, err := svc.ResolveCountry(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	empty, err := svc.ResolveCountry(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, empty)
}
