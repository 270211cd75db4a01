package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTierCatalogIsValid(t *testing.T) {
	catalog, err := NormalizeTierCatalog(DefaultTierCatalog())
	require.NoError(t, err)
	require.Len(t, catalog.Tiers, 5)

	prices := map[string]float64{}
	for _, tier := range catalog.Tiers {
		prices[tier.ID] = tier.Price
		assert.Equal(t, "EUR", tier.Currency)
		assert.Equal(t, []string{"founder"}, tier.UserTypes)
		assert.True(t, tier.IsActive())
	}
	assert.Equal(t, map[string]float64{
		"explorer": 0,
		"ignite":   79,
		"forge":    299,
		"vanguard": 699,
		"legacy":   1399,
	}, prices)
}

func TestNormalizeTierCatalogDerivesIDFromName(t *testing.T) {
	catalog, err := NormalizeTierCatalog(TierCatalog{Tiers: []TierSpec{
		{Name: "Angel Circle", Price: 500, UserTypes: []string{"Investor"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "angel-circle", catalog.Tiers[0].ID)
	assert.Equal(t, []string{"investor"}, catalog.Tiers[0].UserTypes)
	assert.Equal(t, "EUR 500", catalog.Tiers[0].DisplayPrice)
}

func TestNormalizeTierCatalogRejectsInvalid(t *testing.T) {
	cases := map[string]TierCatalog{
		"empty":         {},
		"bad id":        {Tiers: []TierSpec{{ID: "abc;drop", Name: "Bad"}}},
		"negative":      {Tiers: []TierSpec{{ID: "neg", Name: "Neg", Price: -1}}},
		"unknown type":  {Tiers: []TierSpec{{ID: "x", Name: "X", UserTypes: []string{"admin"}}}},
		"duplicate ids": {Tiers: []TierSpec{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}},
	}
	for name, catalog := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeTierCatalog(catalog)
			assert.Error(t, err)
		})
	}
}

func TestTierCatalogHolderNotifiesOnReplace(t *testing.T) {
	holder, err := NewStaticTierCatalogHolder(DefaultTierCatalog())
	require.NoError(t, err)

	var got TierCatalog
	holder.OnChange(func(c TierCatalog) { got = c })

	require.NoError(t, holder.Replace(TierCatalog{Tiers: []TierSpec{{ID: "solo", Name: "Solo"}}}))
	require.Len(t, got.Tiers, 1)
	assert.Equal(t, "solo", holder.Get().Tiers[0].ID)

	assert.Error(t, holder.Replace(TierCatalog{}))
	assert.Equal(t, "solo", holder.Get().Tiers[0].ID)
}
