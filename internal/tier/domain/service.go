package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/foundr/internal/config"
)

type ListTierRequest struct {
	UserType string
}

type Service interface {
	List(ctx context.Context, req ListTierRequest) ([]Tier, error)
	// Get returns an active tier or ErrNotFound.
	Get(ctx context.Context, id string) (Tier, error)
	// SyncCatalog upserts every catalog tier and deactivates tiers no longer listed.
	SyncCatalog(ctx context.Context, catalog config.TierCatalog) error
}

var (
	ErrInvalidTierID   = errors.New("invalid_tier_id")
	ErrInvalidUserType = errors.New("invalid_user_type")
	ErrNotFound        = errors.New("tier_not_found")
)
