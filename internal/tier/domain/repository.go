package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Tier, error)
	FindActiveByID(ctx context.Context, db *gorm.DB, id string) (*Tier, error)
	Upsert(ctx context.Context, db *gorm.DB, tiers []Tier) error
	DeactivateExcept(ctx context.Context, db *gorm.DB, ids []string) (int64, error)
}

type ListFilter struct {
	UserType      string
	IncludeHidden bool
}
