package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/foundr/internal/tier/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Tier, error) {
	var tiers []domain.Tier
	stmt := db.WithContext(ctx).Model(&domain.Tier{})
	if !filter.IncludeHidden {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("price asc, id asc").Find(&tiers).Error; err != nil {
		return nil, err
	}

	// user_types is an array column on postgres and text elsewhere, so the
	// membership test runs in Go rather than in dialect-specific SQL.
	if filter.UserType == "" {
		return tiers, nil
	}
	out := tiers[:0]
	for _, t := range tiers {
		if t.AppliesTo(filter.UserType) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *repo) FindActiveByID(ctx context.Context, db *gorm.DB, id string) (*domain.Tier, error) {
	var tier domain.Tier
	err := db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		Take(&tier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, tiers []domain.Tier) error {
	if len(tiers) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "price", "display_price", "original_price",
				"currency", "features", "user_types", "is_active", "updated_at",
			}),
		}).
		Create(&tiers).Error
}

func (r *repo) DeactivateExcept(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Tier{}).Where("is_active = ?", true)
	if len(ids) > 0 {
		stmt = stmt.Where("id NOT IN ?", ids)
	}
	res := stmt.Update("is_active", false)
	return res.RowsAffected, res.Error
}
