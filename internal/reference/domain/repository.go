package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListCountries(ctx context.Context, db *gorm.DB) ([]Country, error)
	FindCountryByID(ctx context.Context, db *gorm.DB, id int64) (*Country, error)
	FindCountryByCodeOrName(ctx context.Context, db *gorm.DB, value string) (*Country, error)
	CountCountries(ctx context.Context, db *gorm.DB) (int64, error)
	InsertCountries(ctx context.Context, db *gorm.DB, countries []Country) error
}
