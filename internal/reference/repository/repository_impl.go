package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/foundr/internal/reference/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListCountries(ctx context.Context, db *gorm.DB) ([]domain.Country, error) {
	var countries []domain.Country
	err := db.WithContext(ctx).
		Raw(`SELECT id, code, name, created_at, updated_at FROM countries ORDER BY name`).
		Scan(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *repo) FindCountryByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Country, error) {
	var country domain.Country
	err := db.WithContext(ctx).
		Raw(`SELECT id, code, name, created_at, updated_at FROM countries WHERE id = ?`, id).
		Scan(&country).Error
	if err != nil {
		return nil, err
	}
	if country.ID == 0 {
		return nil, nil
	}
	return &country, nil
}

func (r *repo) FindCountryByCodeOrName(ctx context.Context, db *gorm.DB, value string) (*domain.Country, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var country domain.Country
	err := db.WithContext(ctx).
		Raw(`SELECT id, code, name, created_at, updated_at FROM countries
		 WHERE UPPER(code) = ? OR LOWER(name) = ?
		 ORDER BY id LIMIT 1`,
			strings.ToUpper(value),
			strings.ToLower(value),
		).
		Scan(&country).Error
	if err != nil {
		return nil, err
	}
	if country.ID == 0 {
		return nil, nil
	}
	return &country, nil
}

func (r *repo) CountCountries(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Country{}).Count(&count).Error
	return count, err
}

func (r *repo) InsertCountries(ctx context.Context, db *gorm.DB, countries []domain.Country) error {
	if len(countries) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&countries).Error
}
