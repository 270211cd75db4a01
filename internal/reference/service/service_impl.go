package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/foundr/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("reference.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListCountries(ctx context.Context) ([]domain.Country, error) {
	return s.repo.ListCountries(ctx, s.db)
}

func (s *Service) ResolveCountry(ctx context.Context, value string) (*domain.Country, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		if id <= 0 {
			return nil, nil
		}
		return s.repo.FindCountryByID(ctx, s.db, id)
	}
	return s.repo.FindCountryByCodeOrName(ctx, s.db, value)
}

func (s *Service) SeedCountries(ctx context.Context) (domain.SeedResult, error) {
	var result domain.SeedResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.repo.CountCountries(ctx, tx)
		if err != nil {
			return err
		}
		if count > 0 {
			result.Skipped = true
			return nil
		}

		now := time.Now().UTC()
		countries := DefaultCountries()
		for i := range countries {
			countries[i].CreatedAt = now
			countries[i].UpdatedAt = now
		}
		if err := s.repo.InsertCountries(ctx, tx, countries); err != nil {
			return err
		}
		result.Inserted = len(countries)
		return nil
	})
	if err != nil {
		return domain.SeedResult{}, err
	}

	if result.Skipped {
		s.log.Debug("countries already seeded")
	} else {
		s.log.Info("countries seeded", zap.Int("inserted", result.Inserted))
	}
	return result, nil
}
