package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	"github.com/smallbiznis/foundr/internal/sanitize"
	"github.com/smallbiznis/foundr/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tier.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListTierRequest) ([]domain.Tier, error) {
	userType := strings.ToLower(strings.TrimSpace(req.UserType))
	switch userType {
	case "", "founder", "partner", "investor":
	default:
		return nil, domain.ErrInvalidUserType
	}
	return s.repo.List(ctx, s.db, domain.ListFilter{UserType: userType})
}

func (s *Service) Get(ctx context.Context, id string) (domain.Tier, error) {
	id = strings.TrimSpace(id)
	if !sanitize.IsValidTierID(id) {
		return domain.Tier{}, domain.ErrInvalidTierID
	}
	tier, err := s.repo.FindActiveByID(ctx, s.db, id)
	if err != nil {
		return domain.Tier{}, err
	}
	if tier == nil {
		return domain.Tier{}, domain.ErrNotFound
	}
	return *tier, nil
}

func (s *Service) SyncCatalog(ctx context.Context, catalog config.TierCatalog) error {
	now := s.clock.Now()
	tiers := make([]domain.Tier, 0, len(catalog.Tiers))
	ids := make([]string, 0, len(catalog.Tiers))
	for _, spec := range catalog.Tiers {
		tiers = append(tiers, fromSpec(spec, now))
		ids = append(ids, spec.ID)
	}

	var deactivated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Upsert(ctx, tx, tiers); err != nil {
			return err
		}
		var err error
		deactivated, err = s.repo.DeactivateExcept(ctx, tx, ids)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("tier catalog synced",
		zap.Int("tiers", len(tiers)),
		zap.Int64("deactivated", deactivated),
	)
	return nil
}

func fromSpec(spec config.TierSpec, now time.Time) domain.Tier {
	tier := domain.Tier{
		ID:           spec.ID,
		Name:         spec.Name,
		Price:        spec.Price,
		DisplayPrice: spec.DisplayPrice,
		Currency:     spec.Currency,
		Features:     append([]string{}, spec.Features...),
		UserTypes:    append(domain.UserTypes{}, spec.UserTypes...),
		IsActive:     spec.IsActive(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if desc := strings.TrimSpace(spec.Description); desc != "" {
		tier.Description = &desc
	}
	if spec.OriginalPrice > 0 {
		original := spec.OriginalPrice
		tier.OriginalPrice = &original
	}
	return tier
}
