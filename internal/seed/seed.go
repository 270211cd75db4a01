package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/foundr/internal/config"
	referencedomain "github.com/smallbiznis/foundr/internal/reference/domain"
	tierdomain "github.com/smallbiznis/foundr/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const reloadTimeout = 10 * time.Second

// Module seeds reference data after migrations. It must be registered after
// the migration module.
var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Catalog      *config.TierCatalogHolder
	TierSvc      tierdomain.Service
	ReferenceSvc referencedomain.Service
}

// Run syncs the tier catalog, seeds the default countries when the table is
// empty and re-syncs tiers whenever the catalog file changes.
func Run(p Params) error {
	log := p.Log.Named("seed")
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	catalog := p.Catalog.Get()
	if err := p.TierSvc.SyncCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("seed tiers: %w", err)
	}

	res, err := p.ReferenceSvc.SeedCountries(ctx)
	if err != nil {
		return fmt.Errorf("seed countries: %w", err)
	}
	log.Info("reference data ready",
		zap.Int("tiers", len(catalog.Tiers)),
		zap.Int("countries_inserted", res.Inserted),
		zap.Bool("countries_skipped", res.Skipped),
	)

	p.Catalog.OnChange(func(next config.TierCatalog) {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := p.TierSvc.SyncCatalog(ctx, next); err != nil {
			log.Error("failed to sync reloaded tier catalog", zap.Error(err))
			return
		}
		log.Info("tier catalog synced", zap.Int("tiers", len(next.Tiers)))
	})
	return nil
}
