package migration

import (
	"github.com/smallbiznis/foundr/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run migrates the schema for the configured dialect.
func Run(conn *gorm.DB, cfg db.Config, log *zap.Logger) error {
	if cfg.Type != db.TypePostgres {
		log.Info("applying schema with gorm auto-migrate", zap.String("dialect", cfg.Type))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("database migrations applied")
	return nil
}
