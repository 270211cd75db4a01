package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	investordomain "github.com/smallbiznis/foundr/internal/investor/domain"
	memberdomain "github.com/smallbiznis/foundr/internal/member/domain"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	referencedomain "github.com/smallbiznis/foundr/internal/reference/domain"
	subscriptiondomain "github.com/smallbiznis/foundr/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/foundr/internal/tier/domain"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql"

// RunMigrations applies the embedded postgres schema. It is a no-op when the
// database is already at the latest version.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&referencedomain.Country{},
		&tierdomain.Tier{},
		&memberdomain.Member{},
		&memberdomain.Founder{},
		&memberdomain.Partner{},
		&memberdomain.Investor{},
		&paymentdomain.PaymentIntent{},
		&paymentdomain.WebhookEvent{},
		&subscriptiondomain.MemberSubscription{},
		&investordomain.InterestSubmission{},
	}
}

// AutoMigrate builds the schema from the models. It backs the mysql and
// sqlite dialects, which the embedded SQL does not target.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
