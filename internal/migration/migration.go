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
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	franchisedomain "github.com/smallbiznis/franchisehub/internal/franchise/domain"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	purchasedomain "github.com/smallbiznis/franchisehub/internal/purchase/domain"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded SQL migrations to a PostgreSQL database.
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
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// Models lists the tables owned by the engine, for dialects without SQL
// migrations and for tests.
func Models() []any {
	return []any{
		&franchisedomain.Franchise{},
		&salesdomain.SalesRecord{},
		&purchasedomain.PurchaseRecord{},
		&obligationdomain.PaymentObligation{},
		&compliancedomain.Snapshot{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema through gorm.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
