// Package migration applies the embedded fiscal schema on startup.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var schema embed.FS

// RunMigrations brings the postgres schema up to the latest embedded
// version. The caller keeps ownership of db; the migrator is never
// closed because that would close the shared handle.
func RunMigrations(db *sql.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	source, err := iofs.New(schema, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded schema: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Info("schema migrated",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
