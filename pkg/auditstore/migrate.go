package auditstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/marmos91/cfdpgo/pkg/auditstore/migrations"
)

// RunMigrations applies the audit schema to a PostgreSQL backend through
// golang-migrate, independent of the AutoMigrate path Open takes for
// SQLite. It's meant for operators who run schema changes explicitly
// ahead of a deployment rather than let the process apply them at
// startup; golang-migrate's advisory locks keep concurrent daemons from
// racing each other.
func RunMigrations(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	if cfg.Type != DatabaseTypePostgres {
		return fmt.Errorf("auditstore: explicit migrations only apply to postgres, got %q", cfg.Type)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("auditstore: invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("auditstore: open database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("auditstore: ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "audit_schema_migrations",
		DatabaseName:    cfg.Postgres.Database,
	})
	if err != nil {
		return fmt.Errorf("auditstore: create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("auditstore: create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("auditstore: create migrate instance: %w", err)
	}

	logger.Info("applying audit store migrations")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("auditstore: migration failed: %w", err)
	} else if err == migrate.ErrNoChange {
		logger.Info("audit schema already up to date")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("auditstore: get migration version: %w", err)
	}
	if err == nil && dirty {
		logger.Warn("audit schema is in a dirty state", "version", version)
	}
	return nil
}
