package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migrator struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewDatabaseMigrator(db *sqlx.DB, logger *slog.Logger) *migrator {
	return &migrator{
		db:     db,
		logger: logger,
	}
}

// newMigrateInstance creates schemaName if needed and returns a migrate instance scoped to it
//
// The caller must close the returned instance before closing conn.
func newMigrateInstance(ctx context.Context, conn *sql.Conn, schemaName string) (*migrate.Migrate, error) {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schemaName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(schemaName)))
	if err != nil {
		return nil, fmt.Errorf("failed to set search path: %w", err)
	}

	migrationSource, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	dbDriver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		DatabaseName: DB_NAME,
		SchemaName:   schemaName,
	})
	if err != nil {
		migrationSource.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", migrationSource, "postgres", dbDriver)
	if err != nil {
		migrationSource.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return instance, nil
}

// Migrate runs all pending migrations in schemaName
func (m *migrator) Migrate(ctx context.Context, schemaName string) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate: failed to connect to db: %w", err)
	}
	defer conn.Close()

	instance, err := newMigrateInstance(ctx, conn, schemaName)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer instance.Close()

	logger := m.logger.With(slog.String("schema", schemaName))

	version, dirty, err := instance.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.InfoContext(ctx, "Schema has no migrations applied")
	case err != nil:
		return fmt.Errorf("migrate: failed to read version: %w", err)
	case dirty:
		// A previous run failed midway and needs manual cleanup
		return fmt.Errorf("migrate: schema %s is dirty at version %d", schemaName, version)
	default:
		logger.InfoContext(ctx, "Current schema version", "version", version)
	}

	err = instance.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.InfoContext(ctx, "Schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate: failed to migrate: %w", err)
	}

	version, _, err = instance.Version()
	if err != nil {
		return fmt.Errorf("migrate: failed to read version after migrating: %w", err)
	}
	logger.InfoContext(ctx, "Migrated schema", "version", version)

	return nil
}
