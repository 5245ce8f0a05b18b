package database

import (
	"errors"
	"fmt"

	"github.com/pr-poehali-dev/messenger-design-project/pkg/database/migrations"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// MigrateResult describes what happened during migration.
type MigrateResult struct {
	Version uint
	Dirty   bool
	Changed bool
}

// The migrate instance is never closed: closing it would close the shared pool underneath.
func newMigrator(db *gorm.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("migration database: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(db *gorm.DB) (*MigrateResult, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	err = m.Up()
	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed = false
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("migration up: %w", err)
	}

	return version(m, changed)
}

// MigrateDown rolls back every applied migration.
func MigrateDown(db *gorm.DB) (*MigrateResult, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	err = m.Down()
	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed = false
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("migration down: %w", err)
	}

	return version(m, changed)
}

// MigrationStatus reports the current schema version without changing anything.
func MigrationStatus(db *gorm.DB) (*MigrateResult, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}
	return version(m, false)
}

func version(m *migrate.Migrate, changed bool) (*MigrateResult, error) {
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("migration version: %w", err)
	}
	return &MigrateResult{Version: v, Dirty: dirty, Changed: changed}, nil
}
