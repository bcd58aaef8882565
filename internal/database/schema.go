package database

import (
	"context"
	"fmt"
	"log/slog"

	"faceblog/internal/middleware"

	"gorm.io/gorm"
)

// SchemaStatus describes which migrations a database has applied.
type SchemaStatus struct {
	Driver            string
	UsesSQLMigrations bool
	AppliedVersions   []int
	PendingMigrations []Migration
}

// usesSQLMigrations reports whether the embedded Postgres migrations manage
// the schema. SQLite (local development and tests) is managed by AutoMigrate.
func usesSQLMigrations(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// ApplySchema brings the schema up to date for the connected driver.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	if usesSQLMigrations(db) {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		return nil
	}

	middleware.Logger.Info("Running GORM AutoMigrate", slog.String("driver", db.Dialector.Name()))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus lists applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Driver:            db.Dialector.Name(),
		UsesSQLMigrations: usesSQLMigrations(db),
	}
	if !status.UsesSQLMigrations {
		return status, nil
	}

	migrator := NewMigrator(db, GetMigrations())
	applied, err := migrator.Applied(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := migrator.Pending(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pending
	return status, nil
}
