package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"faceblog/internal/middleware"

	"gorm.io/gorm"
)

// SchemaVersion records one applied migration.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName returns the database table name for SchemaVersion.
func (SchemaVersion) TableName() string {
	return "schema_versions"
}

// Migrator applies an ordered migration set. Each script runs in the same
// transaction as its schema_versions row, so a failed script leaves no record.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

// NewMigrator returns a Migrator over set, which must be sorted by version.
func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set}
}

// Applied lists recorded versions in ascending order. A database that has
// never been migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaVersion{}) {
		return []int{}, nil
	}
	var versions []int
	if err := db.Model(&SchemaVersion{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema versions: %w", err)
	}
	return versions, nil
}

// Pending lists migrations from the set that have not been applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range m.set {
		if !slices.Contains(applied, mig.Version) {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration in version order and returns how many
// ran. It refuses to touch a database recording versions this build lacks.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return 0, fmt.Errorf("create schema_versions: %w", err)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.checkKnown(applied); err != nil {
		return 0, err
	}

	ran := 0
	for _, mig := range m.set {
		if slices.Contains(applied, mig.Version) {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return ran, err
		}
		ran++
	}
	if ran == 0 {
		middleware.Logger.Debug("schema up to date", slog.Int("applied", len(applied)))
	}
	return ran, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	middleware.Logger.Info("applying migration", slog.String("migration", mig.String()))
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.UpScript).Error; err != nil {
			return fmt.Errorf("migration %s: %w", mig.String(), err)
		}
		return tx.Create(&SchemaVersion{Version: mig.Version, Name: mig.Name}).Error
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("migration applied", slog.String("migration", mig.String()))
	return nil
}

// Down reverts version, which must be the most recently applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	idx := slices.IndexFunc(m.set, func(mig Migration) bool { return mig.Version == version })
	if idx < 0 {
		return fmt.Errorf("no migration %06d in this build", version)
	}
	mig := m.set[idx]

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s is not applied", mig.String())
	}
	if latest := applied[len(applied)-1]; latest != version {
		return fmt.Errorf("migration %s is not the latest; roll back %06d first", mig.String(), latest)
	}

	middleware.Logger.Info("rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", mig.String(), err)
		}
		return tx.Where("version = ?", version).Delete(&SchemaVersion{}).Error
	})
}

func (m *Migrator) checkKnown(applied []int) error {
	var unknown []string
	for _, version := range applied {
		if !slices.ContainsFunc(m.set, func(mig Migration) bool { return mig.Version == version }) {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("schema_versions records %s, which this build does not ship; was the database migrated by a newer faceblog?",
		strings.Join(unknown, ", "))
}

// RunMigrations applies the embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	_, err := NewMigrator(db, migrations).Up(ctx)
	return err
}

// RollbackMigration reverts the latest embedded migration, named by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, migrations).Down(ctx, version)
}
