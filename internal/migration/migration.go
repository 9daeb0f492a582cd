package migration

import (
	"context"

	"goenso/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createIndexRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create index_runs table")
	}

	if err := r.createIndexValuesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create index_values table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createIndexRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS index_runs (
			id UUID PRIMARY KEY,
			dataset VARCHAR(255) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexValuesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS index_values (
			run_id UUID NOT NULL REFERENCES index_runs(id) ON DELETE CASCADE,
			month DATE NOT NULL,
			e DOUBLE PRECISION NOT NULL,
			c DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, month)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_index_runs_dataset ON index_runs(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_index_runs_fingerprint ON index_runs(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_index_runs_created_at ON index_runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_index_values_run_id ON index_values(run_id)`,
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
