package migration

import (
	"context"
	"fmt"

	"futureweaver/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the generic record tables used by the SQL table store
type MigrationRunner struct {
	version string
	dialect string
}

// NewRunner creates a migration runner for the given sqlx driver name ("postgres" or "sqlite")
func NewRunner(dialect string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		dialect: dialect,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createStoreTablesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create store_tables table")
	}

	if err := r.createStoreRecordsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create store_records table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createStoreTablesTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS store_tables (
			name TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`

	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createStoreRecordsTable(ctx context.Context, db *sqlx.DB) error {
	seq := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.dialect == "postgres" {
		seq = "BIGSERIAL PRIMARY KEY"
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS store_records (
			seq %s,
			table_name TEXT NOT NULL REFERENCES store_tables(name),
			record_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload TEXT NOT NULL
		)`, seq)

	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_store_records_table_seq ON store_records(table_name, seq)",
		"CREATE INDEX IF NOT EXISTS idx_store_records_record_id ON store_records(record_id)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
