// Package sqlstore keeps every table in one generic store_records table, one JSON payload
// per row. It runs on Postgres (lib/pq) or SQLite (modernc) through sqlx.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/migration"
	"futureweaver/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know as a '?' driver
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store implements ports.TableStore over a SQL database
type Store struct {
	db    *sqlx.DB
	newID core.IDSource
	now   core.Clock
}

var _ ports.TableStore = (*Store)(nil)

// Open connects to the database, applies migrations and returns a ready store.
// For sqlite the dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		}
	default:
		return nil, fmt.Errorf("%w: unsupported SQL driver %q", core.ErrInvalidInput, driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", core.ErrIO, driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite is single-writer
		db.SetMaxIdleConns(1)
	}

	if err := migration.NewRunner(driver).Run(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return New(db), nil
}

// New wraps an already migrated connection
func New(db *sqlx.DB) *Store {
	return &Store{
		db:    db,
		newID: core.NewID,
		now:   core.SystemClock,
	}
}

// WithClock pins the created_at source
func (s *Store) WithClock(clock core.Clock) *Store {
	s.now = clock
	return s
}

// DB exposes the underlying connection for health checks
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadTable returns the rows of name in insertion order
func (s *Store) LoadTable(ctx context.Context, name string) ([]records.Record, error) {
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}

	var payloads []string
	query := s.db.Rebind(`SELECT payload FROM store_records WHERE table_name = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &payloads, query, name); err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", core.ErrIO, name, err)
	}

	rows := make([]records.Record, 0, len(payloads))
	for _, payload := range payloads {
		var rec records.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("%w: decode %s row: %v", core.ErrIO, name, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// AppendRecord stamps rec and appends it, creating the table on first write
func (s *Store) AppendRecord(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	stamped := records.Stamp(rec, s.newID, s.now)
	if err := s.CreateTable(ctx, name); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, name, stamped); err != nil {
		return nil, err
	}
	log.Printf("[SQLStore] Appended record %s to %s", stamped.String(records.FieldID), name)
	return stamped, nil
}

// CreateTable registers an empty table. Registering an existing table is a no-op.
func (s *Store) CreateTable(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: table name is required", core.ErrInvalidInput)
	}
	query := s.db.Rebind(`INSERT INTO store_tables (name, created_at) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`)
	if _, err := s.db.ExecContext(ctx, query, name, s.now().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("%w: create table %s: %v", core.ErrIO, name, err)
	}
	return nil
}

// ImportRecords copies rows into name in order, stamping rows that lack an id or
// created_at. It returns the number of rows written.
func (s *Store) ImportRecords(ctx context.Context, name string, rows []records.Record) (int, error) {
	if err := s.CreateTable(ctx, name); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if err := s.insert(ctx, name, records.Stamp(row, s.newID, s.now)); err != nil {
			return i, err
		}
	}
	log.Printf("[SQLStore] Imported %d rows into %s", len(rows), name)
	return len(rows), nil
}

func (s *Store) insert(ctx context.Context, name string, rec records.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record for %s: %v", core.ErrIO, name, err)
	}
	query := s.db.Rebind(`INSERT INTO store_records (table_name, record_id, created_at, payload) VALUES (?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		name, rec.String(records.FieldID), rec.String(records.FieldCreatedAt), string(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: append to %s: %v", core.ErrIO, name, err)
	}
	return nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(1) FROM store_tables WHERE name = ?`)
	if err := s.db.GetContext(ctx, &count, query, name); err != nil {
		return false, fmt.Errorf("%w: lookup table %s: %v", core.ErrIO, name, err)
	}
	return count > 0, nil
}
