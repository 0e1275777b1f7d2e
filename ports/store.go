package ports

import (
	"context"

	"futureweaver/domain/records"
)

// TableReaderPort provides read-only access to store tables
type TableReaderPort interface {
	// LoadTable returns every row of the named table in insertion order.
	// Fails with core.ErrTableNotFound when the table does not exist.
	LoadTable(ctx context.Context, name string) ([]records.Record, error)
}

// TableWriterPort provides append-only write access to result logs
// This is the ONLY way the analytics layer writes - existing rows are never touched
type TableWriterPort interface {
	// AppendRecord persists rec as a new row, assigning id and created_at when absent.
	// Returns the persisted record. Write failures wrap core.ErrIO.
	AppendRecord(ctx context.Context, name string, rec records.Record) (records.Record, error)
}

// TableStore combines read and append access
type TableStore interface {
	TableReaderPort
	TableWriterPort
}
