// Package memstore provides an in-memory TableStore. It backs tests and CLI dry runs;
// nothing is persisted past the process.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/ports"
)

// Store keeps each table as an ordered slice of records
type Store struct {
	mu     sync.RWMutex
	tables map[string][]records.Record
	newID  core.IDSource
	now    core.Clock
}

var _ ports.TableStore = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		tables: make(map[string][]records.Record),
		newID:  core.NewID,
		now:    core.SystemClock,
	}
}

// WithClock pins the timestamp source
func (s *Store) WithClock(clock core.Clock) *Store {
	s.now = clock
	return s
}

// Seed replaces a table wholesale. Rows are stored verbatim, without stamping.
func (s *Store) Seed(name string, rows []records.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]records.Record, len(rows))
	for i, r := range rows {
		cp[i] = r.Clone()
	}
	s.tables[name] = cp
}

// LoadTable returns cloned rows in insertion order
func (s *Store) LoadTable(ctx context.Context, name string) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}
	out := make([]records.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// AppendRecord stamps and appends rec, creating the table on first write
func (s *Store) AppendRecord(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stamped := records.Stamp(rec, s.newID, s.now)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = append(s.tables[name], stamped.Clone())
	return stamped, nil
}
