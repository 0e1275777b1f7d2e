// Package testkit provides district fixtures and a synthetic district generator for
// tests, demos and local development.
package testkit

import (
	"time"

	"futureweaver/adapters/memstore"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
)

// Pinned is the fixed instant used by fixture clocks
var Pinned = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

// Clock always returns Pinned
func Clock() time.Time { return Pinned }

// FixedID returns an id source that always yields id
func FixedID(id string) core.IDSource {
	return func() core.ID { return core.ID(id) }
}

// Districts returns three Marathwada-style districts carrying every indicator
func Districts() []records.Record {
	return []records.Record{
		{"id": "1", "name": "Beed", "drought_index": 80.0, "net_migration": -1000.0, "water_stress_index": 70.0, "crop_failure_rate": 40.0,
			"elevation": 500.0, "population": 2.5e6, "marginalized_pop_pct": 30.0, "gender_ratio_female": 0.93, "elderly_pop_pct": 9.0},
		{"id": "2", "name": "Pune", "drought_index": 20.0, "net_migration": 500.0, "water_stress_index": 30.0, "crop_failure_rate": 10.0,
			"elevation": 560.0, "population": 9.4e6, "marginalized_pop_pct": 12.0, "gender_ratio_female": 0.91, "elderly_pop_pct": 11.0},
		{"id": "3", "name": "Latur", "drought_index": 40.0, "net_migration": -1500.0, "water_stress_index": 60.0, "crop_failure_rate": 25.0,
			"elevation": 630.0, "population": 2.4e6, "marginalized_pop_pct": 24.0, "gender_ratio_female": 0.92, "elderly_pop_pct": 10.0},
	}
}

// NewStore returns a memory store seeded with Districts and stamping with Clock
func NewStore() *memstore.Store {
	store := memstore.New().WithClock(Clock)
	store.Seed(records.TableDistricts, Districts())
	return store
}
