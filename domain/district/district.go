// Package district holds the per-district indicator table every analysis reads from.
package district

import (
	"fmt"
	"math"

	"futureweaver/domain/core"
	"futureweaver/domain/records"

	"github.com/montanaflynn/stats"
)

// Variable names one numeric indicator column
type Variable string

const (
	DroughtIndex       Variable = "drought_index"
	WaterStressIndex   Variable = "water_stress_index"
	CropFailureRate    Variable = "crop_failure_rate"
	NetMigration       Variable = "net_migration"
	Elevation          Variable = "elevation"
	Population         Variable = "population"
	MarginalizedPopPct Variable = "marginalized_pop_pct"
	GenderRatioFemale  Variable = "gender_ratio_female"
	ElderlyPopPct      Variable = "elderly_pop_pct"
)

// Indicators lists every numeric indicator a district carries
var Indicators = []Variable{
	DroughtIndex,
	WaterStressIndex,
	CropFailureRate,
	NetMigration,
	Elevation,
	Population,
	MarginalizedPopPct,
	GenderRatioFemale,
	ElderlyPopPct,
}

// CausalUniverse is the ordered variable set searched for causal links
var CausalUniverse = []Variable{
	DroughtIndex,
	WaterStressIndex,
	CropFailureRate,
	NetMigration,
	Elevation,
	Population,
}

func (v Variable) String() string { return string(v) }

// District is one row of the districts table after imputation
type District struct {
	ID     core.DistrictID      `json:"id"`
	Name   string               `json:"name"`
	Values map[Variable]float64 `json:"-"`
}

// Value returns the indicator v. Absent indicators read as 0.
func (d District) Value(v Variable) float64 {
	return d.Values[v]
}

// Table is the ordered set of districts in store order
type Table struct {
	districts []District
	present   map[Variable]bool
}

// FromRecords builds a table from raw store rows. Indicator cells that are missing or
// non-numeric are replaced by the column mean; a column with no numeric cell becomes 0.
func FromRecords(rows []records.Record) *Table {
	t := &Table{
		districts: make([]District, len(rows)),
		present:   make(map[Variable]bool),
	}

	for _, v := range Indicators {
		col := make([]float64, len(rows))
		ok := make([]bool, len(rows))
		observed := make([]float64, 0, len(rows))
		for i, row := range rows {
			if _, has := row[string(v)]; has {
				t.present[v] = true
			}
			if f, isNum := row.Float(string(v)); isNum && !isNaNOrInf(f) {
				col[i], ok[i] = f, true
				observed = append(observed, f)
			}
		}
		// stats.Mean only fails on an empty column, which imputes to 0
		mean, _ := stats.Mean(observed)
		for i := range rows {
			if t.districts[i].Values == nil {
				t.districts[i].Values = make(map[Variable]float64, len(Indicators))
			}
			if ok[i] {
				t.districts[i].Values[v] = col[i]
			} else {
				t.districts[i].Values[v] = mean
			}
		}
	}

	for i, row := range rows {
		t.districts[i].ID = core.DistrictID(row.String(records.FieldID))
		t.districts[i].Name = row.String("name")
	}
	return t
}

// Len returns the number of districts
func (t *Table) Len() int {
	return len(t.districts)
}

// At returns the district at position i in store order
func (t *Table) At(i int) District {
	return t.districts[i]
}

// Districts returns the districts in store order
func (t *Table) Districts() []District {
	out := make([]District, len(t.districts))
	copy(out, t.districts)
	return out
}

// Has reports whether the source rows carried column v at all
func (t *Table) Has(v Variable) bool {
	return t.present[v]
}

// Require fails with ErrDataUnavailable naming the first absent column
func (t *Table) Require(vars ...Variable) error {
	for _, v := range vars {
		if !t.present[v] {
			return core.NewDataUnavailableError(records.TableDistricts, fmt.Errorf("column %s is missing", v))
		}
	}
	return nil
}

// Column returns the imputed values of v in store order
func (t *Table) Column(v Variable) []float64 {
	out := make([]float64, len(t.districts))
	for i, d := range t.districts {
		out[i] = d.Values[v]
	}
	return out
}

// Find returns the first district whose id matches
func (t *Table) Find(id core.DistrictID) (District, error) {
	for _, d := range t.districts {
		if d.ID == id {
			return d, nil
		}
	}
	return District{}, fmt.Errorf("%w: %s", core.ErrDistrictNotFound, id)
}

func isNaNOrInf(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
