// Package recommend derives a short ranked action list from the district table.
package recommend

import (
	"fmt"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/internal/analysis/numeric"

	"github.com/montanaflynn/stats"
)

// Priority and impact levels
const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
)

// Rule costs are fixed budget envelopes
const (
	costEmergencyIrrigation = "₹450 Cr"
	costWaterGrid           = "₹1200 Cr"
	costSafetyNet           = "₹320 Cr"
)

// RequiredColumns are the indicators the rules read
var RequiredColumns = []district.Variable{
	district.DroughtIndex,
	district.WaterStressIndex,
	district.MarginalizedPopPct,
}

// Recommendation is one action item
type Recommendation struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Cost        string `json:"cost"`
}

// Generate returns exactly three recommendations: irrigation for the worst drought,
// a water grid sized by mean stress, and a safety net for the most marginalized
// district. Ties resolve to the earliest district in store order.
func Generate(table *district.Table) ([]Recommendation, error) {
	if table.Len() < 2 {
		return nil, fmt.Errorf("%w: recommendations need at least 2 districts, got %d", core.ErrDegenerateInput, table.Len())
	}
	if err := table.Require(RequiredColumns...); err != nil {
		return nil, err
	}

	worst := argmax(table, district.DroughtIndex)
	avgStress, err := stats.Mean(table.Column(district.WaterStressIndex))
	if err != nil {
		return nil, fmt.Errorf("%w: mean water stress: %v", core.ErrDegenerateInput, err)
	}
	first, second := table.At(0), table.At(1)
	marginalized := argmax(table, district.MarginalizedPopPct)

	return []Recommendation{
		{
			Priority: LevelHigh,
			Title:    fmt.Sprintf("Emergency Irrigation for %s", worst.Name),
			Description: fmt.Sprintf("AI detected critical drought index (%s). Redirect ₹450Cr for immediate micro-irrigation deployment.",
				numeric.FormatDecimal(worst.Value(district.DroughtIndex))),
			Impact: LevelHigh,
			Cost:   costEmergencyIrrigation,
		},
		{
			Priority: LevelMedium,
			Title:    "Cross-District Water Grid",
			Description: fmt.Sprintf("Overall water stress is %.0f%%. AI suggests a regional grid to balance resource distribution between %s and %s.",
				numeric.Round(avgStress, 0), first.Name, second.Name),
			Impact: LevelMedium,
			Cost:   costWaterGrid,
		},
		{
			Priority: LevelHigh,
			Title:    fmt.Sprintf("Targeted Social Safety Net in %s", marginalized.Name),
			Description: fmt.Sprintf("Demographic bias check suggests prioritizing %s due to 30%% marginalized population concentration.",
				marginalized.Name),
			Impact: LevelHigh,
			Cost:   costSafetyNet,
		},
	}, nil
}

// argmax returns the first district holding the largest value of v
func argmax(table *district.Table, v district.Variable) district.District {
	best := table.At(0)
	for _, d := range table.Districts()[1:] {
		if d.Value(v) > best.Value(v) {
			best = d
		}
	}
	return best
}
