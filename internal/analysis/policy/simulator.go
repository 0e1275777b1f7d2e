// Package policy projects how policy levers change drought and migration per district.
//
// Water and climate levers act through a fixed stabilization lag; the response in each
// district is scaled by a tipping-point efficiency on its current drought level.
package policy

import (
	"fmt"
	"math"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/internal/analysis/numeric"
)

// Migration risk levels
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

const (
	// timeLagScore discounts water and climate levers for a two-year stabilization lag
	timeLagScore = 0.85

	waterWeight   = 0.5
	climateWeight = 0.3
	monsoonWeight = 0.2

	severeDrought     = 75.0
	mildDrought       = 30.0
	severeEfficiency  = 0.6
	mildEfficiency    = 1.2
	defaultEfficiency = 1.0

	inflowResponse = 0.1

	suitableDroughtCeiling = 40.0
	suitableStressCeiling  = 50.0
	highRiskDrought        = 70.0
	mediumRiskDrought      = 40.0
)

// Fixed summary statements. They are not derived from the simulation.
const (
	ConfidenceScore  = 92.5
	ModelLimitations = "Model assumes static population growth and excludes external economic shocks. High drought (>80%) exhibits chaotic behavior not fully captured."
)

// RequiredColumns are the indicators a simulation reads
var RequiredColumns = []district.Variable{
	district.DroughtIndex,
	district.NetMigration,
	district.WaterStressIndex,
}

// Levers are the policy inputs of one simulation, nominally on a 0-100 scale
type Levers struct {
	WaterSubsidy    float64 `json:"water_subsidy_input" yaml:"water_subsidy_input"`
	ClimatePolicy   float64 `json:"climate_policy_input" yaml:"climate_policy_input"`
	MonsoonModifier float64 `json:"monsoon_modifier" yaml:"monsoon_modifier"`
	ButterflyEffect bool    `json:"butterfly_effect_enabled" yaml:"butterfly_effect_enabled"`
}

// DefaultLevers are used for any lever a caller leaves out
func DefaultLevers() Levers {
	return Levers{
		WaterSubsidy:    50,
		ClimatePolicy:   30,
		MonsoonModifier: 0,
		ButterflyEffect: false,
	}
}

// Validate rejects non-finite and negative levers. Values above 100 are allowed.
func (l Levers) Validate() error {
	if err := checkLever("water_subsidy_input", l.WaterSubsidy); err != nil {
		return err
	}
	if err := checkLever("climate_policy_input", l.ClimatePolicy); err != nil {
		return err
	}
	return checkLever("monsoon_modifier", l.MonsoonModifier)
}

// ImpactSum is the combined policy impact the levers apply to every district
func (l Levers) ImpactSum() float64 {
	water := l.WaterSubsidy / 100 * timeLagScore
	climate := l.ClimatePolicy / 100 * timeLagScore
	var monsoon float64
	if l.ButterflyEffect {
		monsoon = l.MonsoonModifier / 100
	}
	return water*waterWeight + climate*climateWeight + monsoon*monsoonWeight
}

// DistrictResult is the projection for one district
type DistrictResult struct {
	DistrictID            core.DistrictID `json:"district_id"`
	DistrictName          string          `json:"district_name"`
	SimulatedDrought      float64         `json:"simulated_drought"`
	SimulatedMigration    int             `json:"simulated_migration"`
	IsSuitableDestination bool            `json:"is_suitable_destination"`
	MigrationRisk         string          `json:"migration_risk"`
}

// Summary aggregates a simulation across districts
type Summary struct {
	TotalPreventedMigration      int     `json:"total_prevented_migration"`
	AvgDroughtReduction          float64 `json:"avg_drought_reduction"`
	AvgEffectiveDroughtReduction float64 `json:"avg_effective_drought_reduction"`
	SuitableDestinationsCount    int     `json:"suitable_destinations_count"`
	ConfidenceScore              float64 `json:"confidence_score"`
	ModelLimitations             string  `json:"model_limitations"`
}

// Result is the full simulation output
type Result struct {
	Districts []DistrictResult `json:"districts"`
	Summary   Summary          `json:"summary"`
}

// Simulator runs policy projections over a district table
type Simulator struct {
	newID core.IDSource
}

// NewSimulator creates a simulator
func NewSimulator() *Simulator {
	return &Simulator{newID: core.NewID}
}

// WithIDSource pins the id source used for counterfactual scenarios
func (s *Simulator) WithIDSource(ids core.IDSource) *Simulator {
	s.newID = ids
	return s
}

// Simulate applies levers to every district in store order
func (s *Simulator) Simulate(table *district.Table, levers Levers) (*Result, error) {
	if err := levers.Validate(); err != nil {
		return nil, err
	}
	if err := table.Require(RequiredColumns...); err != nil {
		return nil, err
	}

	impact := levers.ImpactSum()
	results := make([]DistrictResult, 0, table.Len())
	var prevented, effectiveSum float64
	suitable := 0

	for _, d := range table.Districts() {
		drought := d.Value(district.DroughtIndex)
		migration := d.Value(district.NetMigration)
		eff := efficiency(drought)

		simDrought := math.Max(0, drought-drought*impact*eff)
		effectiveSum += impact * eff

		var simMigration float64
		if migration < 0 {
			simMigration = migration * (1 - impact*eff)
			prevented += math.Abs(migration - simMigration)
		} else {
			simMigration = migration * (1 + impact*inflowResponse)
		}

		isSuitable := simDrought < suitableDroughtCeiling && d.Value(district.WaterStressIndex) < suitableStressCeiling
		if isSuitable {
			suitable++
		}

		results = append(results, DistrictResult{
			DistrictID:            d.ID,
			DistrictName:          d.Name,
			SimulatedDrought:      numeric.Round(simDrought, 1),
			SimulatedMigration:    int(math.Trunc(simMigration)),
			IsSuitableDestination: isSuitable,
			MigrationRisk:         migrationRisk(simDrought),
		})
	}

	summary := Summary{
		TotalPreventedMigration:   int(math.Trunc(prevented)),
		SuitableDestinationsCount: suitable,
		ConfidenceScore:           ConfidenceScore,
		ModelLimitations:          ModelLimitations,
	}
	if len(results) > 0 {
		// impact does not vary by district, so this is also its mean
		summary.AvgDroughtReduction = numeric.Round(impact*100, 1)
		summary.AvgEffectiveDroughtReduction = numeric.Round(effectiveSum/float64(len(results))*100, 1)
	}

	return &Result{Districts: results, Summary: summary}, nil
}

// efficiency models the tipping point: severe drought resists mitigation
func efficiency(drought float64) float64 {
	switch {
	case drought > severeDrought:
		return severeEfficiency
	case drought < mildDrought:
		return mildEfficiency
	default:
		return defaultEfficiency
	}
}

func migrationRisk(simDrought float64) string {
	switch {
	case simDrought > highRiskDrought:
		return RiskHigh
	case simDrought > mediumRiskDrought:
		return RiskMedium
	default:
		return RiskLow
	}
}

func checkLever(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return core.NewInvalidInputError(name, "must be a finite number")
	}
	if v < 0 {
		return core.NewInvalidInputError(name, fmt.Sprintf("must not be negative, got %g", v))
	}
	return nil
}
