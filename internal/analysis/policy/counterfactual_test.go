package policy

import (
	"testing"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/domain/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterfactualNoIntervention(t *testing.T) {
	sim := NewSimulator().WithIDSource(func() core.ID { return "scenario-1" })
	scenario, err := sim.Counterfactual(testTable(), CounterfactualParams{InterventionName: "Nothing"})
	require.NoError(t, err)

	assert.Equal(t, "scenario-1", scenario.ID)
	assert.Equal(t, "Counterfactual: Nothing", scenario.Name)
	assert.Equal(t, 0, scenario.TreatmentEffectMigration)
	assert.Equal(t, 5000, scenario.BaselineMigration)
	assert.Equal(t, 1343, scenario.ProjectedMigration)
	assert.Equal(t, scenario.BaselineWaterStress, scenario.ProjectedWaterStress)
	assert.Equal(t, 0.0, scenario.TreatmentEffectWaterStress)
	assert.Equal(t, 0.0, scenario.TreatmentEffectCropFailure)
}

func TestCounterfactualDefaults(t *testing.T) {
	scenario, err := NewSimulator().Counterfactual(testTable(), DefaultCounterfactualParams())
	require.NoError(t, err)

	projected, err := NewSimulator().Simulate(testTable(), Levers{WaterSubsidy: 75, ClimatePolicy: 50})
	require.NoError(t, err)

	assert.Equal(t, "Counterfactual: Default Intervention", scenario.Name)
	assert.Equal(t, projected.Summary.TotalPreventedMigration, scenario.TreatmentEffectMigration)
	assert.Equal(t, projected.Summary.TotalPreventedMigration+1343, scenario.ProjectedMigration)
	assert.Equal(t, 53.3, scenario.BaselineWaterStress)
	assert.Equal(t, 25.0, scenario.BaselineCropFailure)
	assert.Equal(t, 33.3, scenario.ProjectedWaterStress)
	assert.Equal(t, 18.8, scenario.ProjectedCropFailure)
	assert.Equal(t, 500.0, scenario.BaselineEconomicLoss)
	assert.Equal(t, 120.0, scenario.ProjectedEconomicLoss)
	assert.Equal(t, -30.0, scenario.TreatmentEffectWaterStress)
	assert.Equal(t, -15.0, scenario.TreatmentEffectCropFailure)
	assert.Equal(t, -380.0, scenario.TreatmentEffectEconomic)
	assert.Equal(t, ConfidenceScore, scenario.ConfidenceScore)
	assert.Equal(t, ModelLimitations, scenario.Limitations)
	assert.NotEmpty(t, scenario.ID)
}

func TestCounterfactualRejectsBadInput(t *testing.T) {
	_, err := NewSimulator().Counterfactual(testTable(), CounterfactualParams{WaterSubsidy: -5})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	noCrop := district.FromRecords([]records.Record{
		{"id": "a", "drought_index": 50.0, "net_migration": -10.0, "water_stress_index": 20.0},
	})
	_, err = NewSimulator().Counterfactual(noCrop, DefaultCounterfactualParams())
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}
