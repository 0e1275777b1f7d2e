package policy

import (
	"math"
	"testing"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/domain/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *district.Table {
	return district.FromRecords([]records.Record{
		{"id": "a", "name": "Beed", "drought_index": 80.0, "net_migration": -1000.0, "water_stress_index": 70.0, "crop_failure_rate": 40.0},
		{"id": "b", "name": "Pune", "drought_index": 20.0, "net_migration": 500.0, "water_stress_index": 30.0, "crop_failure_rate": 10.0},
		{"id": "c", "name": "Latur", "drought_index": 40.0, "net_migration": -1500.0, "water_stress_index": 60.0, "crop_failure_rate": 25.0},
	})
}

func TestSimulateDefaults(t *testing.T) {
	result, err := NewSimulator().Simulate(testTable(), DefaultLevers())
	require.NoError(t, err)
	require.Len(t, result.Districts, 3)

	beed := result.Districts[0]
	assert.Equal(t, core.DistrictID("a"), beed.DistrictID)
	assert.Equal(t, "Beed", beed.DistrictName)
	assert.Equal(t, 66.1, beed.SimulatedDrought)
	assert.Equal(t, -826, beed.SimulatedMigration)
	assert.Equal(t, RiskMedium, beed.MigrationRisk)
	assert.False(t, beed.IsSuitableDestination)

	pune := result.Districts[1]
	assert.Equal(t, 13.1, pune.SimulatedDrought)
	assert.Equal(t, 514, pune.SimulatedMigration)
	assert.Equal(t, RiskLow, pune.MigrationRisk)
	assert.True(t, pune.IsSuitableDestination)

	latur := result.Districts[2]
	assert.Equal(t, 28.4, latur.SimulatedDrought)
	assert.Equal(t, -1066, latur.SimulatedMigration)
	assert.False(t, latur.IsSuitableDestination, "baseline water stress is too high")

	s := result.Summary
	assert.Equal(t, 606, s.TotalPreventedMigration)
	assert.Equal(t, 28.9, s.AvgDroughtReduction)
	assert.Equal(t, 27.0, s.AvgEffectiveDroughtReduction)
	assert.Equal(t, 1, s.SuitableDestinationsCount)
	assert.Equal(t, ConfidenceScore, s.ConfidenceScore)
	assert.Equal(t, ModelLimitations, s.ModelLimitations)
}

func TestSimulateZeroLeversIsIdentity(t *testing.T) {
	table := testTable()
	for _, levers := range []Levers{{}, {MonsoonModifier: 100}} {
		result, err := NewSimulator().Simulate(table, levers)
		require.NoError(t, err)
		for i, d := range table.Districts() {
			assert.Equal(t, d.Value(district.DroughtIndex), result.Districts[i].SimulatedDrought)
			assert.Equal(t, int(d.Value(district.NetMigration)), result.Districts[i].SimulatedMigration)
		}
		assert.Equal(t, 0, result.Summary.TotalPreventedMigration)
		assert.Equal(t, 0.0, result.Summary.AvgDroughtReduction)
	}
}

func TestSimulateButterflyEnablesMonsoon(t *testing.T) {
	levers := Levers{MonsoonModifier: 100, ButterflyEffect: true}
	assert.InDelta(t, 0.2, levers.ImpactSum(), 1e-12)

	result, err := NewSimulator().Simulate(testTable(), levers)
	require.NoError(t, err)
	assert.Equal(t, 20.0, result.Summary.AvgDroughtReduction)
	assert.Equal(t, 70.4, result.Districts[0].SimulatedDrought)
	assert.Equal(t, RiskHigh, result.Districts[0].MigrationRisk)
}

func TestSimulateWaterSubsidyIsMonotone(t *testing.T) {
	table := testTable()
	previous := make([]float64, table.Len())
	for i := range previous {
		previous[i] = math.Inf(1)
	}

	for ws := 0.0; ws <= 300; ws += 25 {
		result, err := NewSimulator().Simulate(table, Levers{WaterSubsidy: ws, ClimatePolicy: 30})
		require.NoError(t, err)
		for i, d := range result.Districts {
			assert.LessOrEqual(t, d.SimulatedDrought, previous[i], "district %d at water subsidy %v", i, ws)
			assert.GreaterOrEqual(t, d.SimulatedDrought, 0.0)
			previous[i] = d.SimulatedDrought
		}
	}
}

func TestLeversValidate(t *testing.T) {
	assert.NoError(t, DefaultLevers().Validate())
	assert.NoError(t, Levers{WaterSubsidy: 150}.Validate())

	for _, bad := range []Levers{
		{WaterSubsidy: -1},
		{ClimatePolicy: math.NaN()},
		{MonsoonModifier: math.Inf(1)},
	} {
		err := bad.Validate()
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		_, simErr := NewSimulator().Simulate(testTable(), bad)
		assert.ErrorIs(t, simErr, core.ErrInvalidInput)
	}
}

func TestSimulateMissingColumn(t *testing.T) {
	table := district.FromRecords([]records.Record{{"id": "a", "drought_index": 50.0}})
	_, err := NewSimulator().Simulate(table, DefaultLevers())
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestSimulateEmptyTable(t *testing.T) {
	table := district.FromRecords([]records.Record{})
	_, err := NewSimulator().Simulate(table, DefaultLevers())
	assert.ErrorIs(t, err, core.ErrDataUnavailable, "no rows means no columns")
}

func TestNewSimulationRun(t *testing.T) {
	summary := Summary{TotalPreventedMigration: 606, AvgDroughtReduction: 28.9, ConfidenceScore: 92.5}
	run := NewSimulationRun("", DefaultLevers(), summary)

	assert.Equal(t, "Simulation", run["run_name"])
	assert.Equal(t, 50.0, run["water_subsidy_input"])
	assert.Equal(t, 30.0, run["climate_policy_input"])
	assert.Equal(t, false, run["butterfly_effect_enabled"])
	assert.Equal(t, 606.0, run["lives_stabilized"])
	assert.Equal(t, 28.9, run["migration_reduction_percent"])
	assert.InDelta(t, 34.68, run["water_security_percent"], 1e-9)
	assert.Equal(t, 92.0, run["successful_iterations"])
	assert.Equal(t, 92.5, run["robustness_score"])
	assert.Equal(t, "completed", run["status"])
	assert.NotContains(t, run, records.FieldID)

	assert.Equal(t, "Dry spell", NewSimulationRun("Dry spell", DefaultLevers(), summary)["run_name"])
}
