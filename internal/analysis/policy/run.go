package policy

import (
	"strings"

	"futureweaver/domain/records"
)

const (
	defaultRunName = "Simulation"

	runEconomicStability = 18.0
	runTotalIterations   = 100.0
	runStatusCompleted   = "completed"
	waterSecurityFactor  = 1.2
)

// NewSimulationRun builds the simulation_runs log entry for one simulation. The store
// assigns id and created_at.
func NewSimulationRun(name string, levers Levers, summary Summary) records.Record {
	if strings.TrimSpace(name) == "" {
		name = defaultRunName
	}
	return records.Record{
		"run_name":                    name,
		"water_subsidy_input":         levers.WaterSubsidy,
		"climate_policy_input":        levers.ClimatePolicy,
		"monsoon_modifier":            levers.MonsoonModifier,
		"butterfly_effect_enabled":    levers.ButterflyEffect,
		"lives_stabilized":            float64(summary.TotalPreventedMigration),
		"migration_reduction_percent": summary.AvgDroughtReduction,
		"water_security_percent":      summary.AvgDroughtReduction * waterSecurityFactor,
		"economic_stability_percent":  runEconomicStability,
		"total_iterations":            runTotalIterations,
		"successful_iterations":       float64(int(summary.ConfidenceScore)),
		"robustness_score":            summary.ConfidenceScore,
		"status":                      runStatusCompleted,
	}
}
