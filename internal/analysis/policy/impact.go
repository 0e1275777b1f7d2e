package policy

import (
	"math"

	"futureweaver/domain/district"
	"futureweaver/internal/analysis/numeric"
)

const (
	budgetScale  = 1000.0
	horizonScale = 10.0
	scaleScale   = 100.0

	budgetWeight  = 0.4
	scaleWeight   = 0.4
	horizonWeight = 0.2

	maxMigrationReduction = 45.0
	maxWaterImprovement   = 40.0
	migrationPerImpact    = 30.0
	waterPerImpact        = 25.0
	livesPerImpact        = 50000
)

// ImpactParams describe a proposed project in one district
type ImpactParams struct {
	Budget      float64 `json:"budget"`
	TimeHorizon float64 `json:"time_horizon"`
	Scale       float64 `json:"scale"`
}

// DefaultImpactParams fill in anything a caller leaves out
func DefaultImpactParams() ImpactParams {
	return ImpactParams{Budget: 500, TimeHorizon: 10, Scale: 50}
}

// Validate rejects non-finite and negative parameters
func (p ImpactParams) Validate() error {
	if err := checkLever("budget", p.Budget); err != nil {
		return err
	}
	if err := checkLever("time_horizon", p.TimeHorizon); err != nil {
		return err
	}
	return checkLever("scale", p.Scale)
}

// Prediction is the projected effect of a project
type Prediction struct {
	ImpactScore                 float64    `json:"impact_score"`
	ProjectedMigrationReduction float64    `json:"projected_migration_reduction"`
	ProjectedWaterImprovement   float64    `json:"projected_water_improvement"`
	LivesStabilized             int        `json:"lives_stabilized"`
	ConfidenceInterval          [2]float64 `json:"confidence_interval"`
}

// PredictImpact projects a project's effect from its budget, horizon and scale. The
// district only anchors the request; its indicators do not enter the projection.
func PredictImpact(_ district.District, p ImpactParams) (*Prediction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	score := p.Budget/budgetScale*budgetWeight +
		p.Scale/scaleScale*scaleWeight +
		p.TimeHorizon/horizonScale*horizonWeight

	return &Prediction{
		ImpactScore:                 numeric.Round(score*100, 1),
		ProjectedMigrationReduction: numeric.Round(math.Min(maxMigrationReduction, score*migrationPerImpact), 1),
		ProjectedWaterImprovement:   numeric.Round(math.Min(maxWaterImprovement, score*waterPerImpact), 1),
		LivesStabilized:             int(math.Trunc(score * livesPerImpact)),
		ConfidenceInterval: [2]float64{
			numeric.Round(score*90, 1),
			numeric.Round(score*110, 1),
		},
	}, nil
}
