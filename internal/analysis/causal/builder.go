// Package causal turns a correlation matrix into directed, scored causal links.
//
// Direction comes from a fixed precedence hierarchy (geography before climate before
// agriculture before migration); a pair that shares a strongly correlated upstream
// variable is down-weighted as potentially confounded.
package causal

import (
	"math"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/internal/analysis/correlation"
	"futureweaver/internal/analysis/numeric"
	"futureweaver/ports"
)

// Reasoning labels
const (
	ReasoningDirect     = "Direct Causal Path"
	ReasoningConfounded = "Potential Confounding"
)

const (
	// AnalysisMethod is stamped on every link
	AnalysisMethod = "Constraint-based Discovery"
	// NonlinearitySigmoid marks links whose raw correlation is moderate
	NonlinearitySigmoid = "Sigmoid"

	linkThreshold      = 0.25
	confoundThreshold  = 0.6
	nonlinearThreshold = 0.6
	confoundPenalty    = 0.3
	confidenceScale    = 0.95
	confidenceBand     = 0.1
	maxLagDays         = 14
	defaultPrecedence  = 5
)

// Precedence orders variables from upstream (0) to downstream
var Precedence = map[district.Variable]int{
	district.Elevation:        0,
	district.Population:       0,
	district.DroughtIndex:     1,
	district.WaterStressIndex: 2,
	district.CropFailureRate:  3,
	district.NetMigration:     4,
}

// PrecedenceOf returns the hierarchy level of v; unlisted variables sit last
func PrecedenceOf(v district.Variable) int {
	if p, ok := Precedence[v]; ok {
		return p
	}
	return defaultPrecedence
}

// Link is one discovered cause -> effect relationship
type Link struct {
	ID               string            `json:"id"`
	CauseVariable    district.Variable `json:"cause_variable"`
	EffectVariable   district.Variable `json:"effect_variable"`
	Strength         float64           `json:"strength"`
	ConfidenceScore  float64           `json:"confidence_score"`
	PValue           float64           `json:"p_value"`
	IsNonlinear      bool              `json:"is_nonlinear"`
	CausalReasoning  string            `json:"causal_reasoning"`
	LagDays          int               `json:"lag_days"`
	ConfidenceLower  float64           `json:"confidence_lower"`
	ConfidenceUpper  float64           `json:"confidence_upper"`
	NonlinearityType *string           `json:"nonlinearity_type"`
	SampleSize       int               `json:"sample_size"`
	AnalysisMethod   string            `json:"analysis_method"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}

// Builder emits causal links. The lag draw, ids and timestamps are injectable.
type Builder struct {
	rng   ports.RNGPort
	newID core.IDSource
	now   core.Clock
}

// NewBuilder creates a builder drawing lag days from rng
func NewBuilder(rng ports.RNGPort) *Builder {
	return &Builder{
		rng:   rng,
		newID: core.NewID,
		now:   core.SystemClock,
	}
}

// WithClock pins the timestamp source
func (b *Builder) WithClock(clock core.Clock) *Builder {
	b.now = clock
	return b
}

// WithIDSource pins the id source
func (b *Builder) WithIDSource(ids core.IDSource) *Builder {
	b.newID = ids
	return b
}

// Discover correlates the causal universe over table and builds links from it
func (b *Builder) Discover(table *district.Table) []Link {
	m := correlation.Compute(table, district.CausalUniverse)
	return b.Build(m, table.Len())
}

// Build scans every unordered pair of the matrix variables in order, emitting a link for
// each pair whose correlation magnitude exceeds the link threshold.
func (b *Builder) Build(m *correlation.Matrix, sampleSize int) []Link {
	vars := m.Variables()
	links := make([]Link, 0)

	for i, a := range vars {
		for j := i + 1; j < len(vars); j++ {
			bv := vars[j]
			corr := m.At(a, bv)
			if math.Abs(corr) <= linkThreshold {
				continue
			}

			adjusted := corr
			reasoning := ReasoningDirect
			if confounded(m, vars, a, bv) {
				adjusted = corr * confoundPenalty
				reasoning = ReasoningConfounded
			}

			// Equal precedence resolves to the later variable as cause
			cause, effect := bv, a
			if PrecedenceOf(a) < PrecedenceOf(bv) {
				cause, effect = a, bv
			}

			nonlinear := math.Abs(corr) < nonlinearThreshold
			var nonlinearity *string
			if nonlinear {
				kind := NonlinearitySigmoid
				nonlinearity = &kind
			}

			stamp := b.now().Format(time.RFC3339Nano)
			links = append(links, Link{
				ID:               b.newID().String(),
				CauseVariable:    cause,
				EffectVariable:   effect,
				Strength:         numeric.Round(adjusted, 3),
				ConfidenceScore:  numeric.Round(math.Abs(adjusted)*confidenceScale, 2),
				PValue:           numeric.Round(1-math.Abs(adjusted), 4),
				IsNonlinear:      nonlinear,
				CausalReasoning:  reasoning,
				LagDays:          1 + b.rng.Intn(maxLagDays),
				ConfidenceLower:  numeric.Round(adjusted-confidenceBand, 3),
				ConfidenceUpper:  numeric.Round(adjusted+confidenceBand, 3),
				NonlinearityType: nonlinearity,
				SampleSize:       sampleSize,
				AnalysisMethod:   AnalysisMethod,
				CreatedAt:        stamp,
				UpdatedAt:        stamp,
			})
		}
	}
	return links
}

// confounded reports whether some strictly upstream third variable correlates strongly
// with both a and b
func confounded(m *correlation.Matrix, vars []district.Variable, a, b district.Variable) bool {
	pa, pb := PrecedenceOf(a), PrecedenceOf(b)
	for _, c := range vars {
		if c == a || c == b {
			continue
		}
		pc := PrecedenceOf(c)
		if pc >= pa || pc >= pb {
			continue
		}
		if math.Abs(m.At(a, c)) > confoundThreshold && math.Abs(m.At(b, c)) > confoundThreshold {
			return true
		}
	}
	return false
}
