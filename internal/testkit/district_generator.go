package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"futureweaver/domain/district"
	"futureweaver/domain/records"
)

// DistrictGeneratorConfig configures the synthetic district generator
type DistrictGeneratorConfig struct {
	DistrictCount int     `json:"district_count"`
	MissingRate   float64 `json:"missing_rate"` // share of indicator cells left empty
	Seed          int64   `json:"seed"`
}

// DefaultDistrictConfig returns the generator defaults
func DefaultDistrictConfig() DistrictGeneratorConfig {
	return DistrictGeneratorConfig{
		DistrictCount: 36,
		MissingRate:   0,
		Seed:          42,
	}
}

var districtNames = []string{
	"Ahmednagar", "Akola", "Amravati", "Aurangabad", "Beed", "Bhandara", "Buldhana", "Chandrapur",
	"Dhule", "Gadchiroli", "Gondia", "Hingoli", "Jalgaon", "Jalna", "Kolhapur", "Latur",
	"Mumbai", "Nagpur", "Nanded", "Nandurbar", "Nashik", "Osmanabad", "Palghar", "Parbhani",
	"Pune", "Raigad", "Ratnagiri", "Sangli", "Satara", "Sindhudurg", "Solapur", "Thane",
	"Wardha", "Washim", "Yavatmal", "Mumbai Suburban",
}

// DistrictGenerator produces district rows whose indicators move together the way
// drought-driven migration does: drought raises water stress and crop failure, and
// those push net migration negative.
type DistrictGenerator struct {
	config DistrictGeneratorConfig
	rng    *rand.Rand
}

// NewDistrictGenerator creates a generator. The same seed yields the same rows.
func NewDistrictGenerator(config DistrictGeneratorConfig) *DistrictGenerator {
	return &DistrictGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns DistrictCount rows for the districts table
func (g *DistrictGenerator) Generate() []records.Record {
	out := make([]records.Record, 0, g.config.DistrictCount)
	for i := 0; i < g.config.DistrictCount; i++ {
		out = append(out, g.district(i))
	}
	return out
}

func (g *DistrictGenerator) district(i int) records.Record {
	name := districtNames[i%len(districtNames)]
	if i >= len(districtNames) {
		name = fmt.Sprintf("%s %d", name, i/len(districtNames)+1)
	}

	drought := g.clamp(g.rng.Float64()*90+5, 0, 100)
	water := g.clamp(0.7*drought+g.rng.NormFloat64()*8+10, 0, 100)
	crop := g.clamp(0.45*drought+g.rng.NormFloat64()*5, 0, 100)
	migration := math.Round(-35*(drought-45) - 12*(crop-20) + g.rng.NormFloat64()*300)

	rec := records.Record{
		"id":                   fmt.Sprintf("district_%03d", i+1),
		"name":                 name,
		"drought_index":        round1(drought),
		"water_stress_index":   round1(water),
		"crop_failure_rate":    round1(crop),
		"net_migration":        migration,
		"elevation":            math.Round(200 + g.rng.Float64()*800),
		"population":           math.Round(8e5 + g.rng.Float64()*9e6),
		"marginalized_pop_pct": round1(g.clamp(10+0.2*drought+g.rng.NormFloat64()*4, 0, 100)),
		"gender_ratio_female":  math.Round((0.88+g.rng.Float64()*0.08)*1000) / 1000,
		"elderly_pop_pct":      round1(7 + g.rng.Float64()*6),
	}

	if g.config.MissingRate > 0 {
		for _, v := range district.Indicators {
			if g.rng.Float64() < g.config.MissingRate {
				rec[string(v)] = nil
			}
		}
	}
	return rec
}

func (g *DistrictGenerator) clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
