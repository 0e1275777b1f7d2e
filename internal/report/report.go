// Package report renders the policy brief for decision makers as markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"futureweaver/domain/records"
	"futureweaver/internal/analysis/fairness"
	"futureweaver/internal/analysis/numeric"
	"futureweaver/internal/analysis/recommend"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Title heads every rendered brief
const Title = "Policy Recommendation Report"

// Scorecard fallbacks apply until a simulation has been run
const (
	fallbackClimateResilience  = 72.0
	fallbackMigrationReduction = 65.0
	fallbackEconomicViability  = 84.0
	fallbackModelRobustness    = 68.0
)

// Input is everything a brief summarizes. Runs are in store order, the last is latest.
type Input struct {
	GeneratedAt     time.Time
	DistrictCount   int
	Runs            []records.Record
	Certificates    []records.Record
	Recommendations []recommend.Recommendation
	Fairness        *fairness.Report
}

// Scorecard is one headline gauge
type Scorecard struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Scorecards derives the headline gauges from the latest simulation run
func Scorecards(runs []records.Record) []Scorecard {
	var latest records.Record
	if len(runs) > 0 {
		latest = runs[len(runs)-1]
	}
	return []Scorecard{
		{"Climate Resilience", runValue(latest, "water_security_percent", fallbackClimateResilience)},
		{"Social Risk Index", 100 - runValue(latest, "migration_reduction_percent", fallbackMigrationReduction)},
		{"Economic Viability", runValue(latest, "economic_stability_percent", fallbackEconomicViability)},
		{"Model Robustness", runValue(latest, "robustness_score", fallbackModelRobustness)},
	}
}

// ValidCertificates counts certificates flagged is_valid
func ValidCertificates(certs []records.Record) int {
	n := 0
	for _, c := range certs {
		switch v := c["is_valid"].(type) {
		case bool:
			if v {
				n++
			}
		case string:
			if strings.EqualFold(v, "true") {
				n++
			}
		}
	}
	return n
}

// Markdown renders the brief as markdown
func Markdown(in Input) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", Title)
	fmt.Fprintf(&b, "Generated %s\n\n", in.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Scorecards\n\n")
	b.WriteString("| Scorecard | Value |\n|---|---|\n")
	for _, s := range Scorecards(in.Runs) {
		fmt.Fprintf(&b, "| %s | %s |\n", s.Name, numeric.FormatDecimal(numeric.Round(s.Value, 1)))
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n\n")
	if len(in.Recommendations) == 0 {
		b.WriteString("No recommendations available.\n\n")
	}
	for i, r := range in.Recommendations {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, r.Title)
		fmt.Fprintf(&b, "%s\n\n", r.Description)
		fmt.Fprintf(&b, "- Priority: %s\n- Impact: %s\n- Cost: %s\n\n", r.Priority, r.Impact, r.Cost)
	}

	if in.Fairness != nil {
		b.WriteString("## Fairness Audit\n\n")
		b.WriteString("| Metric | Score | Category |\n|---|---|---|\n")
		for _, m := range in.Fairness.Metrics {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Name, numeric.FormatDecimal(m.Value), m.Category)
		}
		fmt.Fprintf(&b, "\nVerification: %s (%s%% confidence)\n\n",
			in.Fairness.AIVerification.Status, numeric.FormatDecimal(in.Fairness.AIVerification.Confidence))
	}

	b.WriteString("## Report Summary\n\n")
	fmt.Fprintf(&b, "- Districts Analyzed: %d\n", in.DistrictCount)
	fmt.Fprintf(&b, "- Simulations Run: %d\n", len(in.Runs))
	fmt.Fprintf(&b, "- Valid Certificates: %d\n", ValidCertificates(in.Certificates))

	return b.Bytes()
}

// HTML renders the brief as a complete HTML page
func HTML(in Input) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: Title,
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
	})
	return markdown.ToHTML(Markdown(in), p, renderer)
}

// runValue reads a numeric run field; zero and missing both fall back
func runValue(run records.Record, key string, fallback float64) float64 {
	if run == nil {
		return fallback
	}
	if v, ok := run.Float(key); ok && v != 0 {
		return v
	}
	return fallback
}
