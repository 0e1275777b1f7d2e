package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/district"
	"futureweaver/domain/records"
	"futureweaver/internal/analysis/causal"
	"futureweaver/internal/analysis/fairness"
	"futureweaver/internal/analysis/policy"
	"futureweaver/internal/analysis/recommend"
	apperrors "futureweaver/internal/errors"
	"futureweaver/internal/metrics"
	"futureweaver/internal/presets"
	"futureweaver/internal/telemetry"
	"futureweaver/ports"
)

// AnalyticsService runs the analysis engines against the current store snapshot.
// Every call reloads the tables it needs; nothing is cached between calls.
type AnalyticsService struct {
	store     ports.TableStore
	causal    *causal.Builder
	simulator *policy.Simulator
	auditor   *fairness.Auditor
	presets   *presets.Set
	now       core.Clock
}

// SimulateRequest is one policy simulation. RunName labels the persisted run.
type SimulateRequest struct {
	RunName string
	Levers  policy.Levers
}

// NewAnalyticsService creates the service. rng feeds the causal lag draw.
func NewAnalyticsService(store ports.TableStore, rng ports.RNGPort) *AnalyticsService {
	return &AnalyticsService{
		store:     store,
		causal:    causal.NewBuilder(rng),
		simulator: policy.NewSimulator(),
		auditor:   fairness.NewAuditor(),
		presets:   presets.Builtin(),
		now:       core.SystemClock,
	}
}

// WithClock pins the timestamp source of every engine
func (s *AnalyticsService) WithClock(clock core.Clock) *AnalyticsService {
	s.now = clock
	s.causal.WithClock(clock)
	s.auditor.WithClock(clock)
	return s
}

// WithIDSource pins the id source of every engine
func (s *AnalyticsService) WithIDSource(ids core.IDSource) *AnalyticsService {
	s.causal.WithIDSource(ids)
	s.simulator.WithIDSource(ids)
	return s
}

// WithPresets replaces the built-in lever presets
func (s *AnalyticsService) WithPresets(set *presets.Set) *AnalyticsService {
	if set != nil {
		s.presets = set
	}
	return s
}

// ListDistricts returns the raw districts table
func (s *AnalyticsService) ListDistricts(ctx context.Context) ([]records.Record, error) {
	var rows []records.Record
	err := s.observe(ctx, "list_districts", func(ctx context.Context) error {
		var err error
		rows, err = s.load(ctx, records.TableDistricts)
		return err
	})
	return rows, err
}

// FairnessAudit scores the district table for demographic parity
func (s *AnalyticsService) FairnessAudit(ctx context.Context) (*fairness.Report, error) {
	var report *fairness.Report
	err := s.observe(ctx, "fairness_audit", func(ctx context.Context) error {
		table, err := s.districts(ctx)
		if err != nil {
			return err
		}
		report, err = s.auditor.Audit(table)
		return err
	})
	return report, err
}

// Recommendations derives the ranked action list
func (s *AnalyticsService) Recommendations(ctx context.Context) ([]recommend.Recommendation, error) {
	var recs []recommend.Recommendation
	err := s.observe(ctx, "recommendations", func(ctx context.Context) error {
		table, err := s.districts(ctx)
		if err != nil {
			return err
		}
		recs, err = recommend.Generate(table)
		return err
	})
	return recs, err
}

// DiscoverCausality builds causal links from the current district correlations
func (s *AnalyticsService) DiscoverCausality(ctx context.Context) ([]causal.Link, error) {
	var links []causal.Link
	err := s.observe(ctx, "discover_causality", func(ctx context.Context) error {
		table, err := s.districts(ctx)
		if err != nil {
			return err
		}
		links = s.causal.Discover(table)
		metrics.CausalLinks.Set(float64(len(links)))
		telemetry.SpanFromContext(ctx).SetAttributes(telemetry.AttrLinks.Int(len(links)))
		return nil
	})
	return links, err
}

// SimulatePolicy projects the levers across all districts and appends the run to
// simulation_runs. A failed append fails the call.
func (s *AnalyticsService) SimulatePolicy(ctx context.Context, req SimulateRequest) (*policy.Result, error) {
	var result *policy.Result
	err := s.observe(ctx, "simulate_policy", func(ctx context.Context) error {
		table, err := s.districts(ctx)
		if err != nil {
			return err
		}
		result, err = s.simulator.Simulate(table, req.Levers)
		if err != nil {
			return err
		}
		metrics.PreventedMigration.Set(float64(result.Summary.TotalPreventedMigration))

		run := policy.NewSimulationRun(req.RunName, req.Levers, result.Summary)
		if _, err := s.append(ctx, records.TableSimulationRuns, run); err != nil {
			return fmt.Errorf("failed to record simulation run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateCounterfactual compares the intervention against no intervention. The result
// is a single-element list.
func (s *AnalyticsService) GenerateCounterfactual(ctx context.Context, params policy.CounterfactualParams) ([]policy.Scenario, error) {
	var scenarios []policy.Scenario
	err := s.observe(ctx, "generate_counterfactual", func(ctx context.Context) error {
		table, err := s.districts(ctx)
		if err != nil {
			return err
		}
		scenario, err := s.simulator.Counterfactual(table, params)
		if err != nil {
			return err
		}
		scenarios = []policy.Scenario{*scenario}
		return nil
	})
	return scenarios, err
}

// PredictImpact projects a project's effect in one district
func (s *AnalyticsService) PredictImpact(ctx context.Context, id core.DistrictID, params policy.ImpactParams) (*policy.Prediction, error) {
	var prediction *policy.Prediction
	err := s.observe(ctx, "predict_impact", func(ctx context.Context) error {
		telemetry.SpanFromContext(ctx).SetAttributes(telemetry.AttrDistrictID.String(id.String()))
		table, err := s.districts(ctx)
		if err != nil {
			return err
		}
		d, err := table.Find(id)
		if err != nil {
			return err
		}
		prediction, err = policy.PredictImpact(d, params)
		return err
	})
	return prediction, err
}

// Presets lists the named lever presets
func (s *AnalyticsService) Presets() []presets.Preset {
	return s.presets.List()
}

// Preset looks up a lever preset by name
func (s *AnalyticsService) Preset(name string) (presets.Preset, error) {
	return s.presets.Get(name)
}

// districts loads and imputes the districts table
func (s *AnalyticsService) districts(ctx context.Context) (*district.Table, error) {
	rows, err := s.load(ctx, records.TableDistricts)
	if err != nil {
		return nil, err
	}
	return district.FromRecords(rows), nil
}

func (s *AnalyticsService) load(ctx context.Context, name string) ([]records.Record, error) {
	rows, err := s.store.LoadTable(ctx, name)
	switch {
	case err == nil:
		metrics.TableLoads.WithLabelValues(name, "ok").Inc()
		telemetry.SpanFromContext(ctx).SetAttributes(
			telemetry.AttrTable.String(name),
			telemetry.AttrRows.Int(len(rows)),
		)
	case core.IsNotFoundError(err):
		metrics.TableLoads.WithLabelValues(name, "missing").Inc()
	default:
		metrics.TableLoads.WithLabelValues(name, "error").Inc()
	}
	return rows, err
}

func (s *AnalyticsService) append(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	saved, err := s.store.AppendRecord(ctx, name, rec)
	if err != nil {
		return nil, err
	}
	metrics.RecordsAppended.WithLabelValues(name).Inc()
	log.Printf("[AnalyticsService] Appended %s record %v", name, saved[records.FieldID])
	return saved, nil
}

// observe runs fn inside a span and records its duration and any failure
func (s *AnalyticsService) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "analytics."+op, telemetry.AttrOperation.String(op))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.AnalysisDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		code := apperrors.FromDomain(err).Code
		metrics.AnalysisFailures.WithLabelValues(op, code).Inc()
		span.SetAttributes(telemetry.AttrErrorCode.String(code))
		telemetry.RecordError(span, err)
		log.Printf("[AnalyticsService] %s failed (%s): %v", op, code, err)
	}
	return err
}
