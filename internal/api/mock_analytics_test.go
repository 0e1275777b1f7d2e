package api

import (
	"context"

	"futureweaver/app"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/analysis/causal"
	"futureweaver/internal/analysis/fairness"
	"futureweaver/internal/analysis/policy"
	"futureweaver/internal/analysis/recommend"
	"futureweaver/internal/presets"
	"futureweaver/internal/report"

	"github.com/stretchr/testify/mock"
)

var mockAnyContext = mock.Anything

type mockAnalytics struct {
	mock.Mock
}

var _ Analytics = (*mockAnalytics)(nil)

func (m *mockAnalytics) rows(args mock.Arguments) ([]records.Record, error) {
	rows, _ := args.Get(0).([]records.Record)
	return rows, args.Error(1)
}

func (m *mockAnalytics) ListDistricts(ctx context.Context) ([]records.Record, error) {
	return m.rows(m.Called(ctx))
}

func (m *mockAnalytics) ListTable(ctx context.Context, name string) ([]records.Record, error) {
	return m.rows(m.Called(ctx, name))
}

func (m *mockAnalytics) AppendLog(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	args := m.Called(ctx, name, rec)
	saved, _ := args.Get(0).(records.Record)
	return saved, args.Error(1)
}

func (m *mockAnalytics) ResilienceScorecard(ctx context.Context) ([]records.Record, error) {
	return m.rows(m.Called(ctx))
}

func (m *mockAnalytics) FairnessAudit(ctx context.Context) (*fairness.Report, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*fairness.Report)
	return r, args.Error(1)
}

func (m *mockAnalytics) Recommendations(ctx context.Context) ([]recommend.Recommendation, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]recommend.Recommendation)
	return r, args.Error(1)
}

func (m *mockAnalytics) DiscoverCausality(ctx context.Context) ([]causal.Link, error) {
	args := m.Called(ctx)
	l, _ := args.Get(0).([]causal.Link)
	return l, args.Error(1)
}

func (m *mockAnalytics) SimulatePolicy(ctx context.Context, req app.SimulateRequest) (*policy.Result, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*policy.Result)
	return r, args.Error(1)
}

func (m *mockAnalytics) GenerateCounterfactual(ctx context.Context, params policy.CounterfactualParams) ([]policy.Scenario, error) {
	args := m.Called(ctx, params)
	s, _ := args.Get(0).([]policy.Scenario)
	return s, args.Error(1)
}

func (m *mockAnalytics) PredictImpact(ctx context.Context, id core.DistrictID, params policy.ImpactParams) (*policy.Prediction, error) {
	args := m.Called(ctx, id, params)
	p, _ := args.Get(0).(*policy.Prediction)
	return p, args.Error(1)
}

func (m *mockAnalytics) PolicyReport(ctx context.Context) (*report.Input, error) {
	args := m.Called(ctx)
	in, _ := args.Get(0).(*report.Input)
	return in, args.Error(1)
}

func (m *mockAnalytics) Presets() []presets.Preset {
	args := m.Called()
	p, _ := args.Get(0).([]presets.Preset)
	return p
}

func (m *mockAnalytics) Preset(name string) (presets.Preset, error) {
	args := m.Called(name)
	p, _ := args.Get(0).(presets.Preset)
	return p, args.Error(1)
}
