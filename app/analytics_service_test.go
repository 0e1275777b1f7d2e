package app

import (
	"context"
	"testing"
	"time"

	"futureweaver/adapters/memstore"
	"futureweaver/adapters/rng"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/analysis/causal"
	"futureweaver/internal/analysis/policy"
	apperrors "futureweaver/internal/errors"
	"futureweaver/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pinned = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*AnalyticsService, *memstore.Store) {
	t.Helper()
	clock := func() time.Time { return pinned }
	store := memstore.New().WithClock(clock)
	store.Seed(records.TableDistricts, testkit.Districts())
	svc := NewAnalyticsService(store, rng.NewSequence(0, 13, 6)).
		WithClock(clock).
		WithIDSource(func() core.ID { return "fixed-id" })
	return svc, store
}

func TestSimulatePolicyRecordsRun(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.SimulatePolicy(ctx, SimulateRequest{Levers: policy.DefaultLevers()})
	require.NoError(t, err)
	assert.Equal(t, 606, result.Summary.TotalPreventedMigration)
	require.Len(t, result.Districts, 3)

	runs, err := store.LoadTable(ctx, records.TableSimulationRuns)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Simulation", runs[0]["run_name"])
	assert.Equal(t, 606.0, runs[0]["lives_stabilized"])
	assert.Equal(t, "completed", runs[0]["status"])
	assert.NotEmpty(t, runs[0][records.FieldID])
	assert.Equal(t, "2026-04-01T09:30:00Z", runs[0][records.FieldCreatedAt])
}

func TestSimulatePolicyRejectsBadLevers(t *testing.T) {
	svc, store := newTestService(t)
	_, err := svc.SimulatePolicy(context.Background(), SimulateRequest{Levers: policy.Levers{WaterSubsidy: -1}})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = store.LoadTable(context.Background(), records.TableSimulationRuns)
	assert.ErrorIs(t, err, core.ErrTableNotFound, "no run is recorded for a rejected simulation")
}

func TestMissingDistrictsTable(t *testing.T) {
	svc := NewAnalyticsService(memstore.New(), rng.NewSequence(0))
	_, err := svc.FairnessAudit(context.Background())
	require.ErrorIs(t, err, core.ErrTableNotFound)
	assert.Equal(t, apperrors.CodeDataUnavailable, apperrors.FromDomain(err).Code)
}

func TestRecommendationsNeedTwoDistricts(t *testing.T) {
	svc, store := newTestService(t)
	store.Seed(records.TableDistricts, testkit.Districts()[:1])

	_, err := svc.Recommendations(context.Background())
	assert.ErrorIs(t, err, core.ErrDegenerateInput)
}

func TestRecommendations(t *testing.T) {
	svc, _ := newTestService(t)
	recs, err := svc.Recommendations(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Emergency Irrigation for Beed", recs[0].Title)
}

func TestDiscoverCausality(t *testing.T) {
	svc, _ := newTestService(t)
	links, err := svc.DiscoverCausality(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, links)
	for _, l := range links {
		assert.Equal(t, 3, l.SampleSize)
		assert.GreaterOrEqual(t, l.LagDays, 1)
		assert.LessOrEqual(t, l.LagDays, 14)
		assert.Less(t, causal.PrecedenceOf(l.CauseVariable), causal.PrecedenceOf(l.EffectVariable)+1)
		assert.Equal(t, "fixed-id", l.ID)
	}
}

func TestPredictImpact(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	prediction, err := svc.PredictImpact(ctx, "2", policy.DefaultImpactParams())
	require.NoError(t, err)
	assert.Equal(t, 60.0, prediction.ImpactScore)

	_, err = svc.PredictImpact(ctx, "99", policy.DefaultImpactParams())
	require.ErrorIs(t, err, core.ErrDistrictNotFound)
	appErr := apperrors.FromDomain(err)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	assert.Equal(t, "District not found", appErr.Message)
}

func TestGenerateCounterfactual(t *testing.T) {
	svc, _ := newTestService(t)
	scenarios, err := svc.GenerateCounterfactual(context.Background(), policy.CounterfactualParams{
		InterventionName: "None",
	})
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "fixed-id", scenarios[0].ID)
	assert.Equal(t, "Counterfactual: None", scenarios[0].Name)
	assert.Equal(t, 0, scenarios[0].TreatmentEffectMigration)
}

func TestListTable(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.Seed(records.TableMigrationEvents, []records.Record{{"id": "m1", "volume": 1200.0}})

	rows, err := svc.ListTable(ctx, records.TableMigrationEvents)
	require.NoError(t, err)
	assert.Equal(t, []records.Record{{"id": "m1", "volume": 1200.0}}, rows)

	_, err = svc.ListTable(ctx, "users")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.ListTable(ctx, records.TablePolicyInterventions)
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestAppendLog(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	saved, err := svc.AppendLog(ctx, records.TableCausalCertificates, records.Record{"is_valid": true})
	require.NoError(t, err)
	assert.Equal(t, true, saved["is_valid"])
	assert.NotEmpty(t, saved[records.FieldID])

	rows, err := store.LoadTable(ctx, records.TableCausalCertificates)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.AppendLog(ctx, records.TableDistricts, records.Record{"name": "X"})
	assert.ErrorIs(t, err, core.ErrReadOnlyTable)

	_, err = svc.AppendLog(ctx, records.TableSimulationRuns, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResilienceScorecard(t *testing.T) {
	svc, store := newTestService(t)
	store.Seed(records.TableResilienceScores, []records.Record{
		{"id": "r1", "district_id": "1", "overall_score": 41.0},
		{"id": "r2", "district_id": "3", "overall_score": 55.0},
		{"id": "r3", "district_id": "1", "overall_score": 44.0},
	})

	out, err := svc.ResilienceScorecard(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Beed", out[0]["name"])
	beed := out[0]["resilience_scores"].([]records.Record)
	require.Len(t, beed, 2)
	assert.Equal(t, "r1", beed[0]["id"])
	assert.Equal(t, "r3", beed[1]["id"])
	assert.Empty(t, out[1]["resilience_scores"])
	assert.Len(t, out[2]["resilience_scores"], 1)
}

func TestResilienceScorecardMissingScores(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ResilienceScorecard(context.Background())
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestPolicyReport(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	in, err := svc.PolicyReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, pinned, in.GeneratedAt)
	assert.Equal(t, 3, in.DistrictCount)
	assert.Empty(t, in.Runs)
	assert.Len(t, in.Recommendations, 3)
	require.NotNil(t, in.Fairness)

	store.Seed(records.TableDistricts, testkit.Districts()[:1])
	in, err = svc.PolicyReport(ctx)
	require.NoError(t, err)
	assert.Empty(t, in.Recommendations)
}

func TestPresets(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.Preset("water-first")
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Levers.WaterSubsidy)
	assert.NotEmpty(t, svc.Presets())

	_, err = svc.Preset("nope")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
