package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"futureweaver/adapters/memstore"
	"futureweaver/adapters/sqlstore"
	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/internal/config"
	"futureweaver/internal/container"
	apperrors "futureweaver/internal/errors"
	"futureweaver/internal/testkit"
	"futureweaver/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOptions returns options bound to a seeded in-memory store
func memoryOptions(format string) (*RootOptions, *memstore.Store) {
	store := memstore.New()
	store.Seed(records.TableDistricts, testkit.Districts())
	return &RootOptions{
		Format: format,
		LoadConfig: func() (*config.Config, error) {
			cfg := config.Default()
			cfg.Store.Backend = config.BackendMemory
			cfg.Analysis.Seed = 42
			return cfg, nil
		},
		OpenStore: func(ctx context.Context, cfg config.StoreConfig) (ports.TableStore, *sqlstore.Store, error) {
			return store, nil, nil
		},
	}, store
}

func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	_, err := execute(t, opts, "--format", "yaml", "audit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFormatOptionIsTheFlagDefault(t *testing.T) {
	opts, _ := memoryOptions(FormatJSON)
	out, err := execute(t, opts, "audit")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), "expected JSON, got %q", out)

	out, err = execute(t, opts, "--format", "text", "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "Verification:")

	out, err = execute(t, &RootOptions{LoadConfig: opts.LoadConfig, OpenStore: opts.OpenStore}, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "METRIC")
}

func TestSimulateRecordsRun(t *testing.T) {
	opts, store := memoryOptions(FormatText)
	out, err := execute(t, opts, "simulate", "--water", "80", "--run-name", "Wells")
	require.NoError(t, err)
	assert.Contains(t, out, "Beed")
	assert.Contains(t, out, "Prevented migration")
	assert.Contains(t, out, "water=80.0")
	assert.Contains(t, out, `Recorded run "Wells"`)

	runs, err := store.LoadTable(context.Background(), records.TableSimulationRuns)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Wells", runs[0]["run_name"])
}

func TestSimulateDryRunLeavesStoreUntouched(t *testing.T) {
	opts, store := memoryOptions(FormatJSON)
	out, err := execute(t, opts, "simulate", "--preset", "weak-monsoon", "--dry-run")
	require.NoError(t, err)

	var result struct {
		Districts []map[string]interface{} `json:"districts"`
		Summary   map[string]interface{}   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Districts, 3)
	assert.Contains(t, result.Summary, "total_prevented_migration")

	_, err = store.LoadTable(context.Background(), records.TableSimulationRuns)
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestSimulateUnknownPreset(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	_, err := execute(t, opts, "simulate", "--preset", "drizzle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown preset")
}

func TestSimulateRejectsNegativeLever(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	_, err := execute(t, opts, "simulate", "--monsoon", "-5")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAuditText(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	out, err := execute(t, opts, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "Verification:")
}

func TestRecommendJSON(t *testing.T) {
	opts, _ := memoryOptions(FormatJSON)
	out, err := execute(t, opts, "recommend")
	require.NoError(t, err)

	var recs []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "priority")
}

func TestDiscoverJSON(t *testing.T) {
	opts, _ := memoryOptions(FormatJSON)
	out, err := execute(t, opts, "discover")
	require.NoError(t, err)

	var links []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	for _, l := range links {
		assert.NotEqual(t, l["cause_variable"], l["effect_variable"])
	}
}

func TestExportCSVToStdout(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	out, err := execute(t, opts, "export", "districts")
	require.NoError(t, err)
	assert.Contains(t, out, "Beed")
	assert.Contains(t, out, "Latur")
}

func TestExportToDirectory(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	dir := t.TempDir()
	_, err := execute(t, opts, "export", "districts", "--type", "xlsx", "--out", dir)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "districts_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestExportUnknownTable(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	_, err := execute(t, opts, "export", "users")
	assert.Error(t, err)
}

func TestReportMarkdown(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	out, err := execute(t, opts, "report", "--type", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "Policy Recommendation Report")
	assert.Contains(t, out, "Districts Analyzed")

	_, err = execute(t, opts, "report", "--type", "pdf")
	assert.Error(t, err)
}

func TestMigrateNeedsSQLBackend(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	_, err := execute(t, opts, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQL backend")
}

func TestImportIntoSQLite(t *testing.T) {
	dataDir := t.TempDir()
	csv := "id,name,drought_index\n1,Beed,80\n2,Pune,20\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "districts.csv"), []byte(csv), 0o644))

	dbPath := filepath.Join(t.TempDir(), "fw.db")
	opts := &RootOptions{
		Format: FormatJSON,
		LoadConfig: func() (*config.Config, error) {
			cfg := config.Default()
			cfg.Store.Backend = config.BackendSQLite
			cfg.Store.SQLitePath = dbPath
			return cfg, nil
		},
		OpenStore: container.OpenStore,
	}

	out, err := execute(t, opts, "import", dataDir)
	require.NoError(t, err)
	var results []importResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Equal(t, []importResult{{Table: records.TableDistricts, Rows: 2}}, results)

	out, err = execute(t, opts, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, `"backend": "sqlite"`)

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer store.Close()
	rows, err := store.LoadTable(context.Background(), records.TableDistricts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Beed", rows[0]["name"])
}

func TestSeedThenAuditFromCSV(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	opts := &RootOptions{
		Format: FormatText,
		LoadConfig: func() (*config.Config, error) {
			cfg := config.Default()
			cfg.Store.DataDir = dataDir
			return cfg, nil
		},
		OpenStore: container.OpenStore,
	}

	out, err := execute(t, opts, "seed", dataDir, "--count", "8", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 8 districts")
	assert.FileExists(t, filepath.Join(dataDir, "districts.csv"))

	out, err = execute(t, opts, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "Verification:")
}

func TestSeedRejectsBadCount(t *testing.T) {
	opts, _ := memoryOptions(FormatText)
	_, err := execute(t, opts, "seed", t.TempDir(), "--count", "0")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = execute(t, opts, "seed", t.TempDir(), "--missing", "1.5")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
