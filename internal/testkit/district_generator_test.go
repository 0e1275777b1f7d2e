package testkit

import (
	"testing"

	"futureweaver/domain/district"
	"futureweaver/internal/analysis/correlation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistrictGeneratorIsDeterministic(t *testing.T) {
	config := DistrictGeneratorConfig{DistrictCount: 12, MissingRate: 0.1, Seed: 7}

	first := NewDistrictGenerator(config).Generate()
	second := NewDistrictGenerator(config).Generate()
	require.Len(t, first, 12)
	assert.Equal(t, first, second)
}

func TestDistrictGeneratorRows(t *testing.T) {
	rows := NewDistrictGenerator(DefaultDistrictConfig()).Generate()
	require.Len(t, rows, 36)

	seen := make(map[string]bool)
	for _, r := range rows {
		id := r["id"].(string)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		for _, v := range district.Indicators {
			assert.Contains(t, r, string(v))
		}
		drought := r["drought_index"].(float64)
		assert.GreaterOrEqual(t, drought, 0.0)
		assert.LessOrEqual(t, drought, 100.0)
	}
}

func TestDistrictGeneratorNamesPastTheList(t *testing.T) {
	rows := NewDistrictGenerator(DistrictGeneratorConfig{DistrictCount: 40, Seed: 1}).Generate()
	assert.Equal(t, "Ahmednagar 2", rows[36]["name"])
}

func TestDistrictGeneratorDroughtDrivesMigration(t *testing.T) {
	rows := NewDistrictGenerator(DefaultDistrictConfig()).Generate()
	table := district.FromRecords(rows)

	m := correlation.Compute(table, []district.Variable{district.DroughtIndex, district.NetMigration})
	assert.Less(t, m.At(district.DroughtIndex, district.NetMigration), -0.5)
}

func TestNewStoreSeedsDistricts(t *testing.T) {
	rows, err := NewStore().LoadTable(t.Context(), "districts")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
