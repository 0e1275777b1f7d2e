package records

import (
	"testing"
	"time"

	"futureweaver/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		column string
		raw    string
		want   interface{}
	}{
		{"drought_index", "82.5", 82.5},
		{"net_migration", " -1200 ", -1200.0},
		{"butterfly_effect_enabled", "True", true},
		{"butterfly_effect_enabled", "false", false},
		{"name", "Beed", "Beed"},
		{"notes", "", nil},
		{"notes", "   ", nil},
		{"id", "007", "007"},
		{"district_id", "12", "12"},
		{"run_name", `"007"`, "007"},
		{"notes", `"  padded  "`, "  padded  "},
		{"params", `{"water_subsidy":60}`, map[string]interface{}{"water_subsidy": 60.0}},
		{"tags", `["a",1]`, []interface{}{"a", 1.0}},
		{"notes", "{not json", "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.column+"/"+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCell(tt.column, tt.raw))
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "82.5", FormatValue(82.5))
	assert.Equal(t, "100", FormatValue(100.0))
	assert.Equal(t, "7", FormatValue(7))
	assert.Equal(t, "True", FormatValue(true))
	assert.Equal(t, "False", FormatValue(false))
	assert.Equal(t, "[1,2]", FormatValue([]int{1, 2}))
	assert.Equal(t, `{"a":1}`, FormatValue(map[string]interface{}{"a": 1.0}))
}

func TestEncodeCellReadsBackUnchanged(t *testing.T) {
	text := []interface{}{
		"Beed",
		"007",
		"True",
		"false",
		"  padded  ",
		"",
		`"quoted"`,
		`{"looks":"like json"}`,
		"{not json",
		nil,
		map[string]interface{}{"water_subsidy": 60.0, "nested": []interface{}{"x", 2.0}},
		[]interface{}{1.0, "two"},
	}
	for _, column := range []string{"notes", "id", "district_id"} {
		for _, v := range text {
			cell := EncodeCell(column, v)
			assert.Equal(t, v, ParseCell(column, cell), "column %s cell %q", column, cell)
		}
	}
	// identifier columns keep numbers textual, so typed scalars only survive elsewhere
	for _, v := range []interface{}{82.5, -1200.0, true, false} {
		assert.Equal(t, v, ParseCell("notes", EncodeCell("notes", v)))
	}
	assert.Equal(t, "Beed", EncodeCell("name", "Beed"))
	assert.Equal(t, `"007"`, EncodeCell("run_name", "007"))
	assert.Equal(t, "007", EncodeCell("id", "007"))
}

func TestFloat(t *testing.T) {
	r := Record{"a": 1.5, "b": "2.25", "c": "n/a", "d": true, "e": 3}

	v, ok := r.Float("a")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = r.Float("b")
	assert.True(t, ok)
	assert.Equal(t, 2.25, v)

	v, ok = r.Float("e")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	for _, key := range []string{"c", "d", "missing"} {
		_, ok = r.Float(key)
		assert.False(t, ok, key)
	}
}

func TestTableSets(t *testing.T) {
	assert.True(t, IsReadable(TableResilienceScores))
	assert.False(t, IsReadable("users"))
	assert.True(t, IsAppendable(TableCausalCertificates))
	assert.False(t, IsAppendable(TableDistricts))
	assert.Equal(t, []string{"a", "b", "id"}, Columns([]Record{{"id": 1, "b": 2}, {"a": 3}}))
}

func TestStamp(t *testing.T) {
	pinned := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := func() time.Time { return pinned }
	ids := func() core.ID { return "generated" }

	t.Run("assigns missing fields", func(t *testing.T) {
		in := Record{"run_name": "A"}
		out := Stamp(in, ids, clock)
		assert.Equal(t, "generated", out[FieldID])
		assert.Equal(t, "2026-01-02T03:04:05Z", out[FieldCreatedAt])
		assert.NotContains(t, in, FieldID)
	})

	t.Run("empty id counts as absent", func(t *testing.T) {
		out := Stamp(Record{FieldID: ""}, ids, clock)
		assert.Equal(t, "generated", out[FieldID])
	})

	t.Run("keeps provided values", func(t *testing.T) {
		out := Stamp(Record{FieldID: 42.0, FieldCreatedAt: "yesterday"}, ids, clock)
		assert.Equal(t, "42", out[FieldID])
		assert.Equal(t, "yesterday", out[FieldCreatedAt])
	})
}

func TestCloneCopiesNestedValues(t *testing.T) {
	in := Record{"params": map[string]interface{}{"tags": []interface{}{"wells"}}}
	out := in.Clone()
	out["params"].(map[string]interface{})["tags"].([]interface{})[0] = "canals"

	assert.Equal(t, "wells", in["params"].(map[string]interface{})["tags"].([]interface{})[0])
}
