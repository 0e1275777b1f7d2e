package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of a store table. Values are string, float64, bool, nil or nested
// JSON values (map[string]interface{}, []interface{}); a column absent from a row reads
// as nil.
type Record map[string]interface{}

// Table names used by the analytics layer
const (
	TableDistricts               = "districts"
	TableCausalLinks             = "causal_links"
	TableCounterfactualScenarios = "counterfactual_scenarios"
	TableResilienceScores        = "resilience_scores"
	TableMigrationEvents         = "migration_events"
	TablePolicyInterventions     = "policy_interventions"
	TableSimulationRuns          = "simulation_runs"
	TableCausalCertificates      = "causal_certificates"
)

// Standard columns assigned by the store on append
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

// ReadableTables are exposed by the passthrough listing endpoints
var ReadableTables = []string{
	TableDistricts,
	TableCausalLinks,
	TableCounterfactualScenarios,
	TableResilienceScores,
	TableMigrationEvents,
	TablePolicyInterventions,
	TableSimulationRuns,
	TableCausalCertificates,
}

// AppendableTables are the append-only result logs
var AppendableTables = []string{
	TableSimulationRuns,
	TableCausalCertificates,
}

// IsReadable reports whether name is a listable table
func IsReadable(name string) bool {
	return contains(ReadableTables, name)
}

// IsAppendable reports whether name is an append-only log table
func IsAppendable(name string) bool {
	return contains(AppendableTables, name)
}

// Clone returns a copy of the record. Nested JSON values are copied too.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// String returns the value of key rendered as text, or "" when absent
func (r Record) String(key string) string {
	return FormatValue(r[key])
}

// Float returns the numeric value of key. Numeric strings are parsed; anything else
// reports ok=false.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Columns returns the sorted set of keys across rows
func Columns(rows []Record) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// IsIdentifierColumn reports whether a column holds identifiers that must stay textual
func IsIdentifierColumn(name string) bool {
	return name == FieldID || strings.HasSuffix(name, "_id")
}

// ParseCell converts a raw text cell into a record value. A cell holding a JSON string
// literal reads as that string, and a JSON object or array reads as the nested value.
func ParseCell(column, raw string) interface{} {
	cell := strings.TrimSpace(raw)
	if cell == "" {
		return nil
	}
	switch cell[0] {
	case '"', '{', '[':
		var v interface{}
		if err := json.Unmarshal([]byte(cell), &v); err == nil {
			return v
		}
	}
	if IsIdentifierColumn(column) {
		return cell
	}
	switch cell {
	case "True", "true", "TRUE":
		return true
	case "False", "false", "FALSE":
		return false
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}

// EncodeCell renders v as a stored text cell that ParseCell reads back unchanged.
// Strings ParseCell would retype or trim are written as JSON string literals.
func EncodeCell(column string, v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return FormatValue(v)
	}
	if back, ok := ParseCell(column, s).(string); ok && back == s {
		return s
	}
	data, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(data)
}

// FormatValue renders a record value as a text cell
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		if data, err := json.Marshal(t); err == nil {
			return string(data)
		}
		return strings.TrimSpace(strings.ReplaceAll(fmt.Sprintf("%v", t), "\n", " "))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
