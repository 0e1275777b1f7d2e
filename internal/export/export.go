// Package export writes store tables as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/records"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Sheet1"

// ParseFormat accepts csv or xlsx; empty means csv
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", core.NewInvalidInputError("format", fmt.Sprintf("unsupported export format %q", s))
	}
}

// ContentType is the MIME type served for f
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName is the download name for table exported on day
func FileName(table string, f Format, day time.Time) string {
	return fmt.Sprintf("%s_%s.%s", table, day.UTC().Format("2006-01-02"), f)
}

// Column maps a record key to a header label
type Column struct {
	Key   string
	Label string
}

// knownColumns are the curated layouts for tables users export most
var knownColumns = map[string][]Column{
	records.TableDistricts: {
		{"name", "District Name"},
		{"code", "Code"},
		{"x_coord", "Longitude"},
		{"y_coord", "Latitude"},
		{"elevation", "Elevation (m)"},
		{"population", "Population"},
		{"area_sq_km", "Area (sq km)"},
		{"drought_index", "Drought Index (%)"},
		{"water_stress_index", "Water Stress (%)"},
		{"crop_failure_rate", "Crop Failure Rate (%)"},
		{"net_migration", "Net Migration"},
	},
	records.TableMigrationEvents: {
		{"event_date", "Event Date"},
		{"source_district_id", "Source District ID"},
		{"destination_district_id", "Destination District ID"},
		{"volume", "Volume"},
		{"primary_cause", "Primary Cause"},
		{"secondary_causes", "Secondary Causes"},
		{"confidence", "Confidence"},
	},
	records.TableCausalLinks: {
		{"cause_variable", "Cause Variable"},
		{"effect_variable", "Effect Variable"},
		{"strength", "Strength"},
		{"p_value", "P-Value"},
		{"confidence_lower", "CI Lower"},
		{"confidence_upper", "CI Upper"},
		{"lag_days", "Lag (days)"},
		{"is_nonlinear", "Nonlinear"},
		{"analysis_method", "Analysis Method"},
	},
	records.TableSimulationRuns: {
		{"run_name", "Run Name"},
		{"created_at", "Timestamp"},
		{"water_subsidy_input", "Water Subsidy (%)"},
		{"climate_policy_input", "Climate Policy (%)"},
		{"monsoon_modifier", "Monsoon Modifier"},
		{"butterfly_effect_enabled", "Butterfly Effect"},
		{"migration_reduction_percent", "Migration Reduction (%)"},
		{"water_security_percent", "Water Security (%)"},
		{"economic_stability_percent", "Economic Stability (%)"},
		{"robustness_score", "Robustness Score"},
		{"lives_stabilized", "Lives Stabilized"},
	},
	records.TableResilienceScores: {
		{"district_id", "District ID"},
		{"score_date", "Score Date"},
		{"overall_score", "Overall Score"},
		{"climate_resilience", "Climate Resilience"},
		{"water_security", "Water Security"},
		{"economic_diversity", "Economic Diversity"},
		{"infrastructure_score", "Infrastructure Score"},
		{"social_risk_index", "Social Risk Index"},
		{"trend", "Trend"},
	},
}

// ColumnsFor returns the curated layout of table, or every key in rows labelled from the
// key itself
func ColumnsFor(table string, rows []records.Record) []Column {
	if cols, ok := knownColumns[table]; ok {
		return cols
	}
	keys := records.Columns(rows)
	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Key: k, Label: labelFor(k)}
	}
	return cols
}

// Write renders rows in format f
func Write(w io.Writer, f Format, cols []Column, rows []records.Record) error {
	switch f {
	case FormatXLSX:
		return writeXLSX(w, cols, rows)
	default:
		return writeCSV(w, cols, rows)
	}
}

func writeCSV(w io.Writer, cols []Column, rows []records.Record) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	line := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			line[i] = cellText(row[c.Key])
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, cols []Column, rows []records.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = excelize.Cell{StyleID: bold, Value: c.Label}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range rows {
		values := make([]interface{}, len(cols))
		for i, c := range cols {
			values[i] = cellValue(row[c.Key])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// cellValue keeps numbers and booleans typed for the workbook
func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case nil:
		return nil
	case float64, int, bool:
		return v
	default:
		return cellText(v)
	}
}

func cellText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = records.FormatValue(p)
		}
		return strings.Join(parts, "; ")
	case []string:
		return strings.Join(val, "; ")
	case map[string]interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return records.FormatValue(val)
	}
}

func labelFor(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
