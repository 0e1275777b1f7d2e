package export

import (
	"bytes"
	"testing"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestFileName(t *testing.T) {
	day := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "districts_2026-03-09.xlsx", FileName("districts", FormatXLSX, day))
}

func TestColumnsForUnknownTable(t *testing.T) {
	cols := ColumnsFor(records.TableCausalCertificates, []records.Record{{"certificate_hash": "x", "id": "1"}})
	assert.Equal(t, []Column{{"certificate_hash", "Certificate Hash"}, {"id", "Id"}}, cols)
}

func TestWriteCSV(t *testing.T) {
	cols := []Column{{"name", "Name"}, {"tags", "Tags"}, {"score", "Score"}, {"note", "Note"}, {"ok", "OK"}}
	rows := []records.Record{
		{"name": `Beed "east"`, "tags": []interface{}{"a", "b"}, "score": 82.5, "note": nil, "ok": true},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, cols, rows))
	assert.Equal(t, "Name,Tags,Score,Note,OK\n\"Beed \"\"east\"\"\",a; b,82.5,,True\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	rows := []records.Record{
		{"name": "Beed", "drought_index": 80.0, "net_migration": -1000.0},
		{"name": "Pune", "drought_index": 20.0},
	}
	cols := ColumnsFor(records.TableDistricts, rows)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, cols, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "District Name", got[0][0])
	assert.Equal(t, "Beed", got[1][0])
	assert.Equal(t, "80", got[1][7])
	assert.Equal(t, "-1000", got[1][10])
	assert.Equal(t, "Pune", got[2][0])
}
