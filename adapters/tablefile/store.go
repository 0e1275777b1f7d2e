// Package tablefile stores each table as a file in a data directory: <name>.csv
// (readable and appendable) or <name>.xlsx (read-only, first sheet).
package tablefile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"futureweaver/domain/core"
	"futureweaver/domain/records"
	"futureweaver/ports"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xuri/excelize/v2"
)

const (
	fileTypeCSV  = "csv"
	fileTypeXLSX = "xlsx"

	// DefaultCacheSize bounds the number of parsed table snapshots kept in memory
	DefaultCacheSize = 32
)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// snapshotKey identifies one on-disk version of a table file
type snapshotKey struct {
	path    string
	modTime int64
	size    int64
}

// Store implements ports.TableStore over CSV and XLSX files
type Store struct {
	dir   string
	cache *lru.Cache[snapshotKey, []records.Record]
	newID core.IDSource
	now   core.Clock
}

var _ ports.TableStore = (*Store)(nil)

// New creates a file store rooted at dir
func New(dir string, cacheSize int) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: data directory is required", core.ErrInvalidInput)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: data directory %s: %v", core.ErrIO, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrIO, dir)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[snapshotKey, []records.Record](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create table cache: %w", err)
	}
	return &Store{
		dir:   dir,
		cache: cache,
		newID: core.NewID,
		now:   core.SystemClock,
	}, nil
}

// WithClock pins the created_at source
func (s *Store) WithClock(clock core.Clock) *Store {
	s.now = clock
	return s
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

// LoadTable reads the named table. CSV wins when both CSV and XLSX files exist.
func (s *Store) LoadTable(ctx context.Context, name string) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, fileType, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", core.ErrIO, path, err)
	}
	key := snapshotKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
	if cached, ok := s.cache.Get(key); ok {
		return cloneRows(cached), nil
	}

	var rows [][]string
	switch fileType {
	case fileTypeCSV:
		rows, err = readCSVRows(path)
	case fileTypeXLSX:
		rows, err = readExcelRows(path)
	}
	if err != nil {
		return nil, err
	}

	parsed := processRows(rows)
	s.cache.Add(key, parsed)
	return cloneRows(parsed), nil
}

// AppendRecord stamps rec and appends it to <name>.csv. The header is widened when the
// record introduces new columns; existing rows read those columns as nil.
func (s *Store) AppendRecord(ctx context.Context, name string, rec records.Record) (records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !tableNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: table name %q", core.ErrInvalidInput, name)
	}
	csvPath := filepath.Join(s.dir, name+"."+fileTypeCSV)
	if !fileExists(csvPath) && fileExists(filepath.Join(s.dir, name+"."+fileTypeXLSX)) {
		return nil, fmt.Errorf("%w: %s", core.ErrReadOnlyTable, name)
	}

	var existing [][]string
	if fileExists(csvPath) {
		rows, err := readCSVRows(csvPath)
		if err != nil {
			return nil, err
		}
		existing = rows
	}

	stamped := records.Stamp(rec, s.newID, s.now)

	var header []string
	if len(existing) > 0 {
		header = existing[0]
	}
	header = widenHeader(header, stamped)

	out := make([][]string, 0, len(existing)+1)
	out = append(out, header)
	if len(existing) > 1 {
		for _, row := range existing[1:] {
			out = append(out, padRow(row, len(header)))
		}
	}
	line := make([]string, len(header))
	for i, col := range header {
		line[i] = records.EncodeCell(col, stamped[col])
	}
	out = append(out, line)

	if err := writeCSVAtomic(csvPath, out); err != nil {
		return nil, err
	}
	log.Printf("[TableFile] Appended record %v to %s (%d columns)", stamped[records.FieldID], name, len(header))
	return stamped, nil
}

// resolve maps a table name to its backing file
func (s *Store) resolve(name string) (string, string, error) {
	if !tableNamePattern.MatchString(name) {
		return "", "", fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}
	csvPath := filepath.Join(s.dir, name+"."+fileTypeCSV)
	if fileExists(csvPath) {
		return csvPath, fileTypeCSV, nil
	}
	xlsxPath := filepath.Join(s.dir, name+"."+fileTypeXLSX)
	if fileExists(xlsxPath) {
		return xlsxPath, fileTypeXLSX, nil
	}
	return "", "", fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
}

// readCSVRows reads raw CSV rows including the header
func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", core.ErrIO, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrIO, path, err)
	}
	log.Printf("[TableFile] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readExcelRows reads the first sheet of a workbook
func readExcelRows(path string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook %s: %v", core.ErrIO, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", core.ErrIO, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", core.ErrIO, sheets[0], err)
	}
	log.Printf("[TableFile] %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows converts raw string rows into records. Every header column is present
// on every record; blank or missing cells are nil.
func processRows(rows [][]string) []records.Record {
	if len(rows) == 0 {
		return []records.Record{}
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	out := make([]records.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(records.Record, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(row) {
				rec[h] = records.ParseCell(h, row[j])
			} else {
				rec[h] = nil
			}
		}
		out = append(out, rec)
	}
	return out
}

// widenHeader appends the record's unseen columns in sorted order, id first on a new file
func widenHeader(header []string, rec records.Record) []string {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	var extra []string
	for k := range rec {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	if len(header) == 0 {
		for i, k := range extra {
			if k == records.FieldID {
				extra = append(append([]string{k}, extra[:i]...), extra[i+1:]...)
				break
			}
		}
	}
	return append(append([]string{}, header...), extra...)
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// writeCSVAtomic writes rows to a temp file in the same directory and renames it over path
func writeCSVAtomic(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", core.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", core.ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", core.ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", core.ErrIO, path, err)
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func cloneRows(rows []records.Record) []records.Record {
	out := make([]records.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
