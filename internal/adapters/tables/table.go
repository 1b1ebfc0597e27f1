// Package tables reads and writes the flat per-date row/column files that
// carry intermediate state between pipeline stages.
package tables

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/venueops/tktsrecon/internal/domain/ledger"
)

// Table is an in-memory row/column table with a named header.
type Table struct {
	columns []string
	colIdx  map[string]int
	rows    [][]string
}

// New builds an empty table with the given columns.
func New(columns []string) *Table {
	t := &Table{columns: columns, colIdx: make(map[string]int, len(columns))}
	for i, c := range columns {
		t.colIdx[c] = i
	}
	return t
}

// Columns returns the header names in order.
func (t *Table) Columns() []string { return t.columns }

// HasColumn reports whether the table has a column with that name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// HasColumns reports whether every named column is present.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if !t.HasColumn(n) {
			return false
		}
	}
	return true
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// AppendRow adds a record, padding or truncating to the column count.
func (t *Table) AppendRow(record []string) {
	row := make([]string, len(t.columns))
	copy(row, record)
	t.rows = append(t.rows, row)
}

// Cell returns the raw cell at row i, or "" for an unknown column.
func (t *Table) Cell(i int, column string) string {
	idx, ok := t.colIdx[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return ""
	}
	return t.rows[i][idx]
}

// SetCell writes the cell at row i for an existing column.
func (t *Table) SetCell(i int, column, value string) {
	if idx, ok := t.colIdx[column]; ok && i >= 0 && i < len(t.rows) {
		t.rows[i][idx] = value
	}
}

// AddColumn appends a column with one value per existing row. Extra values
// are dropped; missing values stay empty.
func (t *Table) AddColumn(name string, values []string) {
	t.colIdx[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.rows[i] = append(t.rows[i], v)
	}
}

// CleanCell trims a raw cell and collapses the pandas-era "nan" spelling to
// empty. Placeholder strings like "Data Unavailable" pass through untouched.
func CleanCell(v string) string {
	s := strings.TrimSpace(v)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// DateSet returns the set of normalized dates appearing in dateColumn.
func (t *Table) DateSet(dateColumn string) map[string]bool {
	out := make(map[string]bool)
	for i := range t.rows {
		d := CleanCell(t.Cell(i, dateColumn))
		if d != "" {
			out[ledger.NormalizeDate(d)] = true
		}
	}
	return out
}

// Dates returns the normalized dates of dateColumn in row order, duplicates
// included.
func (t *Table) Dates(dateColumn string) []string {
	out := make([]string, 0, len(t.rows))
	for i := range t.rows {
		d := CleanCell(t.Cell(i, dateColumn))
		if d != "" {
			out = append(out, ledger.NormalizeDate(d))
		}
	}
	return out
}

// FirstNonEmpty returns the first non-empty cleaned value of column for date,
// scanning rows in source order.
func (t *Table) FirstNonEmpty(dateColumn, date, column string) (string, bool) {
	want := ledger.NormalizeDate(date)
	for i := range t.rows {
		if ledger.NormalizeDate(CleanCell(t.Cell(i, dateColumn))) != want {
			continue
		}
		if v := CleanCell(t.Cell(i, column)); v != "" {
			return v, true
		}
	}
	return "", false
}

// ReadCSV loads a table from a CSV file, decoding the charset first. The
// first record is the header. A missing file surfaces as the underlying
// os error so callers can classify it.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := decodeReader(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	t := New(header)
	for _, rec := range records[1:] {
		t.AppendRow(rec)
	}
	return t, nil
}

// WriteCSV writes the table to path, creating parent directories.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.columns); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
