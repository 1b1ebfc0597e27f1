// Package ledger holds the per-date reconciliation ledger that the aggregate
// cascade builds up, one column pass at a time.
package ledger

import (
	"sort"
	"strings"
)

// Ledger is a table of one row per date with named string columns. Passes add
// or overwrite columns; rows are never removed. Column order is the order in
// which columns were first written, starting with "date".
type Ledger struct {
	dates   []string
	dateSet map[string]bool
	rows    map[string]map[string]string
	columns []string
	colSet  map[string]bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		dateSet: make(map[string]bool),
		rows:    make(map[string]map[string]string),
		columns: []string{"date"},
		colSet:  map[string]bool{"date": true},
	}
}

// NormalizeDate zero-pads a date to the 8-digit YYYYMMDD form used as the row
// key across every source.
func NormalizeDate(date string) string {
	d := strings.TrimSpace(date)
	if d == "" {
		return ""
	}
	for len(d) < 8 {
		d = "0" + d
	}
	return d
}

// AddDate registers a date row, keeping first-seen order. Adding an existing
// date is a no-op.
func (l *Ledger) AddDate(date string) {
	d := NormalizeDate(date)
	if d == "" || l.dateSet[d] {
		return
	}
	l.dateSet[d] = true
	l.dates = append(l.dates, d)
	l.rows[d] = make(map[string]string)
}

// Dates returns all row dates in ascending order.
func (l *Ledger) Dates() []string {
	out := make([]string, len(l.dates))
	copy(out, l.dates)
	sort.Strings(out)
	return out
}

// HasDate reports whether the ledger has a row for date.
func (l *Ledger) HasDate(date string) bool {
	return l.dateSet[NormalizeDate(date)]
}

// Len returns the number of date rows.
func (l *Ledger) Len() int { return len(l.dates) }

// Set writes a cell, registering the column on first use. Empty values are
// rejected: a cell must hold a concrete value or a placeholder.
func (l *Ledger) Set(date, column, value string) {
	d := NormalizeDate(date)
	if !l.dateSet[d] {
		l.AddDate(d)
	}
	if value == "" {
		value = DataUnavailable
	}
	if !l.colSet[column] {
		l.colSet[column] = true
		l.columns = append(l.columns, column)
	}
	l.rows[d][column] = value
}

// Get returns the cell value and whether the column is set for that date.
func (l *Ledger) Get(date, column string) (string, bool) {
	row, ok := l.rows[NormalizeDate(date)]
	if !ok {
		return "", false
	}
	v, ok := row[column]
	return v, ok
}

// GetOr returns the cell value, or fallback when the cell is absent.
func (l *Ledger) GetOr(date, column, fallback string) string {
	if v, ok := l.Get(date, column); ok {
		return v
	}
	return fallback
}

// Columns returns the column names in write order, "date" first.
func (l *Ledger) Columns() []string {
	out := make([]string, len(l.columns))
	copy(out, l.columns)
	return out
}

// Rows renders the ledger as header + records for CSV serialization, rows in
// date order. Cells never come out empty; a column missing for a date renders
// as FileUnavailable, which only happens if a pass skipped that date.
func (l *Ledger) Rows() [][]string {
	cols := l.Columns()
	out := make([][]string, 0, l.Len()+1)
	out = append(out, cols)
	for _, d := range l.Dates() {
		rec := make([]string, len(cols))
		for i, c := range cols {
			if c == "date" {
				rec[i] = d
				continue
			}
			rec[i] = l.GetOr(d, c, FileUnavailable)
		}
		out = append(out, rec)
	}
	return out
}
