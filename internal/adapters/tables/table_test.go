package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "klarna_dailytakings_summary.csv")

	tbl := New([]string{"date", "k_dailytakings_cash"})
	tbl.AppendRow([]string{"20250408", "100.00"})
	tbl.AppendRow([]string{"20250409", ""})
	require.NoError(t, tbl.WriteCSV(path))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "k_dailytakings_cash"}, got.Columns())
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "100.00", got.Cell(0, "k_dailytakings_cash"))
	assert.Equal(t, "", got.Cell(1, "k_dailytakings_cash"))
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadCSVUTF8BOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,notes\n20250408,banked\n")...)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	tbl, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "notes"}, tbl.Columns())
	assert.Equal(t, "banked", tbl.Cell(0, "notes"))
}

func TestReadCSVWindows1252(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.csv")
	// 0xA3 is the pound sign in Windows-1252 and invalid UTF-8.
	content := []byte("date,notes\n20250408,short \xa350\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	tbl, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "short £50", tbl.Cell(0, "notes"))
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "x", CleanCell("  x "))
	assert.Equal(t, "", CleanCell("nan"))
	assert.Equal(t, "", CleanCell("  NaN "))
	assert.Equal(t, "Data Unavailable", CleanCell("Data Unavailable"))
}

func TestFirstNonEmptyAndDates(t *testing.T) {
	tbl := New([]string{"date", "other"})
	tbl.AppendRow([]string{"20250408", ""})
	tbl.AppendRow([]string{"20250408", "12.00"})
	tbl.AppendRow([]string{"20250408", "99.00"})
	tbl.AppendRow([]string{"20250409", "nan"})

	v, ok := tbl.FirstNonEmpty("date", "20250408", "other")
	require.True(t, ok)
	assert.Equal(t, "12.00", v, "first non-empty value wins in row order")

	_, ok = tbl.FirstNonEmpty("date", "20250409", "other")
	assert.False(t, ok)

	assert.Equal(t, map[string]bool{"20250408": true, "20250409": true}, tbl.DateSet("date"))
	assert.Len(t, tbl.Dates("date"), 4)
}

func TestAddColumn(t *testing.T) {
	tbl := New([]string{"Event"})
	tbl.AppendRow([]string{"Season Tickets"})
	tbl.AppendRow([]string{"Preston North End Co"})
	tbl.AddColumn("charges_value", []string{"900.00"})

	assert.True(t, tbl.HasColumns("Event", "charges_value"))
	assert.Equal(t, "900.00", tbl.Cell(0, "charges_value"))
	assert.Equal(t, "", tbl.Cell(1, "charges_value"))
}
