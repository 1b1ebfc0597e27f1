// Package extractor defines the document-extraction collaborator boundary.
// The reconciliation core never scrapes raw documents itself; it consumes
// typed field results, so it can be tested against synthetic extractors.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/venueops/tktsrecon/internal/adapters/tables"
	"github.com/venueops/tktsrecon/internal/domain/recon"
)

// Field is one extracted field from a source document. Err carries a
// FieldUnparsable classification when the value could not be extracted; the
// field then renders as "Data Unavailable" downstream.
type Field struct {
	Name  string
	Value string
	Err   error
}

// Document is the typed outcome of extracting one source document.
type Document struct {
	Date   string // YYYYMMDD, taken from the filename
	Path   string
	Fields []Field
}

// Value returns the named field's value, or an error when the field is
// missing or failed extraction.
func (d *Document) Value(name string) (string, error) {
	for _, f := range d.Fields {
		if f.Name == name {
			if f.Err != nil {
				return "", f.Err
			}
			return f.Value, nil
		}
	}
	return "", recon.Errorf(recon.KindFieldUnparsable, "extract",
		"field %q not present in %s", name, filepath.Base(d.Path))
}

// Extractor turns one source document into typed field results.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Document, error)
}

var filenameDateRe = regexp.MustCompile(`_(\d{8})\.[A-Za-z0-9]+$`)

// DateFromFilename pulls the YYYYMMDD component out of a source filename of
// the form <prefix>_<YYYYMMDD>.<ext>.
func DateFromFilename(name string) (string, bool) {
	m := filenameDateRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CSV extracts fields from an already-tabular export: a CSV whose header
// names the fields and whose first data row carries the values. Blank cells
// become FieldUnparsable results rather than silent empties.
type CSV struct{}

// Extract implements Extractor.
func (CSV) Extract(_ context.Context, path string) (*Document, error) {
	date, ok := DateFromFilename(path)
	if !ok {
		return nil, fmt.Errorf("no date in filename %s", filepath.Base(path))
	}

	tbl, err := tables.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Date: date, Path: path}
	for _, col := range tbl.Columns() {
		name := strings.TrimSpace(col)
		if name == "" {
			continue
		}
		value := ""
		if tbl.Len() > 0 {
			value = tables.CleanCell(tbl.Cell(0, col))
		}
		field := Field{Name: name, Value: value}
		if value == "" {
			field.Err = recon.Errorf(recon.KindFieldUnparsable, "extract",
				"field %q blank in %s", name, filepath.Base(path))
		}
		doc.Fields = append(doc.Fields, field)
	}
	return doc, nil
}
