// Package report renders the final ledger into per-date export files with a
// fixed Date,Heading,Value layout: nine core financial headings, one detail
// row per matched event, then the reconciliation block.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/venueops/tktsrecon/internal/adapters/tables"
	"github.com/venueops/tktsrecon/internal/domain/ledger"
)

const reconciliationBanner = "--- RECONCILIATION ---"

// Labels that mark summary rows inside a season/event table; they never
// become detail lines.
var summaryLabels = map[string]bool{
	"total income":               true,
	"total for the period":       true,
	"xero_ccdva_less_charges-->": true,
}

// Builder writes per-date report exports.
type Builder struct {
	outDir    string // root folder for per-date report folders
	eventsDir string // per-date season/event tables for detail rows
	logger    *slog.Logger
}

// NewBuilder creates a report builder rooted at outDir, reading event detail
// rows from eventsDir.
func NewBuilder(outDir, eventsDir string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{outDir: outDir, eventsDir: eventsDir, logger: logger}
}

// BuildAll writes one report per ledger date.
func (b *Builder) BuildAll(led *ledger.Ledger) error {
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	for _, date := range led.Dates() {
		if err := b.buildDate(led, date); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildDate(led *ledger.Ledger, date string) error {
	out := tables.New([]string{"Date", "Heading", "Value"})

	value := func(column string) string {
		return renderValue(led.GetOr(date, column, ""))
	}

	// Core financial headings. The last four categories are not computed
	// anywhere yet and always render as zero.
	out.AppendRow([]string{date, "BOOKING FEE", value("xero_booking_fee")})
	out.AppendRow([]string{date, "POSTAGE", value("xero_postage")})
	out.AppendRow([]string{date, "ON ACCOUNT", value("xero_on_account")})
	out.AppendRow([]string{date, "EVERGREEN", value("xero_evergreen")})
	out.AppendRow([]string{date, "MILES AWAY TRAVEL CLUB", value("mddto_miles_gross")})
	out.AppendRow([]string{date, "UNALLOCATED", "0"})
	out.AppendRow([]string{date, "REFUND", "0"})
	out.AppendRow([]string{date, "GIFT CARD", "0"})
	out.AppendRow([]string{date, "VOUCHER", "0"})

	for _, row := range b.eventDetailRows(date) {
		out.AppendRow(row)
	}

	expected := ledger.ToNumber(led.GetOr(date, "expected_total", ""))
	actual := ledger.ToNumber(led.GetOr(date, "actual_total", ""))
	out.AppendRow([]string{date, reconciliationBanner, ""})
	out.AppendRow([]string{date, "ACTUAL TOTAL", value("actual_total")})
	out.AppendRow([]string{date, "EXPECTED TOTAL", value("expected_total")})
	out.AppendRow([]string{date, "DIFFERENCE", ledger.FormatAmount(expected.Sub(actual))})
	out.AppendRow([]string{date, "STATUS", led.GetOr(date, "Status", "Not Matched")})
	out.AppendRow([]string{date, "NOTES", led.GetOr(date, "ticketoffice_notes", "Null")})

	name := fmt.Sprintf("output_xero_tkts_%s", date)
	path := filepath.Join(b.outDir, name, name+".csv")
	if err := out.WriteCSV(path); err != nil {
		return fmt.Errorf("write report for %s: %w", date, err)
	}

	b.logger.Info("Report written", "date", date, "rows", out.Len())
	return nil
}

// eventDetailRows returns one Date,Heading,Value row per matched event in the
// date's season/event table. A missing or unmatched table simply yields no
// detail rows.
func (b *Builder) eventDetailRows(date string) [][]string {
	path := filepath.Join(b.eventsDir, "klarna_seasoneventmop_"+date+".csv")
	tbl, err := tables.ReadCSV(path)
	if err != nil {
		return nil
	}
	if !tbl.HasColumns("Event", "charges_value") {
		return nil
	}

	var rows [][]string
	for i := 0; i < tbl.Len(); i++ {
		label := tables.CleanCell(tbl.Cell(i, "Event"))
		if label == "" || summaryLabels[strings.ToLower(label)] {
			continue
		}
		rows = append(rows, []string{date, label, renderValue(tbl.Cell(i, "charges_value"))})
	}
	return rows
}

// renderValue collapses blank-ish cells to "0"; placeholders and concrete
// values pass through.
func renderValue(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return "0"
	}
	return s
}
