package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/venueops/tktsrecon/internal/adapters/extractor"
	"github.com/venueops/tktsrecon/internal/adapters/tables"
	"github.com/venueops/tktsrecon/internal/application/intake"
	"github.com/venueops/tktsrecon/internal/infrastructure/config"
)

// Summarizer turns each validated source's documents into summary tables,
// the persisted intermediate state every later stage reads.
type Summarizer struct {
	extractor extractor.Extractor
	out       config.OutputConfig
	logger    *slog.Logger
}

// NewSummarizer creates a summarizer using ex to pull typed fields out of
// single-record documents.
func NewSummarizer(ex extractor.Extractor, out config.OutputConfig, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{extractor: ex, out: out, logger: logger}
}

// summarizeFields builds a date-keyed summary with one row per document and
// one column per extracted field. A field that fails extraction leaves an
// empty cell; the cascade later resolves it to "Data Unavailable".
func (s *Summarizer) summarizeFields(ctx context.Context, sf *intake.SourceFiles, fields []string) (*tables.Table, error) {
	tbl := tables.New(append([]string{"date"}, fields...))
	for _, path := range sf.Files {
		doc, err := s.extractor.Extract(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: extract %s: %w", sf.Name, filepath.Base(path), err)
		}

		row := []string{doc.Date}
		for _, field := range fields {
			v, err := doc.Value(field)
			if err != nil {
				s.logger.Warn("Field missing from source document",
					"source", sf.Name, "file", filepath.Base(path), "field", field)
				v = ""
			}
			row = append(row, v)
		}
		tbl.AppendRow(row)
	}

	if err := tbl.WriteCSV(s.out.SummaryPath(sf.Name)); err != nil {
		return nil, err
	}
	s.logger.Info("Summary table written", "source", sf.Name, "rows", tbl.Len())
	return tbl, nil
}

// TicketOffice summarizes banking notes per date.
func (s *Summarizer) TicketOffice(ctx context.Context, sf *intake.SourceFiles) (*tables.Table, error) {
	return s.summarizeFields(ctx, sf, []string{"notes"})
}

// SaleItemsMoP summarizes point-of-sale grand totals per date.
func (s *Summarizer) SaleItemsMoP(ctx context.Context, sf *intake.SourceFiles) (*tables.Table, error) {
	return s.summarizeFields(ctx, sf, []string{"total_amount"})
}

// Klarna summarizes the five daily-takings method-of-payment totals.
func (s *Summarizer) Klarna(ctx context.Context, sf *intake.SourceFiles) (*tables.Table, error) {
	return s.summarizeFields(ctx, sf, []string{
		"k_dailytakings_cash",
		"k_dailytakings_credit",
		"k_dailytakings_debit",
		"k_dailytakings_voucher",
		"k_dailytakings_account",
	})
}

// Membership summarizes the evergreen and gross membership figures.
func (s *Summarizer) Membership(ctx context.Context, sf *intake.SourceFiles) (*tables.Table, error) {
	return s.summarizeFields(ctx, sf, []string{
		"other",
		"total",
		"mddto_miles_gross",
		"mddto_misc_group_gross",
		"mddto_waiting_list_gross",
		"mddto_total_all_sales_gross",
	})
}

// Charges splits each charge statement into its named income totals and its
// postal-charge rows, writing one charges_value and one charges_postal table
// per date plus a combined date/total_name/value summary.
func (s *Summarizer) Charges(sf *intake.SourceFiles) (*tables.Table, error) {
	summary := tables.New([]string{"date", "total_name", "value"})

	for i, path := range sf.Files {
		date := sf.Dates[i]
		src, err := tables.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("charges: read %s: %w", filepath.Base(path), err)
		}
		if !src.HasColumns("total_name", "value") {
			return nil, fmt.Errorf("charges: %s missing total_name/value columns", filepath.Base(path))
		}

		values := tables.New([]string{"total_name", "value"})
		postal := tables.New([]string{"charge_type", "value"})
		for r := 0; r < src.Len(); r++ {
			name := tables.CleanCell(src.Cell(r, "total_name"))
			value := tables.CleanCell(src.Cell(r, "value"))
			if name == "" {
				continue
			}
			if isPostalRow(name) {
				postal.AppendRow([]string{name, value})
				continue
			}
			values.AppendRow([]string{name, value})
			summary.AppendRow([]string{date, name, value})
		}

		if err := values.WriteCSV(filepath.Join(s.out.ChargesValuesDir(), "charges_value_"+date+".csv")); err != nil {
			return nil, err
		}
		if err := postal.WriteCSV(filepath.Join(s.out.PostalChargesDir(), "charges_postal_"+date+".csv")); err != nil {
			return nil, err
		}
	}

	if err := summary.WriteCSV(s.out.SummaryPath(sf.Name)); err != nil {
		return nil, err
	}
	s.logger.Info("Charges tables written", "dates", len(sf.Files), "rows", summary.Len())
	return summary, nil
}

// SeasonEvents copies each per-date season/event table under the output root
// for enrichment and returns the date summary.
func (s *Summarizer) SeasonEvents(sf *intake.SourceFiles) (*tables.Table, error) {
	summary := tables.New([]string{"date"})

	for i, path := range sf.Files {
		date := sf.Dates[i]
		src, err := tables.ReadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("klarna_seasoneventmop: read %s: %w", filepath.Base(path), err)
		}
		if !src.HasColumn("Event") {
			return nil, fmt.Errorf("klarna_seasoneventmop: %s missing Event column", filepath.Base(path))
		}

		dst := filepath.Join(s.out.SeasonEventsDir(), "klarna_seasoneventmop_"+date+".csv")
		if err := src.WriteCSV(dst); err != nil {
			return nil, err
		}
		summary.AppendRow([]string{date})
	}

	if err := summary.WriteCSV(s.out.SummaryPath(sf.Name)); err != nil {
		return nil, err
	}
	s.logger.Info("Season/event tables written", "dates", summary.Len())
	return summary, nil
}

// isPostalRow reports whether a charges row belongs to the postal-charge
// table rather than the income totals.
func isPostalRow(name string) bool {
	return strings.Contains(strings.ToLower(name), "postal")
}
