// Package enrich runs the matching pass: each season/event table gets a
// charges_value column populated by pairing event labels against the same
// date's charge totals, then a ccdva_less_charges column derived from it.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/venueops/tktsrecon/internal/adapters/tables"
	"github.com/venueops/tktsrecon/internal/domain/ledger"
	"github.com/venueops/tktsrecon/internal/domain/matcher"
)

// Labels excluded from matching. Summary rows are not events and must never
// consume a candidate.
const (
	totalIncomeLabel    = "total income"
	totalForPeriodLabel = "total for the period"
)

// CCDVATotalLabel marks the appended summary row carrying the detail-row sum.
const CCDVATotalLabel = "xero_ccdva_less_charges-->"

// Summary counts one date's enrichment outcome.
type Summary struct {
	Date      string
	Matched   int
	Unmatched int
	Skipped   int
}

// Enricher matches event labels to charge totals and derives CCDVA columns.
type Enricher struct {
	matcher  *matcher.Matcher
	embedder matcher.Embedder
	logger   *slog.Logger
}

// New creates an enricher. embedder may be nil; matching then runs with the
// lexical strategies only.
func New(embedder matcher.Embedder, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		matcher:  matcher.New(matcher.DefaultConfig(), embedder),
		embedder: embedder,
		logger:   logger,
	}
}

// EnrichDate enriches one date's season/event table in place: it loads the
// charge totals from chargesPath, matches every event row, writes the
// charges_value column, then derives ccdva_less_charges and the summary row.
func (e *Enricher) EnrichDate(ctx context.Context, date, chargesPath, eventsPath string) (*Summary, error) {
	charges, err := tables.ReadCSV(chargesPath)
	if err != nil {
		return nil, fmt.Errorf("charge totals for %s: %w", date, err)
	}
	if !charges.HasColumns("total_name", "value") {
		return nil, fmt.Errorf("charge totals for %s: missing total_name/value columns", date)
	}

	events, err := tables.ReadCSV(eventsPath)
	if err != nil {
		return nil, fmt.Errorf("season/event table for %s: %w", date, err)
	}
	if !events.HasColumn("Event") {
		return nil, fmt.Errorf("season/event table for %s: missing Event column", date)
	}

	pool := e.buildPool(ctx, charges)
	summary := &Summary{Date: date}

	values := make([]string, 0, events.Len())
	for i := 0; i < events.Len(); i++ {
		label := tables.CleanCell(events.Cell(i, "Event"))
		if label == "" || isSummaryLabel(label) {
			values = append(values, "")
			summary.Skipped++
			continue
		}

		match, err := e.matcher.Match(ctx, label, pool)
		if err != nil {
			// A failed provider call downgrades this label to no-match; the
			// run keeps going.
			e.logger.Warn("Similarity call failed for label", "date", date, "label", label, "error", err)
			values = append(values, "0")
			summary.Unmatched++
			continue
		}
		if match == nil {
			values = append(values, "0")
			summary.Unmatched++
			continue
		}

		pool.MarkUsed(match.Index)
		values = append(values, pool.Value(match.Index))
		summary.Matched++
		e.logger.Debug("Matched event to charge total",
			"date", date, "event", label, "total", pool.Label(match.Index), "score", match.Score)
	}
	events.AddColumn("charges_value", values)

	e.applyCCDVALessCharges(events)

	if err := events.WriteCSV(eventsPath); err != nil {
		return nil, fmt.Errorf("write season/event table for %s: %w", date, err)
	}

	e.logger.Info("Enriched season/event table",
		"date", date, "matched", summary.Matched, "unmatched", summary.Unmatched, "skipped", summary.Skipped)
	return summary, nil
}

// buildPool assembles the candidate pool for one date: usable charge-total
// rows minus the reserved total-income row, embedded once so every event in
// the document reuses the same vectors.
func (e *Enricher) buildPool(ctx context.Context, charges *tables.Table) *matcher.Pool {
	var candidates []matcher.Candidate
	for i := 0; i < charges.Len(); i++ {
		name := tables.CleanCell(charges.Cell(i, "total_name"))
		if name == "" || strings.EqualFold(name, totalIncomeLabel) {
			continue
		}
		candidates = append(candidates, matcher.Candidate{
			Label: name,
			Value: tables.CleanCell(charges.Cell(i, "value")),
		})
	}

	pool := matcher.NewPool(candidates)
	if e.embedder == nil || pool.Len() == 0 {
		return pool
	}

	vectors, err := e.embedder.Embed(ctx, pool.Labels())
	if err != nil {
		e.logger.Warn("Failed to embed candidate pool; matching lexically only", "error", err)
		return pool
	}
	if err := pool.SetEmbeddings(vectors); err != nil {
		e.logger.Warn("Embedding count mismatch; matching lexically only", "error", err)
	}
	return pool
}

// applyCCDVALessCharges adds ccdva_less_charges = Total_CCDVA − charges_value
// per detail row, then routes the detail sum into the total-income row when
// one exists or appends a marker row otherwise.
func (e *Enricher) applyCCDVALessCharges(events *tables.Table) {
	if !events.HasColumns("Total_CCDVA", "charges_value") {
		e.logger.Warn("Season/event table missing Total_CCDVA; skipping ccdva_less_charges")
		return
	}

	sum := decimal.Zero
	totalRow := -1
	values := make([]string, events.Len())
	for i := 0; i < events.Len(); i++ {
		label := tables.CleanCell(events.Cell(i, "Event"))
		if strings.EqualFold(label, totalIncomeLabel) {
			totalRow = i
			continue
		}
		d := ledger.ToNumber(events.Cell(i, "Total_CCDVA")).Sub(ledger.ToNumber(events.Cell(i, "charges_value")))
		values[i] = ledger.FormatAmount(d)
		sum = sum.Add(d)
	}
	events.AddColumn("ccdva_less_charges", values)

	if totalRow >= 0 {
		events.SetCell(totalRow, "ccdva_less_charges", ledger.FormatAmount(sum))
		return
	}

	record := make([]string, len(events.Columns()))
	events.AppendRow(record)
	last := events.Len() - 1
	events.SetCell(last, "Event", CCDVATotalLabel)
	events.SetCell(last, "ccdva_less_charges", ledger.FormatAmount(sum))
}

func isSummaryLabel(label string) bool {
	return strings.EqualFold(label, totalIncomeLabel) ||
		strings.EqualFold(label, totalForPeriodLabel)
}
