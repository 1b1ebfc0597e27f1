// Package pipeline runs a full reconciliation end to end: intake validation,
// per-source summarization, event/charge matching, the aggregation cascade,
// the ledger export, and the per-date reports. Each run is recorded in
// storage so operators can audit what ran and what failed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/venueops/tktsrecon/internal/adapters/extractor"
	"github.com/venueops/tktsrecon/internal/adapters/tables"
	"github.com/venueops/tktsrecon/internal/application/cascade"
	"github.com/venueops/tktsrecon/internal/application/enrich"
	"github.com/venueops/tktsrecon/internal/application/intake"
	"github.com/venueops/tktsrecon/internal/application/report"
	"github.com/venueops/tktsrecon/internal/domain/ledger"
	"github.com/venueops/tktsrecon/internal/domain/matcher"
	"github.com/venueops/tktsrecon/internal/domain/recon"
	"github.com/venueops/tktsrecon/internal/infrastructure/config"
	"github.com/venueops/tktsrecon/internal/infrastructure/logging"
	"github.com/venueops/tktsrecon/internal/infrastructure/storage"
)

// Pipeline wires the reconciliation stages together.
type Pipeline struct {
	cfg      *config.Config
	repo     storage.RunRepository // may be nil; runs then go unrecorded
	embedder matcher.Embedder      // may be nil; the matching pass is skipped
	logger   *slog.Logger
}

// New creates a pipeline. repo and embedder may be nil.
func New(cfg *config.Config, repo storage.RunRepository, embedder matcher.Embedder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, repo: repo, embedder: embedder, logger: logger}
}

// Run executes one reconciliation run. The run record is saved as running at
// the start and updated to completed or failed at the end; a classified fatal
// error from any stage stops the run immediately.
func (p *Pipeline) Run(ctx context.Context) error {
	record := &storage.RunRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    storage.RunStatusRunning,
	}
	p.saveRun(record)
	p.logger.Info("Reconciliation run started", "run_id", record.ID)

	led, err := p.run(ctx, record)
	record.CompletedAt = time.Now().UTC()
	if err != nil {
		record.Status = storage.RunStatusFailed
		record.ErrorMessage = err.Error()
		p.saveRun(record)
		p.logger.Error("Reconciliation run failed",
			"run_id", record.ID, "kind", recon.KindOf(err).String(), "error", err)
		return err
	}

	record.Status = storage.RunStatusCompleted
	record.DatesProcessed = led.Len()
	p.saveRun(record)
	p.logger.Info("Reconciliation run completed",
		"run_id", record.ID, "dates", led.Len())
	return nil
}

func (p *Pipeline) run(ctx context.Context, record *storage.RunRecord) (*ledger.Ledger, error) {
	validated, err := intake.NewValidator(logging.NewLoggerForStage(p.logger, "intake")).ValidateAll(p.cfg.Sources)
	if err != nil {
		return nil, err
	}
	record.Stages = append(record.Stages, storage.StageResult{
		Stage: "intake", Processed: len(validated),
	})

	// ValidateAll returns sources in its fixed order.
	ticketOffice := validated[0]
	saleItems := validated[1]
	charges := validated[2]
	klarna := validated[3]
	seasonEvents := validated[4]
	membership := validated[5]

	s := NewSummarizer(extractor.CSV{}, p.cfg.Output, logging.NewLoggerForStage(p.logger, "summarize"))
	src := cascade.Sources{
		PostalChargesDir: p.cfg.Output.PostalChargesDir(),
		SeasonEventsDir:  p.cfg.Output.SeasonEventsDir(),
	}
	if src.TicketOffice, err = s.TicketOffice(ctx, ticketOffice); err != nil {
		return nil, err
	}
	if src.SaleItemsMoP, err = s.SaleItemsMoP(ctx, saleItems); err != nil {
		return nil, err
	}
	if src.Charges, err = s.Charges(charges); err != nil {
		return nil, err
	}
	if src.Klarna, err = s.Klarna(ctx, klarna); err != nil {
		return nil, err
	}
	if src.SeasonEvents, err = s.SeasonEvents(seasonEvents); err != nil {
		return nil, err
	}
	if src.Membership, err = s.Membership(ctx, membership); err != nil {
		return nil, err
	}
	record.Stages = append(record.Stages, storage.StageResult{
		Stage: "summarize", Processed: countFiles(validated),
	})

	record.Stages = append(record.Stages, p.enrichStage(ctx, seasonEvents))

	led := ledger.New()
	if err := cascade.New(src, logging.NewLoggerForStage(p.logger, "cascade")).Run(led); err != nil {
		return nil, err
	}
	record.Stages = append(record.Stages, storage.StageResult{
		Stage: "cascade", Processed: led.Len(),
	})

	if err := p.writeLedger(led); err != nil {
		return nil, err
	}

	builder := report.NewBuilder(p.cfg.Output.ReportsDir(), p.cfg.Output.SeasonEventsDir(),
		logging.NewLoggerForStage(p.logger, "report"))
	if err := builder.BuildAll(led); err != nil {
		return nil, err
	}
	record.Stages = append(record.Stages, storage.StageResult{
		Stage: "report", Processed: led.Len(),
	})

	return led, nil
}

// enrichStage runs the matching pass over every season/event date. Without an
// embedder the pass is skipped wholesale and the event tables stay unmatched;
// the cascade then resolves their derived column to "Data Unavailable".
func (p *Pipeline) enrichStage(ctx context.Context, seasonEvents *intake.SourceFiles) storage.StageResult {
	result := storage.StageResult{Stage: "enrich"}

	if p.embedder == nil {
		p.logger.Warn("Similarity provider unavailable, skipping matching pass",
			"dates", len(seasonEvents.Dates))
		result.Skipped = len(seasonEvents.Dates)
		return result
	}

	enricher := enrich.New(p.embedder, logging.NewLoggerForStage(p.logger, "enrich"))
	for _, date := range seasonEvents.Dates {
		chargesPath := filepath.Join(p.cfg.Output.ChargesValuesDir(), "charges_value_"+date+".csv")
		eventsPath := filepath.Join(p.cfg.Output.SeasonEventsDir(), "klarna_seasoneventmop_"+date+".csv")

		summary, err := enricher.EnrichDate(ctx, date, chargesPath, eventsPath)
		if err != nil {
			p.logger.Warn("Matching pass failed for date", "date", date, "error", err)
			result.Failed++
			continue
		}
		result.Processed++
		p.logger.Info("Events matched",
			"date", date, "matched", summary.Matched,
			"unmatched", summary.Unmatched, "skipped", summary.Skipped)
	}
	return result
}

// writeLedger serializes the final ledger to the aggregate CSV.
func (p *Pipeline) writeLedger(led *ledger.Ledger) error {
	rows := led.Rows()
	tbl := tables.New(rows[0])
	for _, rec := range rows[1:] {
		tbl.AppendRow(rec)
	}
	if err := tbl.WriteCSV(p.cfg.Output.LedgerPath()); err != nil {
		return fmt.Errorf("write aggregate ledger: %w", err)
	}
	p.logger.Info("Aggregate ledger written",
		"path", p.cfg.Output.LedgerPath(), "dates", led.Len(), "columns", len(rows[0]))
	return nil
}

func (p *Pipeline) saveRun(record *storage.RunRecord) {
	if p.repo == nil {
		return
	}
	if err := p.repo.SaveRun(record); err != nil {
		p.logger.Warn("Failed to persist run record", "run_id", record.ID, "error", err)
	}
}

func countFiles(sources []*intake.SourceFiles) int {
	n := 0
	for _, sf := range sources {
		n += len(sf.Files)
	}
	return n
}
