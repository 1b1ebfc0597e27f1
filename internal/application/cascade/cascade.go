// Package cascade folds the per-source summary tables into the single
// per-date ledger, one column pass at a time. Every pass applies the same
// tri-state resolution rule: a value, "Data Unavailable" when the source row
// exists but the field is blank, "File Unavailable" when the source has
// nothing for that date at all.
package cascade

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/venueops/tktsrecon/internal/adapters/tables"
	"github.com/venueops/tktsrecon/internal/domain/ledger"
	"github.com/venueops/tktsrecon/internal/domain/recon"
)

// Pass is one ledger column builder. A later pass may read columns written by
// an earlier one; passes run in a fixed order.
type Pass struct {
	Name  string
	Apply func(led *ledger.Ledger) error
}

// Sources holds the loaded per-source summary tables. A nil table means the
// summary could not be loaded; joining passes then resolve every date to
// "File Unavailable" rather than failing.
type Sources struct {
	TicketOffice *tables.Table // date, notes
	SaleItemsMoP *tables.Table // date, total_amount
	Charges      *tables.Table // date, total_name, value
	Klarna       *tables.Table // date, k_dailytakings_*
	SeasonEvents *tables.Table // date
	Membership   *tables.Table // date, other, total, mddto_*

	PostalChargesDir string // per-date charges_postal_<date>.csv tables
	SeasonEventsDir  string // per-date klarna_seasoneventmop_<date>.csv tables
}

// Cascade runs an ordered list of passes against a ledger.
type Cascade struct {
	passes []Pass
	logger *slog.Logger
}

// New creates a cascade with the standard pass order for the given sources.
func New(s Sources, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cascade{logger: logger}
	c.passes = []Pass{
		basePass(s),
		joinPass("saleitemsmop_total", s.SaleItemsMoP, "total_amount", "saleitemsmop_total"),
		joinPass("membership_evergreen_other", s.Membership, "other", "mddto_evergreen_other"),
		joinPass("membership_evergreen_total", s.Membership, "total", "mddto_evergreen_total"),
		joinPass("membership_miles_gross", s.Membership, "mddto_miles_gross", "mddto_miles_gross"),
		joinPass("membership_misc_group_gross", s.Membership, "mddto_misc_group_gross", "mddto_misc_group_gross"),
		joinPass("membership_waiting_list_gross", s.Membership, "mddto_waiting_list_gross", "mddto_waiting_list_gross"),
		joinPass("membership_total_all_sales_gross", s.Membership, "mddto_total_all_sales_gross", "mddto_total_all_sales_gross"),
		joinPass("klarna_cash", s.Klarna, "k_dailytakings_cash", "k_dailytakings_cash"),
		joinPass("klarna_credit", s.Klarna, "k_dailytakings_credit", "k_dailytakings_credit"),
		joinPass("klarna_debit", s.Klarna, "k_dailytakings_debit", "k_dailytakings_debit"),
		joinPass("klarna_voucher", s.Klarna, "k_dailytakings_voucher", "k_dailytakings_voucher"),
		joinPass("klarna_account", s.Klarna, "k_dailytakings_account", "k_dailytakings_account"),
		chargesTotalPass(s.Charges),
		perDateFilePass("charges_postal", s.PostalChargesDir, "charges_postal_", "charges_postal",
			"charge_type", "Total Charges Postal", "value"),
		perDateFilePass("ccdva_less_charges", s.SeasonEventsDir, "klarna_seasoneventmop_", "xero_ccdva_less_charges",
			"Event", "xero_ccdva_less_charges-->", "ccdva_less_charges"),
		bookingFeePass(),
		postagePass(),
		onAccountPass(),
		evergreenPass(),
		expectedTotalPass(),
		actualTotalPass(),
		statusPass(),
	}
	return c
}

// Run applies every pass in order, logging one line per pass.
func (c *Cascade) Run(led *ledger.Ledger) error {
	for _, p := range c.passes {
		if err := p.Apply(led); err != nil {
			c.logger.Error("Cascade pass failed", "pass", p.Name, "error", err)
			return err
		}
		c.logger.Info("Cascade pass applied", "pass", p.Name, "rows", led.Len())
	}
	return nil
}

// basePass seeds the ledger: the date union of every source in first-seen
// order, plus the ticketoffice_notes column. A real note wins; a ticket
// office row with an empty note yields the literal "Null"; no row at all
// yields "File Unavailable". Every summary table must be present because the
// union defines the ledger's row set.
func basePass(s Sources) Pass {
	return Pass{
		Name: "base_date_notes",
		Apply: func(led *ledger.Ledger) error {
			summaries := []struct {
				name string
				tbl  *tables.Table
			}{
				{"ticketoffice", s.TicketOffice},
				{"saleitemsmop", s.SaleItemsMoP},
				{"membership", s.Membership},
				{"charges", s.Charges},
				{"klarna_dailytakings", s.Klarna},
				{"klarna_seasoneventmop", s.SeasonEvents},
			}
			for _, sum := range summaries {
				if sum.tbl == nil || !sum.tbl.HasColumn("date") {
					return recon.Errorf(recon.KindMissingSource, "cascade",
						"%s summary table is missing", sum.name)
				}
			}
			for _, sum := range summaries {
				for _, d := range sum.tbl.Dates("date") {
					led.AddDate(d)
				}
			}

			ticketDates := s.TicketOffice.DateSet("date")
			for _, d := range led.Dates() {
				if note, ok := s.TicketOffice.FirstNonEmpty("date", d, "notes"); ok {
					led.Set(d, "ticketoffice_notes", note)
				} else if ticketDates[d] {
					led.Set(d, "ticketoffice_notes", "Null")
				} else {
					led.Set(d, "ticketoffice_notes", ledger.FileUnavailable)
				}
			}
			return nil
		},
	}
}

// joinPass copies one field of a per-date summary table into a ledger column
// under the tri-state rule.
func joinPass(name string, tbl *tables.Table, field, column string) Pass {
	return Pass{
		Name: name,
		Apply: func(led *ledger.Ledger) error {
			if tbl == nil || !tbl.HasColumns("date", field) {
				fillColumn(led, column, ledger.FileUnavailable)
				return nil
			}
			dates := tbl.DateSet("date")
			for _, d := range led.Dates() {
				switch v, ok := tbl.FirstNonEmpty("date", d, field); {
				case ok:
					led.Set(d, column, v)
				case dates[d]:
					led.Set(d, column, ledger.DataUnavailable)
				default:
					led.Set(d, column, ledger.FileUnavailable)
				}
			}
			return nil
		},
	}
}

// chargesTotalPass resolves charges_total from the reserved "Total INCOME"
// row of the charges summary. A charges date without that row still counts as
// a present source, so it degrades to "Data Unavailable", not "File
// Unavailable".
func chargesTotalPass(charges *tables.Table) Pass {
	return Pass{
		Name: "charges_total",
		Apply: func(led *ledger.Ledger) error {
			if charges == nil || !charges.HasColumns("date", "total_name", "value") {
				fillColumn(led, "charges_total", ledger.FileUnavailable)
				return nil
			}

			values := make(map[string]string)
			for i := 0; i < charges.Len(); i++ {
				name := tables.CleanCell(charges.Cell(i, "total_name"))
				if !strings.EqualFold(name, "total income") {
					continue
				}
				d := ledger.NormalizeDate(tables.CleanCell(charges.Cell(i, "date")))
				if v := tables.CleanCell(charges.Cell(i, "value")); v != "" {
					values[d] = v
				} else if _, seen := values[d]; !seen {
					values[d] = ledger.DataUnavailable
				}
			}

			chargeDates := charges.DateSet("date")
			for _, d := range led.Dates() {
				switch {
				case values[d] != "":
					led.Set(d, "charges_total", values[d])
				case chargeDates[d]:
					led.Set(d, "charges_total", ledger.DataUnavailable)
				default:
					led.Set(d, "charges_total", ledger.FileUnavailable)
				}
			}
			return nil
		},
	}
}

// perDateFilePass resolves a column from a directory of per-date tables,
// reading the value of the row whose labelColumn equals rowLabel. The whole
// directory missing means every date is "File Unavailable"; a present file
// that cannot yield the value degrades to "Data Unavailable".
func perDateFilePass(name, dir, filePrefix, column, labelColumn, rowLabel, valueColumn string) Pass {
	return Pass{
		Name: name,
		Apply: func(led *ledger.Ledger) error {
			if _, err := os.Stat(dir); err != nil {
				fillColumn(led, column, ledger.FileUnavailable)
				return nil
			}

			for _, d := range led.Dates() {
				path := filepath.Join(dir, filePrefix+d+".csv")
				tbl, err := tables.ReadCSV(path)
				if err != nil {
					if os.IsNotExist(err) {
						led.Set(d, column, ledger.FileUnavailable)
					} else {
						led.Set(d, column, ledger.DataUnavailable)
					}
					continue
				}
				led.Set(d, column, rowValue(tbl, labelColumn, rowLabel, valueColumn))
			}
			return nil
		},
	}
}

// rowValue returns the cleaned value of the first row whose labelColumn
// matches rowLabel case-insensitively, or DataUnavailable.
func rowValue(tbl *tables.Table, labelColumn, rowLabel, valueColumn string) string {
	if !tbl.HasColumns(labelColumn, valueColumn) {
		return ledger.DataUnavailable
	}
	for i := 0; i < tbl.Len(); i++ {
		if !strings.EqualFold(tables.CleanCell(tbl.Cell(i, labelColumn)), rowLabel) {
			continue
		}
		if v := tables.CleanCell(tbl.Cell(i, valueColumn)); v != "" {
			return v
		}
		return ledger.DataUnavailable
	}
	return ledger.DataUnavailable
}

func fillColumn(led *ledger.Ledger, column, value string) {
	for _, d := range led.Dates() {
		led.Set(d, column, value)
	}
}
