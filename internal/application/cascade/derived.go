package cascade

import (
	"github.com/shopspring/decimal"

	"github.com/venueops/tktsrecon/internal/domain/ledger"
)

// derivedPass computes one column per date from already-resolved columns.
// Unavailable placeholders coerce to zero so a single missing source never
// poisons the arithmetic chain.
func derivedPass(name, column string, fn func(num func(string) decimal.Decimal) string) Pass {
	return Pass{
		Name: name,
		Apply: func(led *ledger.Ledger) error {
			for _, d := range led.Dates() {
				num := func(col string) decimal.Decimal {
					return ledger.ToNumber(led.GetOr(d, col, ""))
				}
				led.Set(d, column, fn(num))
			}
			return nil
		},
	}
}

func bookingFeePass() Pass {
	return derivedPass("xero_booking_fee", "xero_booking_fee", func(num func(string) decimal.Decimal) string {
		return ledger.FormatAmount(num("charges_total").Sub(num("charges_postal")))
	})
}

func postagePass() Pass {
	return derivedPass("xero_postage", "xero_postage", func(num func(string) decimal.Decimal) string {
		return ledger.FormatAmount(num("charges_postal").Add(num("saleitemsmop_total")))
	})
}

func onAccountPass() Pass {
	return derivedPass("xero_on_account", "xero_on_account", func(num func(string) decimal.Decimal) string {
		return ledger.FormatAmount(num("k_dailytakings_voucher").Add(num("k_dailytakings_account")).Neg())
	})
}

// evergreenPass renders whole numbers without decimals, matching the ledger
// format the accounts team imports.
func evergreenPass() Pass {
	return derivedPass("xero_evergreen", "xero_evergreen", func(num func(string) decimal.Decimal) string {
		return ledger.FormatWhole(num("mddto_evergreen_total").Sub(num("mddto_evergreen_other")))
	})
}

func expectedTotalPass() Pass {
	return derivedPass("expected_total", "expected_total", func(num func(string) decimal.Decimal) string {
		return ledger.FormatAmount(num("k_dailytakings_cash").
			Add(num("k_dailytakings_credit")).
			Add(num("k_dailytakings_debit")))
	})
}

func actualTotalPass() Pass {
	return derivedPass("actual_total", "actual_total", func(num func(string) decimal.Decimal) string {
		return ledger.FormatAmount(num("xero_booking_fee").
			Add(num("xero_postage")).
			Add(num("xero_evergreen")).
			Add(num("xero_on_account")).
			Add(num("xero_ccdva_less_charges")))
	})
}

// statusPass compares actual and expected totals to two decimal places.
func statusPass() Pass {
	return derivedPass("status", "Status", func(num func(string) decimal.Decimal) string {
		if num("actual_total").Round(2).Equal(num("expected_total").Round(2)) {
			return "Matched"
		}
		return "Not Matched"
	})
}
