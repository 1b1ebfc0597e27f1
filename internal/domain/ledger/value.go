package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder values carried through ledger columns. A ledger cell is never
// empty: it holds a concrete value or one of these two states.
const (
	// DataUnavailable means the source exists for the date but the specific
	// field could not be extracted.
	DataUnavailable = "Data Unavailable"
	// FileUnavailable means the entire source is missing for the date.
	FileUnavailable = "File Unavailable"
)

// IsUnavailable reports whether v is a placeholder rather than a concrete
// value. Matches any spelling containing "unavailable" or "not available" so
// legacy "Data Not Available In File" cells are treated the same way.
func IsUnavailable(v string) bool {
	lower := strings.ToLower(v)
	return strings.Contains(lower, "unavailable") || strings.Contains(lower, "not available")
}

// ToNumber coerces a ledger cell to a decimal for derived arithmetic.
//
// Rules:
//   - placeholders (see IsUnavailable) -> 0
//   - blank / "nan" / "null" / "none" -> 0
//   - thousands separators removed
//   - bracket negatives supported: "(123.45)" -> -123.45
//   - anything unparsable -> 0, never an error
func ToNumber(v string) decimal.Decimal {
	s := strings.TrimSpace(v)
	lower := strings.ToLower(s)
	switch lower {
	case "", "nan", "null", "none":
		return decimal.Zero
	}
	if IsUnavailable(s) {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, ",", "")
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		negative = true
		s = s[1 : len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// FormatAmount renders a derived amount as a fixed two-decimal string.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatWhole renders d as an integer string when it is a whole number,
// otherwise as its plain decimal form. Used for the evergreen column.
func FormatWhole(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.Truncate(0).String()
	}
	return d.String()
}
