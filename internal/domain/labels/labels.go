// Package labels canonicalizes the free-text labels that appear in charge
// statements ("total names") and season/event tables ("events") so they can
// be compared across sources that share no key.
package labels

import (
	"regexp"
	"strings"
)

// Labels frequently embed a product date like "26/4/25" or "26-04-2025".
var dateRe = regexp.MustCompile(`\b\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4}\b`)

// Ticketing exports truncate "Coach" to a bare prefix when the label hits a
// layout limit ("Preston North End Co"). Only treat the abbreviation as coach
// when it sits directly before a date or at the end of the label; anywhere
// else "co" is too ambiguous.
var (
	coachBeforeDateRe = regexp.MustCompile(`\b(?:co|coa|coac)\b(\W*\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`)
	coachAtEndRe      = regexp.MustCompile(`\b(?:co|coa|coac)\b\W*$`)
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize returns a simplified form of label used for cross-source
// comparison. It lowercases, expands a truncated coach abbreviation, strips
// embedded dates and punctuation, collapses whitespace, applies naive
// singularization ("wanderers" -> "wanderer") and drops the "total"/"travel"
// filler words. Normalize is pure and idempotent: singularization runs before
// the filler filter so "travels" collapses the same way "travel" does, and it
// never strips a token down to a re-strippable form.
func Normalize(label string) string {
	s := strings.ToLower(label)
	s = coachBeforeDateRe.ReplaceAllString(s, "coach$1")
	s = coachAtEndRe.ReplaceAllString(s, "coach")
	s = dateRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, " ")

	var tokens []string
	for _, tok := range strings.Fields(s) {
		if len(tok) > 4 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
			tok = tok[:len(tok)-1]
		}
		if tok == "total" || tok == "travel" {
			continue
		}
		tokens = append(tokens, tok)
	}
	// Singularization can re-expose a truncated coach prefix ("coacs").
	if n := len(tokens); n > 0 {
		switch tokens[n-1] {
		case "co", "coa", "coac":
			tokens[n-1] = "coach"
		}
	}
	return strings.Join(tokens, " ")
}

// Tokens returns the normalized label split into its tokens.
func Tokens(label string) []string {
	norm := Normalize(label)
	if norm == "" {
		return nil
	}
	return strings.Fields(norm)
}

// IsTravelLike reports whether label denotes a coach/travel product. Matching
// must never cross the travel/non-travel partition: away-day coach packages
// and plain ticket totals carry near-identical club names, and this flag is
// the only reliable way to tell them apart.
func IsTravelLike(label string) bool {
	s := strings.ToLower(label)
	if strings.Contains(s, "coach") || strings.Contains(s, "travel") {
		return true
	}
	return coachBeforeDateRe.MatchString(s) || coachAtEndRe.MatchString(s)
}
