// Package comps implements the comparable-sales bounded context: it turns
// free-text auction-listing passages into structured, price-comparable sale
// records and narrows those records down to a sample the valuation engine can
// trust.  Everything in this package is deterministic and side-effect free;
// retrieval of the passages themselves is an infrastructure concern handled
// by separate adapter layers.
package comps

import (
	"regexp"
	"strings"
)

// Passage is one raw text snippet returned by the external passage search,
// believed to describe a single auction sale.  BrandHint is the manufacturer
// the caller is valuing and takes priority during brand detection.
type Passage struct {
	Text      string `json:"text"`
	BrandHint string `json:"brand_hint,omitempty"`
}

var (
	reWhitespaceRun = regexp.MustCompile(`\s+`)

	// reGroupedDollars matches one thousands separator inside a dollar
	// amount, e.g. the first comma of "$1,234,567".
	reGroupedDollars = regexp.MustCompile(`\$\s*(\d+),(\d+)`)
)

// NormalizeText collapses whitespace runs to single spaces, trims the ends,
// and rewrites comma-grouped dollar amounts ("$45,000") to the ungrouped form
// ("$45000") so numeric extraction never sees thousands separators.
// NormalizeText is idempotent: normalizing an already-normalized string
// returns it unchanged.
func NormalizeText(text string) string {
	text = strings.TrimSpace(reWhitespaceRun.ReplaceAllString(text, " "))

	// A single substitution pass leaves trailing groups behind on amounts
	// with more than one separator, so iterate to a fixed point.
	for {
		next := reGroupedDollars.ReplaceAllString(text, "$$${1}${2}")
		if next == text {
			return next
		}
		text = next
	}
}
