package comps

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Extraction result
// ─────────────────────────────────────────────────────────────────────────────

// UnknownModel and UnknownAuction are the display fallbacks for fields the
// extractor cannot recover.  Extraction never fails; every field has one of
// these defined fallbacks.
const (
	UnknownBrand   = "Unknown"
	UnknownModel   = "Unknown Model"
	UnknownAuction = "Unknown Auction"
)

// ExtractedFields holds everything the extractor could recover from one
// normalized passage.  A zero SaleDate means no date pattern matched; the
// record builder substitutes its default.
type ExtractedFields struct {
	Prices       []float64
	SaleDate     time.Time
	Brand        string
	Model        string
	AuctionHouse string
}

// ExtractFields recovers prices, sale date, brand, model, and auction house
// from a normalized passage.  brandHint, when non-empty, is the manufacturer
// the caller is valuing and takes priority over scanning the text.
func ExtractFields(text, brandHint string) ExtractedFields {
	brand, model := ExtractBrandAndModel(text, brandHint)
	return ExtractedFields{
		Prices:       ExtractPrices(text),
		SaleDate:     ExtractDate(text),
		Brand:        brand,
		Model:        model,
		AuctionHouse: ExtractAuctionHouse(text),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Prices
// ─────────────────────────────────────────────────────────────────────────────

// Usable price bounds.  Digit runs outside this window are almost always lot
// numbers, serials, or acreage rather than equipment prices.
const (
	MinUsablePrice = 1000.0
	MaxUsablePrice = 1000000.0
)

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*([\d,]+)(?:\.\d+)?`),      // $45,000 or $45000
	regexp.MustCompile(`([\d,]+)(?:\.\d+)?\s*dollars`), // 45,000 dollars
	regexp.MustCompile(`([\d,]+)(?:\.\d+)?\s*USD`),     // 45,000 USD
}

// ExtractPrices collects every price mention in the passage that parses to a
// value within [MinUsablePrice, MaxUsablePrice].  Matches are returned in
// scan order per pattern and duplicates are kept; a passage quoting the same
// figure twice simply reinforces it in the mean.
func ExtractPrices(text string) []float64 {
	var prices []float64
	for _, pattern := range pricePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			raw := strings.ReplaceAll(m[1], ",", "")
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			if price >= MinUsablePrice && price <= MaxUsablePrice {
				prices = append(prices, price)
			}
		}
	}
	return prices
}

// ─────────────────────────────────────────────────────────────────────────────
// Dates
// ─────────────────────────────────────────────────────────────────────────────

// datePattern pairs a regular expression with a constructor turning its
// capture groups into a calendar date.
type datePattern struct {
	re    *regexp.Regexp
	build func(m []string) (time.Time, error)
}

// Numeric day/month ambiguity is resolved month-first throughout: the North
// American auction listings this feed covers write MM/DD/YYYY.
var datePatterns = []datePattern{
	{
		re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`),
		build: func(m []string) (time.Time, error) {
			return makeDate(m[3], m[1], m[2])
		},
	},
	{
		re: regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`),
		build: func(m []string) (time.Time, error) {
			return makeDate(m[3], m[1], m[2])
		},
	},
	{
		re: regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),
		build: func(m []string) (time.Time, error) {
			return makeDate(m[1], m[2], m[3])
		},
	},
	{
		re: regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),\s+(\d{4})`),
		build: func(m []string) (time.Time, error) {
			month := monthNumbers[m[1]]
			return makeDate(m[3], strconv.Itoa(month), m[2])
		},
	},
}

var monthNumbers = map[string]int{
	"January": 1, "February": 2, "March": 3, "April": 4,
	"May": 5, "June": 6, "July": 7, "August": 8,
	"September": 9, "October": 10, "November": 11, "December": 12,
}

// makeDate builds a UTC date from string components, rejecting combinations
// that do not name a real calendar day (month 13, February 30, and so on).
func makeDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, err
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, err
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, err
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("no such date: %04d-%02d-%02d", y, m, d)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, fmt.Errorf("no such date: %04d-%02d-%02d", y, m, d)
	}
	return t, nil
}

// ExtractDate returns the first date in the passage that matches a known
// pattern and names a real calendar day.  The zero time means no usable date
// was found; the caller supplies its own default.
func ExtractDate(text string) time.Time {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		t, err := p.build(m)
		if err != nil {
			continue
		}
		return t
	}
	return time.Time{}
}

// ─────────────────────────────────────────────────────────────────────────────
// Brand and model
// ─────────────────────────────────────────────────────────────────────────────

// ExtractBrandAndModel resolves the equipment manufacturer and model from the
// passage.  A non-empty hint wins when it matches a roster alias by
// case-insensitive substring in either direction; otherwise the passage text
// is scanned in roster order.  Model patterns are brand-specific and only
// consulted once the brand is fixed.
func ExtractBrandAndModel(text, hint string) (brand, model string) {
	spec := resolveBrand(text, hint)
	if spec == nil {
		return UnknownBrand, UnknownModel
	}

	model = UnknownModel
	for _, pattern := range spec.modelPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			model = m[1]
			break
		}
	}
	return spec.Canonical, model
}

func resolveBrand(text, hint string) *brandSpec {
	if hint != "" {
		hintUpper := strings.ToUpper(hint)
		for i := range brandRoster {
			for _, alias := range brandRoster[i].aliases {
				aliasUpper := strings.ToUpper(alias)
				if strings.Contains(hintUpper, aliasUpper) || strings.Contains(aliasUpper, hintUpper) {
					return &brandRoster[i]
				}
			}
		}
	}
	for i := range brandRoster {
		for _, alias := range brandRoster[i].aliases {
			if aliasMatchers[alias].MatchString(text) {
				return &brandRoster[i]
			}
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Auction house
// ─────────────────────────────────────────────────────────────────────────────

var auctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][A-Z\s&]+AUCTION)`),     // SMITH AUCTION
	regexp.MustCompile(`([A-Z][A-Z\s&]+AUCTIONEERS)`), // JONES AUCTIONEERS
	regexp.MustCompile(`AUCTIONS?:\s*([A-Za-z\s&]+)`), // AUCTIONS: Smith & Co
}

// reAuctionLocation recovers "in Sioux Falls, SD" style phrases as a
// location-based substitute when no auction company name is present.
var reAuctionLocation = regexp.MustCompile(`(?:in|at)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?),\s+([A-Z]{2})`)

// ExtractAuctionHouse returns the auction company named in the passage, a
// "City, ST" location substitute when only a venue is mentioned, or
// UnknownAuction when neither is recoverable.
func ExtractAuctionHouse(text string) string {
	for _, pattern := range auctionPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := reAuctionLocation.FindStringSubmatch(text); m != nil {
		return m[1] + ", " + m[2]
	}
	return UnknownAuction
}
