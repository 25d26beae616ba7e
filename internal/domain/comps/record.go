package comps

import (
	"fmt"
	"time"
)

// MaxSourceTextLen bounds the stored passage excerpt.  The excerpt is
// advisory display material and never feeds computation.
const MaxSourceTextLen = 1000

// DefaultSaleAgeDays is assumed for records whose passage carried no
// recoverable sale date.
const DefaultSaleAgeDays = 30

// SaleRecord is the canonical, structured representation of one comparable
// sale.  Every record produced by the builder carries a price of at least
// MinUsablePrice; passages that cannot clear that bar produce no record.
type SaleRecord struct {
	// SaleID is "{brand} {model} - {auction house}".  Display only; not
	// guaranteed unique.
	SaleID string `json:"sale_id"`

	// ItemName is "{brand} {model}".
	ItemName string `json:"item_name"`

	AuctionHouse string  `json:"auction_company"`
	Price        float64 `json:"price"`

	// SaleDate is the extracted sale date, or the builder's default when
	// the passage carried none.  A zero SaleDate marks a record whose
	// date is unknown; the recency filter buckets such records
	// conservatively rather than discarding them.
	SaleDate time.Time `json:"sale_date"`

	// DistanceMiles is the distance from the buyer's location to the
	// sale, when known.  Nil means near, weighted 1.0 downstream.
	DistanceMiles *float64 `json:"distance_miles,omitempty"`

	// SourceText is the normalized passage, truncated to
	// MaxSourceTextLen runes.
	SourceText string `json:"text,omitempty"`
}

// BuildRecord assembles extractor output for one passage into a SaleRecord.
// The record price is the arithmetic mean of all extracted prices, collapsing
// quoted ranges and repeats to one figure.  The second return value is false
// when the passage yields no usable record: an empty price list, or a mean
// below MinUsablePrice.  That outcome is expected and common, not an error.
func BuildRecord(fields ExtractedFields, sourceText string, now time.Time) (SaleRecord, bool) {
	if len(fields.Prices) == 0 {
		return SaleRecord{}, false
	}

	var sum float64
	for _, p := range fields.Prices {
		sum += p
	}
	price := sum / float64(len(fields.Prices))
	if price < MinUsablePrice {
		return SaleRecord{}, false
	}

	saleDate := fields.SaleDate
	if saleDate.IsZero() {
		saleDate = now.AddDate(0, 0, -DefaultSaleAgeDays)
	}

	itemName := fmt.Sprintf("%s %s", fields.Brand, fields.Model)
	return SaleRecord{
		SaleID:       fmt.Sprintf("%s - %s", itemName, fields.AuctionHouse),
		ItemName:     itemName,
		AuctionHouse: fields.AuctionHouse,
		Price:        price,
		SaleDate:     saleDate,
		SourceText:   truncateRunes(sourceText, MaxSourceTextLen),
	}, true
}

// BuildRecords runs the normalize → extract → build pipeline over a batch of
// passages.  Passages without a usable price are silently excluded, so the
// output may be shorter than the input.
func BuildRecords(passages []Passage, now time.Time) []SaleRecord {
	records := make([]SaleRecord, 0, len(passages))
	for _, p := range passages {
		text := NormalizeText(p.Text)
		if text == "" {
			continue
		}
		fields := ExtractFields(text, p.BrandHint)
		record, ok := BuildRecord(fields, text, now)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
