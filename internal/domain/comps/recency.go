package comps

import "time"

// RecencyTier names the sample window the filter settled on.
type RecencyTier string

const (
	TierWithin90  RecencyTier = "90d"
	TierWithin180 RecencyTier = "180d"
	TierAllTime   RecencyTier = "all"
)

// DefaultMinSampleSize is the smallest sample the valuation engine accepts;
// the recency filter widens its window rather than starve the engine below
// this count.
const DefaultMinSampleSize = 3

// FilterByRecency narrows records to the freshest window that still holds at
// least minSample records.  Windows are tried narrowest first: sales within
// the last 90 days, then within 180 days, then the full input.  Records with
// an unknown sale date land in the 90-180 day bucket, so they are neither
// discarded nor mistaken for fresh data.
//
// The returned slice is always a new allocation; the input is never mutated.
// When the fallback to TierAllTime fires the output is exactly the input, so
// the filter never returns fewer records than an all-time caller supplied.
func FilterByRecency(records []SaleRecord, now time.Time, minSample int) ([]SaleRecord, RecencyTier) {
	if minSample <= 0 {
		minSample = DefaultMinSampleSize
	}

	cutoff90 := now.AddDate(0, 0, -90)
	cutoff180 := now.AddDate(0, 0, -180)

	var within90, within180 []SaleRecord
	for _, r := range records {
		switch {
		case r.SaleDate.IsZero():
			within180 = append(within180, r)
		case !r.SaleDate.Before(cutoff90):
			within90 = append(within90, r)
		case !r.SaleDate.Before(cutoff180):
			within180 = append(within180, r)
		}
	}

	if len(within90) >= minSample {
		return within90, TierWithin90
	}
	if len(within90)+len(within180) >= minSample {
		return append(within90, within180...), TierWithin180
	}

	out := make([]SaleRecord, len(records))
	copy(out, records)
	return out, TierAllTime
}
