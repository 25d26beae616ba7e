package comps

import "sort"

// IQR guard rails.  Below DefaultOutlierMinSamples the quartile estimate is
// too noisy to act on; after filtering, fewer than DefaultOutlierMinSurvivors
// records would starve the valuation engine, so the cut is abandoned.
const (
	DefaultOutlierMinSamples   = 5
	DefaultOutlierMinSurvivors = 3
)

// RemoveOutliers drops records whose price falls outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR].  It is a no-op when the sample holds fewer
// than minSamples records, and the original set is kept whenever the cut
// would leave fewer than minSurvivors records.  The second return value is
// the number of records actually removed.
//
// The input slice is never mutated; survivors are returned in input order.
func RemoveOutliers(records []SaleRecord, minSamples, minSurvivors int) ([]SaleRecord, int) {
	if minSamples <= 0 {
		minSamples = DefaultOutlierMinSamples
	}
	if minSurvivors <= 0 {
		minSurvivors = DefaultOutlierMinSurvivors
	}

	if len(records) < minSamples {
		out := make([]SaleRecord, len(records))
		copy(out, records)
		return out, 0
	}

	prices := make([]float64, len(records))
	for i, r := range records {
		prices[i] = r.Price
	}
	sort.Float64s(prices)

	q1 := percentile(prices, 25)
	q3 := percentile(prices, 75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	survivors := make([]SaleRecord, 0, len(records))
	for _, r := range records {
		if r.Price >= lower && r.Price <= upper {
			survivors = append(survivors, r)
		}
	}

	if len(survivors) < minSurvivors {
		out := make([]SaleRecord, len(records))
		copy(out, records)
		return out, 0
	}
	return survivors, len(records) - len(survivors)
}

// percentile computes the p-th percentile of sorted using linear
// interpolation between closest ranks.  sorted must be ascending and
// non-empty; p is in [0, 100].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
