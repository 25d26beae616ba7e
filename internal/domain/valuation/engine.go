package valuation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/turtacn/AgValue-Intelligence/internal/domain/comps"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tunables
// ─────────────────────────────────────────────────────────────────────────────

const (
	// recencyDecayDays controls the exponential down-weighting of older
	// sales: a sale one year old carries weight e^-1.
	recencyDecayDays = 365.0

	// Sales farther than farDistanceMiles from the buyer are discounted
	// to farGeoWeight; anything nearer, or with unknown distance, weighs
	// 1.0.
	farDistanceMiles = 500.0
	farGeoWeight     = 0.8

	// Age discount: agePctPerYear percent per year beyond ageGraceYears.
	ageGraceYears = 3
	agePctPerYear = 1.5

	// Usage discount: usagePctFactor * ln(hours) percent.
	usagePctFactor = 0.03

	// Confidence thresholds.
	highConfidenceMinSamples   = 25
	highConfidenceMaxRelStdev  = 0.12
	mediumConfidenceMinSamples = 10

	// maxSupportingSales bounds the display records on a result.
	maxSupportingSales = 3

	// unknownDateAgeDays stands in for a record with no sale date when
	// computing its decay weight, mirroring the conservative 90-180 day
	// bucketing upstream.
	unknownDateAgeDays = 180.0
)

// ─────────────────────────────────────────────────────────────────────────────
// Engine
// ─────────────────────────────────────────────────────────────────────────────

// Engine runs the full valuation pipeline: record extraction, recency
// filtering, outlier removal, and decay-weighted aggregation.  An Engine is
// immutable after construction and safe for concurrent use; independent
// requests share no state.
type Engine struct {
	minSampleSize     int
	outlierMinSamples int
	logger            logging.Logger
}

// NewEngine builds an Engine.  Non-positive thresholds fall back to the
// package defaults in comps; a nil logger is replaced with a no-op.
func NewEngine(minSampleSize, outlierMinSamples int, logger logging.Logger) *Engine {
	if minSampleSize <= 0 {
		minSampleSize = comps.DefaultMinSampleSize
	}
	if outlierMinSamples <= 0 {
		outlierMinSamples = comps.DefaultOutlierMinSamples
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		minSampleSize:     minSampleSize,
		outlierMinSamples: outlierMinSamples,
		logger:            logger.Named("valuation"),
	}
}

// NewDefaultEngine builds an Engine with the standard thresholds.
func NewDefaultEngine() *Engine {
	return NewEngine(0, 0, nil)
}

// Evaluate turns raw search passages plus the subject equipment's attributes
// into a fair-market-value estimate.  Passages without a usable price are
// silently excluded; zero surviving records is a hard failure carrying
// errors.ErrCodeInsufficientData, never a fabricated value.
func (e *Engine) Evaluate(passages []comps.Passage, query EquipmentQuery, now time.Time) (*ValuationResult, PipelineStats, error) {
	stats := PipelineStats{PassagesIn: len(passages)}

	records := comps.BuildRecords(passages, now)
	stats.RecordsBuilt = len(records)

	filtered, tier := comps.FilterByRecency(records, now, e.minSampleSize)
	stats.RecencyTier = tier

	survivors, removed := comps.RemoveOutliers(filtered, e.outlierMinSamples, e.minSampleSize)
	stats.OutliersRemoved = removed
	stats.SampleSize = len(survivors)

	e.logger.Debug("valuation pipeline narrowed sample",
		logging.Int("passages", stats.PassagesIn),
		logging.Int("records", stats.RecordsBuilt),
		logging.String("recency_tier", string(tier)),
		logging.Int("outliers_removed", removed),
		logging.Int("sample_size", stats.SampleSize),
	)

	result, err := e.Aggregate(survivors, query, now)
	if err != nil {
		return nil, stats, err
	}
	return result, stats, nil
}

// Aggregate computes the estimate from an already-filtered record set.  The
// steps run in a fixed order: simple mean, per-record decay and geography
// weights, weighted mean, then age, usage, and condition adjustments, each
// multiplicative on the running value, with the result rounded to the
// nearest 100.
func (e *Engine) Aggregate(records []comps.SaleRecord, query EquipmentQuery, now time.Time) (*ValuationResult, error) {
	if len(records) == 0 {
		return nil, errors.InsufficientData("no comparable sales survived filtering")
	}

	simpleMean := meanPrice(records)

	weights := make([]float64, len(records))
	var weightedSum, weightSum float64
	for i, r := range records {
		weights[i] = recordWeight(r, now)
		weightedSum += r.Price * weights[i]
		weightSum += weights[i]
	}

	value := simpleMean
	if weightSum > 0 {
		value = weightedSum / weightSum
	}

	var adj Adjustments

	if query.Year > 0 {
		age := now.Year() - query.Year
		if age > ageGraceYears {
			adj.AgePct = -agePctPerYear * float64(age-ageGraceYears)
		}
	}
	value *= 1 + adj.AgePct/100

	if query.HoursUsed != nil && *query.HoursUsed > 0 {
		adj.UsagePct = -usagePctFactor * math.Log(*query.HoursUsed)
	}
	value *= 1 + adj.UsagePct/100

	adj.ConditionPct = conditionAdjustmentPct[ParseCondition(query.Condition)]
	value *= 1 + adj.ConditionPct/100

	value = math.Round(value/100) * 100

	return &ValuationResult{
		FairMarketValue: value,
		Confidence:      confidenceFor(records, simpleMean),
		Adjustments:     adj,
		SupportingSales: topSupportingSales(records, weights),
		SampleSize:      len(records),
		PriceRange:      priceRangeOf(records),
		Explanation:     buildExplanation(value, query, len(records)),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// recordWeight combines exponential recency decay with a flat geography
// discount for distant sales.
func recordWeight(r comps.SaleRecord, now time.Time) float64 {
	ageDays := unknownDateAgeDays
	if !r.SaleDate.IsZero() {
		ageDays = now.Sub(r.SaleDate).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
	}
	weight := math.Exp(-ageDays / recencyDecayDays)
	if r.DistanceMiles != nil && *r.DistanceMiles > farDistanceMiles {
		weight *= farGeoWeight
	}
	return weight
}

func meanPrice(records []comps.SaleRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Price
	}
	return sum / float64(len(records))
}

// confidenceFor grades the estimate: high needs a large sample with tight
// price dispersion, medium a moderate sample, and everything else is low.
func confidenceFor(records []comps.SaleRecord, mean float64) ConfidenceLevel {
	n := len(records)
	if n >= highConfidenceMinSamples && mean > 0 {
		var sumSq float64
		for _, r := range records {
			d := r.Price - mean
			sumSq += d * d
		}
		stdev := math.Sqrt(sumSq / float64(n-1))
		if stdev/mean < highConfidenceMaxRelStdev {
			return ConfidenceHigh
		}
	}
	if n >= mediumConfidenceMinSamples {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// topSupportingSales picks the records with the highest price-times-weight
// contribution, descending, for display alongside the estimate.
func topSupportingSales(records []comps.SaleRecord, weights []float64) []comps.SaleRecord {
	type scored struct {
		record comps.SaleRecord
		score  float64
	}
	ranked := make([]scored, len(records))
	for i, r := range records {
		ranked[i] = scored{record: r, score: r.Price * weights[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := maxSupportingSales
	if len(ranked) < n {
		n = len(ranked)
	}
	out := make([]comps.SaleRecord, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].record
	}
	return out
}

func priceRangeOf(records []comps.SaleRecord) PriceRange {
	pr := PriceRange{Low: records[0].Price, High: records[0].Price}
	for _, r := range records[1:] {
		if r.Price < pr.Low {
			pr.Low = r.Price
		}
		if r.Price > pr.High {
			pr.High = r.Price
		}
	}
	return pr
}

// buildExplanation renders a deterministic one-line summary of the estimate.
// A hosted language model may later restate the result in richer prose, but
// this line is always available and never varies for the same inputs.
func buildExplanation(value float64, query EquipmentQuery, sampleSize int) string {
	subject := fmt.Sprintf("%s %s", query.Make, query.Model)
	if query.Year > 0 {
		subject = fmt.Sprintf("%d %s", query.Year, subject)
	}
	return fmt.Sprintf("Estimated fair market value of $%.0f for a %s based on %d comparable auction sales.",
		value, subject, sampleSize)
}
