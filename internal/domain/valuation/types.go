// Package valuation turns a set of comparable sale records plus the subject
// equipment's attributes into a single fair-market-value estimate with a
// confidence label.  The arithmetic is fully deterministic: the same records
// and query always produce the same number, independent of any external
// model used later to restate it in prose.
package valuation

import (
	"strings"

	"github.com/turtacn/AgValue-Intelligence/internal/domain/comps"
)

// ConfidenceLevel is the coarse reliability label attached to an estimate,
// derived from sample size and price dispersion.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Condition is the reported physical state of the subject equipment.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// conditionAdjustmentPct maps a recognised condition to its percentage
// adjustment on the weighted-mean value.  Unrecognised conditions adjust by
// zero rather than failing the valuation.
var conditionAdjustmentPct = map[Condition]float64{
	ConditionExcellent: 12,
	ConditionGood:      5,
	ConditionFair:      -8,
	ConditionPoor:      -20,
}

// ParseCondition normalises free-form condition input.  Matching is
// case-insensitive; anything outside the known set maps to the neutral empty
// Condition.
func ParseCondition(s string) Condition {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := conditionAdjustmentPct[c]; ok {
		return c
	}
	return ""
}

// EquipmentQuery describes the subject being valued.
type EquipmentQuery struct {
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Condition   string   `json:"condition"`
	HoursUsed   *float64 `json:"hours_used,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Adjustments records the percentage deltas actually applied to the weighted
// mean, for auditability.  Negative values are discounts.
type Adjustments struct {
	AgePct       float64 `json:"age"`
	UsagePct     float64 `json:"usage"`
	ConditionPct float64 `json:"condition"`
}

// PriceRange is the min/max spread of the surviving comparable prices.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ValuationResult is the engine's answer for one query.  It is produced once
// per request and never persisted.
type ValuationResult struct {
	// FairMarketValue is always an exact multiple of 100.
	FairMarketValue float64         `json:"fair_market_value"`
	Confidence      ConfidenceLevel `json:"confidence_level"`
	Adjustments     Adjustments     `json:"adjustments"`

	// SupportingSales holds at most three records, ordered by descending
	// price-times-weight contribution.
	SupportingSales []comps.SaleRecord `json:"supporting_sales"`

	SampleSize  int        `json:"sample_size"`
	PriceRange  PriceRange `json:"price_range"`
	Explanation string     `json:"explanation,omitempty"`
}

// PipelineStats summarises what each pipeline stage did for one request.
// Interface layers use it for logging and metrics; it is not part of the
// valuation answer itself.
type PipelineStats struct {
	PassagesIn      int
	RecordsBuilt    int
	RecencyTier     comps.RecencyTier
	OutliersRemoved int
	SampleSize      int
}
