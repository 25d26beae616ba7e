package client

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ValuationRequest describes the equipment to value.
type ValuationRequest struct {
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Year        int      `json:"year,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	HoursUsed   *float64 `json:"hours_used,omitempty"`
	Description string   `json:"description,omitempty"`

	// Narrate requests a prose appraisal summary alongside the numbers.
	Narrate bool `json:"narrate,omitempty"`
}

// Adjustments records the percentage deltas applied to the weighted mean.
type Adjustments struct {
	AgePct       float64 `json:"age"`
	UsagePct     float64 `json:"usage"`
	ConditionPct float64 `json:"condition"`
}

// PriceRange is the min/max spread of the comparable prices used.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// SupportingSale is one comparable auction sale backing an estimate.
type SupportingSale struct {
	SaleID        string    `json:"sale_id"`
	ItemName      string    `json:"item_name"`
	AuctionHouse  string    `json:"auction_company"`
	Price         float64   `json:"price"`
	SaleDate      time.Time `json:"sale_date"`
	DistanceMiles *float64  `json:"distance_miles,omitempty"`
	SourceText    string    `json:"text,omitempty"`
}

// Valuation is the numeric estimate for one request.
type Valuation struct {
	FairMarketValue float64          `json:"fair_market_value"`
	Confidence      string           `json:"confidence_level"`
	Adjustments     Adjustments      `json:"adjustments"`
	SupportingSales []SupportingSale `json:"supporting_sales"`
	SampleSize      int              `json:"sample_size"`
	PriceRange      PriceRange       `json:"price_range"`
	Explanation     string           `json:"explanation,omitempty"`
}

// ValuationResponse is the full API answer.
type ValuationResponse struct {
	RequestID string     `json:"request_id"`
	Valuation *Valuation `json:"valuation"`
	Narration string     `json:"narration,omitempty"`
}

// Value requests a fair-market-value estimate for the described equipment.
func (c *Client) Value(ctx context.Context, req *ValuationRequest) (*ValuationResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("client: valuation request is required")
	}
	if strings.TrimSpace(req.Make) == "" || strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("client: make and model are required")
	}

	var resp ValuationResponse
	if err := c.post(ctx, "/api/v1/valuations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Healthy reports whether the API's readiness probe answers successfully.
func (c *Client) Healthy(ctx context.Context) error {
	return c.get(ctx, "/readyz", nil)
}
