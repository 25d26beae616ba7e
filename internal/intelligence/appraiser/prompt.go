// Package appraiser restates a finished valuation in buyer-friendly prose
// via a hosted, OpenAI-compatible language model.  The numbers are computed
// deterministically before this package is consulted; a failed or disabled
// model never changes an estimate, callers simply keep the engine's
// template explanation.
package appraiser

import (
	"encoding/json"
	"fmt"

	"github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
)

// systemPrompt pins the model to narration.  Every number it may mention is
// already present in the input; it must not invent or recompute any.
const systemPrompt = `You are an equipment appraisal assistant for farm machinery auctions.
You receive a completed valuation as JSON: the fair market value, a confidence level,
percentage adjustments for age, usage, and condition, and up to three supporting
comparable sales. Write a short appraisal summary (2-4 sentences) a buyer can read.
Use only the numbers given. Never invent, recompute, or round any figure.
Mention the confidence level and the strongest comparable sale.`

// BuildUserPrompt renders the valuation and its subject as the user message.
func BuildUserPrompt(query valuation.EquipmentQuery, result *valuation.ValuationResult) (string, error) {
	payload, err := json.Marshal(struct {
		Subject   valuation.EquipmentQuery   `json:"subject"`
		Valuation *valuation.ValuationResult `json:"valuation"`
	}{Subject: query, Valuation: result})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Summarise this completed valuation:\n%s", payload), nil
}
