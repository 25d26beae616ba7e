package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/AgValue-Intelligence/pkg/client"
)

// valueOptions holds flags for the value command.
type valueOptions struct {
	equipMake   string
	model       string
	year        int
	condition   string
	hours       float64
	description string
	narrate     bool
}

// NewValueCmd creates the `value` command that requests a valuation from the
// API server.
func NewValueCmd() *cobra.Command {
	opts := &valueOptions{}

	cmd := &cobra.Command{
		Use:   "value",
		Short: "Estimate the fair market value of a piece of farm equipment",
		Example: `  agvalue value --make "John Deere" --model 8370R --year 2020 --condition good
  agvalue value --make Kubota --model M7-152 --hours 3200 --narrate -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValue(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.equipMake, "make", "", "equipment manufacturer (required)")
	f.StringVar(&opts.model, "model", "", "equipment model (required)")
	f.IntVar(&opts.year, "year", 0, "model year")
	f.StringVar(&opts.condition, "condition", "", "condition (excellent, good, fair, poor)")
	f.Float64Var(&opts.hours, "hours", 0, "hours of use")
	f.StringVar(&opts.description, "description", "", "free-form description")
	f.BoolVar(&opts.narrate, "narrate", false, "include a prose appraisal summary")
	_ = cmd.MarkFlagRequired("make")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runValue(cmd *cobra.Command, opts *valueOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	req := &client.ValuationRequest{
		Make:        opts.equipMake,
		Model:       opts.model,
		Year:        opts.year,
		Condition:   opts.condition,
		Description: opts.description,
		Narrate:     opts.narrate,
	}
	if opts.hours > 0 {
		req.HoursUsed = &opts.hours
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	resp, err := cliCtx.Client.Value(ctx, req)
	if err != nil {
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsInsufficientData() {
			return fmt.Errorf("not enough comparable auction sales to value this equipment")
		}
		return err
	}

	if strings.ToLower(cliCtx.OutputFormat) == "json" {
		return printJSON(cmd, resp)
	}
	return printText(cmd, formatValuation(resp))
}

// formatValuation renders a valuation response as human-readable text.
func formatValuation(resp *client.ValuationResponse) string {
	var sb strings.Builder
	v := resp.Valuation

	fmt.Fprintf(&sb, "Fair market value: $%.0f\n", v.FairMarketValue)
	fmt.Fprintf(&sb, "Confidence:        %s (%d comparable sales)\n", v.Confidence, v.SampleSize)
	fmt.Fprintf(&sb, "Price range:       $%.0f - $%.0f\n", v.PriceRange.Low, v.PriceRange.High)
	fmt.Fprintf(&sb, "Adjustments:       age %+.1f%%, usage %+.2f%%, condition %+.1f%%\n",
		v.Adjustments.AgePct, v.Adjustments.UsagePct, v.Adjustments.ConditionPct)

	if len(v.SupportingSales) > 0 {
		sb.WriteString("\nSupporting sales:\n")
		rows := make([][]string, 0, len(v.SupportingSales))
		for _, s := range v.SupportingSales {
			date := ""
			if !s.SaleDate.IsZero() {
				date = s.SaleDate.Format("2006-01-02")
			}
			rows = append(rows, []string{s.ItemName, s.AuctionHouse, fmt.Sprintf("$%.0f", s.Price), date})
		}
		sb.WriteString(FormatTable([]string{"ITEM", "AUCTION", "PRICE", "DATE"}, rows))
	}

	if resp.Narration != "" {
		sb.WriteString("\n" + resp.Narration + "\n")
	} else if v.Explanation != "" {
		sb.WriteString("\n" + v.Explanation + "\n")
	}

	return sb.String()
}
