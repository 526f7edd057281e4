// README: Per-owner earnings summary for a period, with optional deductions.
package earnings

import (
	"time"

	"github.com/shopspring/decimal"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

type DriverEarningsSummary struct {
	OwnerID     types.ID          `json:"ownerId"`
	PeriodStart time.Time         `json:"periodStart"`
	PeriodEnd   time.Time         `json:"periodEnd"`
	Results     []payout.Result   `json:"results"`
	TripIDs     []types.ID        `json:"tripIds"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	TripCount   int               `json:"tripCount"`
	Average     decimal.Decimal   `json:"average"`
	Deduction   *payout.Deduction `json:"deduction,omitempty"`
}

// Summarize builds the summary for one owner's group. Deductions run once on
// the period total, and only when the caller passes a config.
func Summarize(ownerID types.ID, r DateRange, g *Group, deductions *rates.DeductionConfig) DriverEarningsSummary {
	s := DriverEarningsSummary{
		OwnerID:     ownerID,
		PeriodStart: r.Start,
		PeriodEnd:   r.End,
		Results:     []payout.Result{},
		TripIDs:     []types.ID{},
		TotalAmount: decimal.Zero,
		Average:     decimal.Zero,
	}
	if g != nil {
		s.Results = g.Results
		s.TripIDs = g.TripIDs
		s.TotalAmount = g.Total
		s.TripCount = g.Count
		s.Average = g.Average
	}
	if deductions != nil {
		d := payout.ApplyDeductions(s.TotalAmount, deductions)
		s.Deduction = &d
	}
	return s
}
