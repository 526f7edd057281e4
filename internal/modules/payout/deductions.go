// README: Period deductions (rental, insurance, percentage) applied to an aggregated payout.
package payout

import (
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Deduction keeps every component for audit. Unfloored may be negative;
// Net never is.
type Deduction struct {
	Gross            decimal.Decimal `json:"gross"`
	FixedRental      decimal.Decimal `json:"fixedRental"`
	FixedInsurance   decimal.Decimal `json:"fixedInsurance"`
	PercentageAmount decimal.Decimal `json:"percentageAmount"`
	Unfloored        decimal.Decimal `json:"unfloored"`
	Net              decimal.Decimal `json:"net"`
	Floored          bool            `json:"floored"`
}

// ApplyDeductions computes
//
//	net = gross - fixedRental - fixedInsurance - gross*percentage/100
//
// floored at zero. It is meant to run once per owner per period, on the
// period total, never per trip. A nil config deducts nothing.
func ApplyDeductions(gross decimal.Decimal, cfg *rates.DeductionConfig) Deduction {
	gross = types.RoundCents(gross)
	d := Deduction{
		Gross:            gross,
		FixedRental:      decimal.Zero,
		FixedInsurance:   decimal.Zero,
		PercentageAmount: decimal.Zero,
		Unfloored:        gross,
		Net:              gross,
	}
	if cfg == nil {
		return d
	}
	d.FixedRental = types.RoundCents(cfg.FixedRental)
	d.FixedInsurance = types.RoundCents(cfg.FixedInsurance)
	d.PercentageAmount = types.RoundCents(gross.Mul(cfg.Percentage).Div(hundred))
	d.Unfloored = gross.Sub(d.FixedRental).Sub(d.FixedInsurance).Sub(d.PercentageAmount)
	d.Net = d.Unfloored
	if d.Net.IsNegative() {
		d.Net = decimal.Zero
		d.Floored = true
	}
	return d
}
