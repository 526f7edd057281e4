package rates

import "github.com/shopspring/decimal"

// DefaultRateProfile is used for owners with no configured profile:
//
//	ambulatory  1-5 mi $14.00, then $1.20/mi
//	wheelchair  1-5 mi $28.00, then $2.00/mi
//	stretcher   1-5 mi $35.00, then $2.50/mi
//
// Cancellation and no-show fees default to zero.
func DefaultRateProfile() RateProfile {
	return RateProfile{
		Ambulatory:       SingleTier(decimal.NewFromInt(14), 5, decimal.RequireFromString("1.20")),
		Wheelchair:       SingleTier(decimal.NewFromInt(28), 5, decimal.RequireFromString("2.00")),
		Stretcher:        SingleTier(decimal.NewFromInt(35), 5, decimal.RequireFromString("2.50")),
		CancellationRate: decimal.Zero,
		NoShowRate:       decimal.Zero,
	}
}
