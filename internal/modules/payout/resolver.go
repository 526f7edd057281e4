// README: Payout resolution: precedence of fees, overrides, zero distance and tiered mileage.
package payout

import (
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

// Resolver resolves trips against an owner's profile, falling back to
// Defaults when the owner has none. A Resolver holds no mutable state.
type Resolver struct {
	Defaults rates.RateProfile
}

func NewResolver(defaults rates.RateProfile) Resolver {
	return Resolver{Defaults: defaults}
}

// Resolve uses the built-in default profile.
func Resolve(trip Trip, profile *rates.RateProfile) Result {
	return NewResolver(rates.DefaultRateProfile()).Resolve(trip, profile)
}

// Resolve is total: every (trip, profile) pair yields a Result. A nil
// profile means the owner has none configured. First matching rule wins:
//
//	cancelled      -> cancellation fee
//	no_show        -> no-show fee
//	stored > 0     -> stored value unchanged
//	distance == 0  -> 0
//	otherwise      -> tiered mileage on the owner's table, or the default table
func (r Resolver) Resolve(trip Trip, profile *rates.RateProfile) Result {
	fees := r.Defaults
	if profile != nil {
		fees = *profile
	}

	switch trip.Status {
	case StatusCancelled:
		return Result{Amount: types.RoundCents(fees.CancellationRate), Source: SourceCancellationFee}
	case StatusNoShow:
		return Result{Amount: types.RoundCents(fees.NoShowRate), Source: SourceNoShowFee}
	}

	if trip.StoredPayout != nil && trip.StoredPayout.IsPositive() {
		return Result{Amount: *trip.StoredPayout, Source: SourceExplicitOverride}
	}

	if trip.DistanceMiles.Sign() <= 0 {
		return Result{Amount: decimal.Zero, Source: SourceZeroDistance}
	}

	table, source := r.table(trip.ServiceLevel, profile)
	return tiered(trip.DistanceMiles, table, source)
}

// table picks the owner's table for the level, or the default one when the
// owner has no profile, no tiers for that level, or the level is unknown.
func (r Resolver) table(level rates.ServiceLevel, profile *rates.RateProfile) (rates.ServiceLevelRates, Source) {
	if profile != nil {
		if t, ok := profile.For(level); ok && !t.IsEmpty() {
			return t, SourceTiered
		}
	}
	if t, ok := r.Defaults.For(level); ok && !t.IsEmpty() {
		return t, SourceDefaultFallback
	}
	if t := r.Defaults.Ambulatory; !t.IsEmpty() {
		return t, SourceDefaultFallback
	}
	t, _ := rates.DefaultRateProfile().For(rates.Ambulatory)
	return t, SourceDefaultFallback
}

func tiered(distance decimal.Decimal, table rates.ServiceLevelRates, source Source) Result {
	if distance.GreaterThan(maxDistance) {
		distance = maxDistance
	}
	miles := int(distance.Round(0).IntPart())
	bd := Breakdown{RoundedMiles: miles, AdditionalRate: table.AdditionalMileRate}

	if tier, ok := table.Lookup(miles); ok {
		bd.BaseRate = tier.Rate
		bd.BaseMilesThreshold = tier.ToMiles
		return Result{Amount: types.RoundCents(tier.Rate), Source: source, Breakdown: bd}
	}

	last := table.LastTier()
	if miles <= last.ToMiles {
		// Below the first tier (under half a mile) or in a gap of an
		// unvalidated table: bill the next tier up.
		for _, t := range table.Tiers {
			if t.ToMiles >= miles {
				bd.BaseRate = t.Rate
				bd.BaseMilesThreshold = t.ToMiles
				return Result{Amount: types.RoundCents(t.Rate), Source: source, Breakdown: bd}
			}
		}
	}

	extra := miles - last.ToMiles
	bd.BaseRate = last.Rate
	bd.BaseMilesThreshold = last.ToMiles
	bd.AdditionalMiles = extra
	amount := last.Rate.Add(decimal.NewFromInt(int64(extra)).Mul(table.AdditionalMileRate))
	return Result{Amount: types.RoundCents(amount), Source: source, Breakdown: bd}
}
