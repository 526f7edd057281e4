// README: Tier table validation, lookup and the pure edit operations used by the rate editor.
package rates

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type TierField string

const (
	FieldFromMiles TierField = "fromMiles"
	FieldToMiles   TierField = "toMiles"
)

// Validate checks that tiers start at mile 1, are contiguous, have
// toMiles > fromMiles and carry non-negative rates. It reports every
// problem at once so an editor can flag each field.
func (r ServiceLevelRates) Validate() error {
	return r.validate("").orNil()
}

func (r ServiceLevelRates) validate(level ServiceLevel) TierErrors {
	var errs TierErrors
	add := func(kind error, idx int, field, msg string) {
		errs = append(errs, &TierError{Kind: kind, Level: level, Index: idx, Field: field, Message: msg})
	}

	if len(r.Tiers) == 0 {
		add(ErrNoTiers, -1, "tiers", ErrNoTiers.Error())
	}
	if r.AdditionalMileRate.IsNegative() {
		add(ErrNegativeRate, -1, "additionalMileRate", "must not be negative")
	}
	for i, t := range r.Tiers {
		if t.ToMiles <= t.FromMiles {
			add(ErrInvalidTierRange, i, string(FieldToMiles),
				fmt.Sprintf("must be greater than fromMiles (%d)", t.FromMiles))
		}
		if t.Rate.IsNegative() {
			add(ErrNegativeRate, i, "rate", "must not be negative")
		}
		want := 1
		if i > 0 {
			want = r.Tiers[i-1].ToMiles + 1
		}
		if t.FromMiles != want {
			add(ErrNonContiguousTiers, i, string(FieldFromMiles),
				fmt.Sprintf("must be %d, got %d", want, t.FromMiles))
		}
	}
	return errs
}

// Lookup returns the tier covering miles. ok is false when miles falls
// outside every tier, which for a valid table means it is below 1 or above
// the last tier's toMiles.
func (r ServiceLevelRates) Lookup(miles int) (RateTier, bool) {
	for _, t := range r.Tiers {
		if t.Contains(miles) {
			return t, true
		}
	}
	return RateTier{}, false
}

// InsertTier appends a tier starting one mile past the last tier's toMiles,
// whatever after is, so existing bounds never overlap. after must still name
// an existing tier. The new tier's toMiles is left equal to its fromMiles and
// must be edited before the table validates. An empty table gets a tier
// starting at mile 1.
func (r ServiceLevelRates) InsertTier(after int) (ServiceLevelRates, error) {
	if len(r.Tiers) == 0 {
		out := r.clone()
		out.Tiers = []RateTier{{FromMiles: 1, ToMiles: 1, Rate: decimal.Zero}}
		return out, nil
	}
	if after < 0 || after >= len(r.Tiers) {
		return r, ErrTierIndex
	}
	from := r.LastTier().ToMiles + 1
	out := r.clone()
	out.Tiers = append(out.Tiers, RateTier{FromMiles: from, ToMiles: from, Rate: decimal.Zero})
	return out, nil
}

// RemoveTier drops the tier at index and re-chains fromMiles so the
// remaining tiers stay contiguous.
func (r ServiceLevelRates) RemoveTier(index int) (ServiceLevelRates, error) {
	if index < 0 || index >= len(r.Tiers) {
		return r, ErrTierIndex
	}
	if len(r.Tiers) == 1 {
		return r, ErrLastTier
	}
	out := r.clone()
	out.Tiers = append(out.Tiers[:index], out.Tiers[index+1:]...)
	for i := range out.Tiers {
		if i == 0 {
			out.Tiers[i].FromMiles = 1
			continue
		}
		out.Tiers[i].FromMiles = out.Tiers[i-1].ToMiles + 1
	}
	return out, nil
}

// UpdateTierBound edits one bound of a tier. A new toMiles is clamped to be
// strictly above the tier's fromMiles and pushes the next tier's fromMiles
// to toMiles+1.
func (r ServiceLevelRates) UpdateTierBound(index int, field TierField, value int) (ServiceLevelRates, error) {
	if index < 0 || index >= len(r.Tiers) {
		return r, ErrTierIndex
	}
	out := r.clone()
	t := &out.Tiers[index]
	switch field {
	case FieldToMiles:
		t.ToMiles = max(value, t.FromMiles+1)
		if index+1 < len(out.Tiers) {
			out.Tiers[index+1].FromMiles = t.ToMiles + 1
		}
	case FieldFromMiles:
		t.FromMiles = max(value, 1)
	default:
		return r, fmt.Errorf("unknown tier field %q", field)
	}
	return out, nil
}

func (r ServiceLevelRates) UpdateTierRate(index int, rate decimal.Decimal) (ServiceLevelRates, error) {
	if index < 0 || index >= len(r.Tiers) {
		return r, ErrTierIndex
	}
	out := r.clone()
	out.Tiers[index].Rate = rate
	return out, nil
}

func (r ServiceLevelRates) clone() ServiceLevelRates {
	tiers := make([]RateTier, len(r.Tiers), len(r.Tiers)+1)
	copy(tiers, r.Tiers)
	return ServiceLevelRates{Tiers: tiers, AdditionalMileRate: r.AdditionalMileRate}
}

// Validate checks all three tables, both fees and the deduction config.
func (p RateProfile) Validate() error {
	var errs TierErrors
	for _, lvl := range ServiceLevels {
		table, _ := p.For(lvl)
		errs = append(errs, table.validate(lvl)...)
	}
	if p.CancellationRate.IsNegative() {
		errs = append(errs, &TierError{Kind: ErrNegativeRate, Index: -1, Field: "cancellationRate", Message: "must not be negative"})
	}
	if p.NoShowRate.IsNegative() {
		errs = append(errs, &TierError{Kind: ErrNegativeRate, Index: -1, Field: "noShowRate", Message: "must not be negative"})
	}
	if d := p.Deductions; d != nil {
		if d.FixedRental.IsNegative() {
			errs = append(errs, &TierError{Kind: ErrNegativeRate, Index: -1, Field: "fixedRental", Message: "must not be negative"})
		}
		if d.FixedInsurance.IsNegative() {
			errs = append(errs, &TierError{Kind: ErrNegativeRate, Index: -1, Field: "fixedInsurance", Message: "must not be negative"})
		}
		if d.Percentage.IsNegative() || d.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, &TierError{Kind: ErrInvalidPercentage, Index: -1, Field: "percentage", Message: ErrInvalidPercentage.Error()})
		}
	}
	return errs.orNil()
}
