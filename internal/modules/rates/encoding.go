// README: Adapters between the two persisted rate encodings and RateProfile.
package rates

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fees are the per-trip flat charges stored next to the compact encoding.
type Fees struct {
	Cancellation decimal.Decimal
	NoShow       decimal.Decimal
}

func FeesOf(p RateProfile) Fees {
	return Fees{Cancellation: p.CancellationRate, NoShow: p.NoShowRate}
}

// CompactRates is the array encoding kept in the rate_profiles.rates column:
//
//	{"ambulatory": [[1,5,14],[6,10,20],1.2], "wheelchair": [...], "stretcher": [...],
//	 "deductions": [fixedRental, fixedInsurance, percentage]}
//
// Every element of a level array is a [fromMiles,toMiles,rate] tuple except
// the trailing scalar, which is the additional mile rate.
type CompactRates struct {
	Ambulatory ServiceLevelRates
	Wheelchair ServiceLevelRates
	Stretcher  ServiceLevelRates
	Deductions *DeductionConfig
}

func ToCompact(p RateProfile) CompactRates {
	return CompactRates{
		Ambulatory: p.Ambulatory,
		Wheelchair: p.Wheelchair,
		Stretcher:  p.Stretcher,
		Deductions: p.Deductions,
	}
}

func FromCompact(c CompactRates, fees Fees) RateProfile {
	return RateProfile{
		Ambulatory:       c.Ambulatory,
		Wheelchair:       c.Wheelchair,
		Stretcher:        c.Stretcher,
		CancellationRate: fees.Cancellation,
		NoShowRate:       fees.NoShow,
		Deductions:       c.Deductions,
	}
}

type compactWire struct {
	Ambulatory json.RawMessage `json:"ambulatory"`
	Wheelchair json.RawMessage `json:"wheelchair"`
	Stretcher  json.RawMessage `json:"stretcher"`
	Deductions json.RawMessage `json:"deductions,omitempty"`
}

func (c CompactRates) MarshalJSON() ([]byte, error) {
	var w compactWire
	var err error
	if w.Ambulatory, err = marshalLevel(c.Ambulatory); err != nil {
		return nil, err
	}
	if w.Wheelchair, err = marshalLevel(c.Wheelchair); err != nil {
		return nil, err
	}
	if w.Stretcher, err = marshalLevel(c.Stretcher); err != nil {
		return nil, err
	}
	if d := c.Deductions; d != nil {
		if w.Deductions, err = json.Marshal([]json.Number{num(d.FixedRental), num(d.FixedInsurance), num(d.Percentage)}); err != nil {
			return nil, err
		}
	}
	return json.Marshal(w)
}

func (c *CompactRates) UnmarshalJSON(data []byte) error {
	var w compactWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	var out CompactRates
	var err error
	if out.Ambulatory, err = unmarshalLevel(Ambulatory, w.Ambulatory); err != nil {
		return err
	}
	if out.Wheelchair, err = unmarshalLevel(Wheelchair, w.Wheelchair); err != nil {
		return err
	}
	if out.Stretcher, err = unmarshalLevel(Stretcher, w.Stretcher); err != nil {
		return err
	}
	if out.Deductions, err = unmarshalDeductions(w.Deductions); err != nil {
		return err
	}
	*c = out
	return nil
}

func marshalLevel(r ServiceLevelRates) (json.RawMessage, error) {
	elems := make([]any, 0, len(r.Tiers)+1)
	for _, t := range r.Tiers {
		elems = append(elems, []any{t.FromMiles, t.ToMiles, num(t.Rate)})
	}
	elems = append(elems, num(r.AdditionalMileRate))
	return json.Marshal(elems)
}

func unmarshalLevel(level ServiceLevel, raw json.RawMessage) (ServiceLevelRates, error) {
	var out ServiceLevelRates
	if isNull(raw) {
		return out, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformedEncoding, level, err)
	}
	for i, el := range elems {
		el = bytes.TrimSpace(el)
		if len(el) > 0 && el[0] == '[' {
			tier, err := unmarshalTier(el)
			if err != nil {
				return out, fmt.Errorf("%w: %s tier %d: %v", ErrMalformedEncoding, level, i, err)
			}
			out.Tiers = append(out.Tiers, tier)
			continue
		}
		if i != len(elems)-1 {
			return out, fmt.Errorf("%w: %s: scalar at position %d is not trailing", ErrMalformedEncoding, level, i)
		}
		if err := out.AdditionalMileRate.UnmarshalJSON(el); err != nil {
			return out, fmt.Errorf("%w: %s additional mile rate: %v", ErrMalformedEncoding, level, err)
		}
	}
	return out, nil
}

func unmarshalTier(raw json.RawMessage) (RateTier, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return RateTier{}, err
	}
	if len(parts) != 3 {
		return RateTier{}, fmt.Errorf("want 3 elements, got %d", len(parts))
	}
	vals := make([]decimal.Decimal, 3)
	for i, p := range parts {
		if err := vals[i].UnmarshalJSON(p); err != nil {
			return RateTier{}, err
		}
	}
	from, to := vals[0], vals[1]
	if !from.IsInteger() || !to.IsInteger() {
		return RateTier{}, fmt.Errorf("mile bounds must be whole numbers")
	}
	return RateTier{FromMiles: int(from.IntPart()), ToMiles: int(to.IntPart()), Rate: vals[2]}, nil
}

func unmarshalDeductions(raw json.RawMessage) (*DeductionConfig, error) {
	if isNull(raw) {
		return nil, nil
	}
	var parts []decimal.Decimal
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("%w: deductions: %v", ErrMalformedEncoding, err)
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: deductions: want 3 elements, got %d", ErrMalformedEncoding, len(parts))
	}
	return &DeductionConfig{FixedRental: parts[0], FixedInsurance: parts[1], Percentage: parts[2]}, nil
}

// FlatColumns is the single-tier column layout kept on driver records.
// A level with base miles 0 is unconfigured.
type FlatColumns struct {
	AmbulatoryRate               decimal.Decimal  `json:"ambulatory_rate"`
	AmbulatoryBaseMiles          int              `json:"ambulatory_base_miles"`
	AmbulatoryAdditionalMileRate decimal.Decimal  `json:"ambulatory_additional_mile_rate"`
	WheelchairRate               decimal.Decimal  `json:"wheelchair_rate"`
	WheelchairBaseMiles          int              `json:"wheelchair_base_miles"`
	WheelchairAdditionalMileRate decimal.Decimal  `json:"wheelchair_additional_mile_rate"`
	StretcherRate                decimal.Decimal  `json:"stretcher_rate"`
	StretcherBaseMiles           int              `json:"stretcher_base_miles"`
	StretcherAdditionalMileRate  decimal.Decimal  `json:"stretcher_additional_mile_rate"`
	CancellationRate             decimal.Decimal  `json:"cancellation_rate"`
	NoShowRate                   decimal.Decimal  `json:"no_show_rate"`
	VehicleRental                *decimal.Decimal `json:"vehicle_rental,omitempty"`
	Insurance                    *decimal.Decimal `json:"insurance,omitempty"`
	DeductionPercentage          *decimal.Decimal `json:"deduction_percentage,omitempty"`
}

func FromFlat(f FlatColumns) RateProfile {
	p := RateProfile{
		Ambulatory:       flatLevel(f.AmbulatoryRate, f.AmbulatoryBaseMiles, f.AmbulatoryAdditionalMileRate),
		Wheelchair:       flatLevel(f.WheelchairRate, f.WheelchairBaseMiles, f.WheelchairAdditionalMileRate),
		Stretcher:        flatLevel(f.StretcherRate, f.StretcherBaseMiles, f.StretcherAdditionalMileRate),
		CancellationRate: f.CancellationRate,
		NoShowRate:       f.NoShowRate,
	}
	if f.VehicleRental != nil || f.Insurance != nil || f.DeductionPercentage != nil {
		p.Deductions = &DeductionConfig{
			FixedRental:    deref(f.VehicleRental),
			FixedInsurance: deref(f.Insurance),
			Percentage:     deref(f.DeductionPercentage),
		}
	}
	return p
}

// ToFlat fails with ErrNotSingleTier when a level cannot be expressed as one
// tier starting at mile 1.
func ToFlat(p RateProfile) (FlatColumns, error) {
	var f FlatColumns
	var err error
	if f.AmbulatoryRate, f.AmbulatoryBaseMiles, f.AmbulatoryAdditionalMileRate, err = levelFlat(Ambulatory, p.Ambulatory); err != nil {
		return f, err
	}
	if f.WheelchairRate, f.WheelchairBaseMiles, f.WheelchairAdditionalMileRate, err = levelFlat(Wheelchair, p.Wheelchair); err != nil {
		return f, err
	}
	if f.StretcherRate, f.StretcherBaseMiles, f.StretcherAdditionalMileRate, err = levelFlat(Stretcher, p.Stretcher); err != nil {
		return f, err
	}
	f.CancellationRate = p.CancellationRate
	f.NoShowRate = p.NoShowRate
	if d := p.Deductions; d != nil {
		rental, insurance, pct := d.FixedRental, d.FixedInsurance, d.Percentage
		f.VehicleRental, f.Insurance, f.DeductionPercentage = &rental, &insurance, &pct
	}
	return f, nil
}

// flatLevel treats base miles 0 as unconfigured only when the rate is zero too.
// A priced row with no base miles becomes a 1-0 tier so Validate reports it and
// levelFlat writes the rate back.
func flatLevel(rate decimal.Decimal, baseMiles int, additional decimal.Decimal) ServiceLevelRates {
	if baseMiles == 0 {
		r := ServiceLevelRates{AdditionalMileRate: additional}
		if !rate.IsZero() {
			r.Tiers = []RateTier{{FromMiles: 1, ToMiles: 0, Rate: rate}}
		}
		return r
	}
	return SingleTier(rate, baseMiles, additional)
}

func levelFlat(level ServiceLevel, r ServiceLevelRates) (decimal.Decimal, int, decimal.Decimal, error) {
	switch {
	case r.IsEmpty():
		return decimal.Zero, 0, r.AdditionalMileRate, nil
	case !r.IsSingleTier() || r.Tiers[0].FromMiles != 1:
		return decimal.Zero, 0, decimal.Zero, fmt.Errorf("%w: %s has %d tiers", ErrNotSingleTier, level, len(r.Tiers))
	}
	t := r.Tiers[0]
	return t.Rate, t.ToMiles, r.AdditionalMileRate, nil
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
