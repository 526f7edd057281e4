// README: Rate profile definitions: mileage tiers per service level, fees and deductions.
package rates

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"nemt/internal/types"
)

type ServiceLevel string

const (
	Ambulatory ServiceLevel = "ambulatory"
	Wheelchair ServiceLevel = "wheelchair"
	Stretcher  ServiceLevel = "stretcher"
)

// ServiceLevels lists every level in the order encodings write them.
var ServiceLevels = []ServiceLevel{Ambulatory, Wheelchair, Stretcher}

func ParseServiceLevel(s string) (ServiceLevel, error) {
	switch lvl := ServiceLevel(strings.ToLower(strings.TrimSpace(s))); lvl {
	case Ambulatory, Wheelchair, Stretcher:
		return lvl, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownServiceLevel, s)
}

type OwnerKind string

const (
	OwnerFacility   OwnerKind = "facility"
	OwnerContractor OwnerKind = "contractor"
	OwnerDriver     OwnerKind = "driver"
)

func ParseOwnerKind(s string) (OwnerKind, error) {
	switch k := OwnerKind(strings.ToLower(strings.TrimSpace(s))); k {
	case OwnerFacility, OwnerContractor, OwnerDriver:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOwnerKind, s)
}

// Owner is the single record a profile belongs to.
type Owner struct {
	Kind OwnerKind
	ID   types.ID
}

func (o Owner) String() string {
	return string(o.Kind) + ":" + string(o.ID)
}

// RateTier prices a trip whose rounded distance falls in [FromMiles, ToMiles]
// at exactly Rate. The rate is flat, not per mile.
type RateTier struct {
	FromMiles int             `json:"fromMiles"`
	ToMiles   int             `json:"toMiles"`
	Rate      decimal.Decimal `json:"rate"`
}

func (t RateTier) Contains(miles int) bool {
	return miles >= t.FromMiles && miles <= t.ToMiles
}

// ServiceLevelRates is the tier table for one service level. Values are
// treated as immutable: every edit operation returns a new table.
type ServiceLevelRates struct {
	Tiers              []RateTier      `json:"tiers"`
	AdditionalMileRate decimal.Decimal `json:"additionalMileRate"`
}

// SingleTier builds the simplified "base rate covers the first baseMiles"
// table used by driver-level configuration.
func SingleTier(baseRate decimal.Decimal, baseMiles int, additionalMileRate decimal.Decimal) ServiceLevelRates {
	return ServiceLevelRates{
		Tiers:              []RateTier{{FromMiles: 1, ToMiles: baseMiles, Rate: baseRate}},
		AdditionalMileRate: additionalMileRate,
	}
}

func (r ServiceLevelRates) IsSingleTier() bool {
	return len(r.Tiers) == 1
}

func (r ServiceLevelRates) IsEmpty() bool {
	return len(r.Tiers) == 0
}

// LastTier returns the highest tier. The table must not be empty.
func (r ServiceLevelRates) LastTier() RateTier {
	return r.Tiers[len(r.Tiers)-1]
}

// DeductionConfig is applied to an owner's aggregated payout for a period,
// never to a single trip.
type DeductionConfig struct {
	FixedRental    decimal.Decimal `json:"fixedRental"`
	FixedInsurance decimal.Decimal `json:"fixedInsurance"`
	Percentage     decimal.Decimal `json:"percentage"`
}

func (d DeductionConfig) IsZero() bool {
	return d.FixedRental.IsZero() && d.FixedInsurance.IsZero() && d.Percentage.IsZero()
}

type RateProfile struct {
	Ambulatory       ServiceLevelRates `json:"ambulatory"`
	Wheelchair       ServiceLevelRates `json:"wheelchair"`
	Stretcher        ServiceLevelRates `json:"stretcher"`
	CancellationRate decimal.Decimal   `json:"cancellationRate"`
	NoShowRate       decimal.Decimal   `json:"noShowRate"`
	Deductions       *DeductionConfig  `json:"deductions,omitempty"`
}

// For returns the table for a service level. ok is false for unknown levels.
func (p RateProfile) For(level ServiceLevel) (ServiceLevelRates, bool) {
	switch level {
	case Ambulatory:
		return p.Ambulatory, true
	case Wheelchair:
		return p.Wheelchair, true
	case Stretcher:
		return p.Stretcher, true
	}
	return ServiceLevelRates{}, false
}

// With returns a copy of the profile with the table for level replaced.
func (p RateProfile) With(level ServiceLevel, r ServiceLevelRates) RateProfile {
	switch level {
	case Ambulatory:
		p.Ambulatory = r
	case Wheelchair:
		p.Wheelchair = r
	case Stretcher:
		p.Stretcher = r
	}
	return p
}
