// README: Payout inputs and results: trip snapshot, rule source, breakdown.
package payout

import (
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
)

type TripStatus string

const (
	StatusScheduled  TripStatus = "scheduled"
	StatusAssigned   TripStatus = "assigned"
	StatusInProgress TripStatus = "in_progress"
	StatusCompleted  TripStatus = "completed"
	StatusCancelled  TripStatus = "cancelled"
	StatusNoShow     TripStatus = "no_show"
)

// MaxDistanceMiles caps billable distance. Longer distances are billed as
// this many miles; trip closing rejects them.
const MaxDistanceMiles = 10000

var maxDistance = decimal.NewFromInt(MaxDistanceMiles)

// Trip is the part of a trip record the resolver reads.
type Trip struct {
	ServiceLevel  rates.ServiceLevel `json:"serviceLevel"`
	DistanceMiles decimal.Decimal    `json:"distanceMiles"`
	Status        TripStatus         `json:"status"`
	StoredPayout  *decimal.Decimal   `json:"storedPayout,omitempty"`
}

// Source names the rule that produced a Result.
type Source string

const (
	SourceExplicitOverride Source = "explicit-override"
	SourceCancellationFee  Source = "cancellation-fee"
	SourceNoShowFee        Source = "no-show-fee"
	SourceZeroDistance     Source = "zero-distance"
	SourceTiered           Source = "tiered"
	SourceDefaultFallback  Source = "default-fallback"
)

// Breakdown field names are read by report exporters; keep them stable.
type Breakdown struct {
	BaseRate           decimal.Decimal `json:"baseRate"`
	BaseMilesThreshold int             `json:"baseMilesThreshold"`
	AdditionalMiles    int             `json:"additionalMiles"`
	AdditionalRate     decimal.Decimal `json:"additionalRate"`
	RoundedMiles       int             `json:"roundedMiles"`
}

type Result struct {
	Amount    decimal.Decimal `json:"amount"`
	Source    Source          `json:"source"`
	Breakdown Breakdown       `json:"breakdown"`
}
