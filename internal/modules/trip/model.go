// README: Trip record, status flow and the snapshot handed to payout resolution.
package trip

import (
	"time"

	"github.com/shopspring/decimal"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

type Status = payout.TripStatus

const (
	StatusScheduled  = payout.StatusScheduled
	StatusAssigned   = payout.StatusAssigned
	StatusInProgress = payout.StatusInProgress
	StatusCompleted  = payout.StatusCompleted
	StatusCancelled  = payout.StatusCancelled
	StatusNoShow     = payout.StatusNoShow
)

type Trip struct {
	ID            types.ID           `json:"id"`
	DriverID      *types.ID          `json:"driverId,omitempty"`
	FacilityID    *types.ID          `json:"facilityId,omitempty"`
	ContractorID  *types.ID          `json:"contractorId,omitempty"`
	PatientID     *types.ID          `json:"patientId,omitempty"`
	ServiceLevel  rates.ServiceLevel `json:"serviceLevel"`
	DistanceMiles decimal.Decimal    `json:"distanceMiles"`
	Status        Status             `json:"status"`
	StatusVersion int                `json:"statusVersion"`
	StoredPayout  *decimal.Decimal   `json:"storedPayout,omitempty"`
	ScheduledAt   time.Time          `json:"scheduledAt"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
}

func (t Trip) PayoutInput() payout.Trip {
	return payout.Trip{
		ServiceLevel:  t.ServiceLevel,
		DistanceMiles: t.DistanceMiles,
		Status:        t.Status,
		StoredPayout:  t.StoredPayout,
	}
}

// Owner returns the record whose profile prices this trip for the given
// kind: the driver for payouts, the facility or contractor for fares.
func (t Trip) Owner(kind rates.OwnerKind) (rates.Owner, bool) {
	var id *types.ID
	switch kind {
	case rates.OwnerDriver:
		id = t.DriverID
	case rates.OwnerFacility:
		id = t.FacilityID
	case rates.OwnerContractor:
		id = t.ContractorID
	}
	if id == nil || *id == "" {
		return rates.Owner{}, false
	}
	return rates.Owner{Kind: kind, ID: *id}, true
}

type Event struct {
	ID         int64
	TripID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	Note       string
	CreatedAt  time.Time
}

// AllowedTransitions is the trip status flow. Completed, cancelled and
// no_show are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusScheduled:  {StatusAssigned, StatusCancelled, StatusNoShow},
	StatusAssigned:   {StatusScheduled, StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func IsClosed(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Filter narrows ListInRange. Nil ids match every trip.
type Filter struct {
	From         time.Time
	To           time.Time
	DriverID     *types.ID
	FacilityID   *types.ID
	ContractorID *types.ID
	PatientID    *types.ID
	Statuses     []Status
}
