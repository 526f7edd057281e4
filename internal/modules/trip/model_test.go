package trip

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusAssigned, StatusNoShow, true},
		{StatusAssigned, StatusScheduled, true},
		// terminal
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusNoShow, StatusCompleted, false},
		// skipping
		{StatusScheduled, StatusCompleted, false},
		{StatusInProgress, StatusNoShow, false},
		{StatusInProgress, StatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "CanTransition(%s, %s)", tc.from, tc.to)
	}
}

func TestIsClosed(t *testing.T) {
	assert.True(t, IsClosed(StatusCompleted))
	assert.True(t, IsClosed(StatusCancelled))
	assert.True(t, IsClosed(StatusNoShow))
	assert.False(t, IsClosed(StatusInProgress))
}

func TestTripOwner(t *testing.T) {
	drv := types.ID("drv-1")
	empty := types.ID("")
	tr := Trip{DriverID: &drv, FacilityID: &empty}

	owner, ok := tr.Owner(rates.OwnerDriver)
	assert.True(t, ok)
	assert.Equal(t, rates.Owner{Kind: rates.OwnerDriver, ID: "drv-1"}, owner)

	_, ok = tr.Owner(rates.OwnerFacility)
	assert.False(t, ok)
	_, ok = tr.Owner(rates.OwnerContractor)
	assert.False(t, ok)
}

func TestPayoutInput(t *testing.T) {
	stored := decimal.RequireFromString("31.40")
	tr := Trip{
		ServiceLevel:  rates.Stretcher,
		DistanceMiles: decimal.RequireFromString("7.5"),
		Status:        StatusCompleted,
		StoredPayout:  &stored,
	}
	in := tr.PayoutInput()
	assert.Equal(t, rates.Stretcher, in.ServiceLevel)
	assert.Equal(t, "7.5", in.DistanceMiles.String())
	assert.Equal(t, StatusCompleted, in.Status)
	assert.Same(t, &stored, in.StoredPayout)
}
