package payout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nemt/internal/modules/rates"
)

type fakeProfiles map[rates.Owner]*rates.RateProfile

func (f fakeProfiles) Profile(_ context.Context, owner rates.Owner) (*rates.RateProfile, error) {
	if owner.ID == "broken" {
		return nil, errors.New("store unavailable")
	}
	return f[owner], nil
}

type fixedDistance struct {
	miles decimal.Decimal
	err   error
}

func (f fixedDistance) DrivingMiles(context.Context, string, string) (decimal.Decimal, error) {
	return f.miles, f.err
}

func newTestService(distance DistanceEstimator) (*Service, rates.Owner) {
	owner := rates.Owner{Kind: rates.OwnerDriver, ID: "drv-1"}
	profiles := fakeProfiles{owner: ambulatoryProfile()}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(profiles, distance, NewResolver(rates.DefaultRateProfile()), log), owner
}

func TestServiceResolveFor(t *testing.T) {
	svc, owner := newTestService(nil)
	ctx := context.Background()

	res, err := svc.ResolveFor(ctx, "t1", Trip{ServiceLevel: rates.Ambulatory, DistanceMiles: dec("12.6"), Status: StatusCompleted}, owner)
	require.NoError(t, err)
	assert.Equal(t, "23.60", res.Amount.StringFixed(2))

	res, err = svc.ResolveFor(ctx, "t2", Trip{ServiceLevel: rates.Wheelchair, DistanceMiles: dec("10"), Status: StatusCompleted}, rates.Owner{Kind: rates.OwnerDriver, ID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, SourceDefaultFallback, res.Source)

	res, err = svc.ResolveFor(ctx, "t3", Trip{ServiceLevel: rates.Ambulatory, Status: StatusCompleted}, owner)
	require.NoError(t, err)
	assert.Equal(t, SourceZeroDistance, res.Source)

	_, err = svc.ResolveFor(ctx, "t4", Trip{}, rates.Owner{Kind: rates.OwnerDriver, ID: "broken"})
	assert.Error(t, err)
}

func TestServicePreview(t *testing.T) {
	svc, _ := newTestService(nil)
	draft := rates.DefaultRateProfile()
	draft.Ambulatory = rates.SingleTier(dec("20"), 3, dec("2"))
	res := svc.Preview(Trip{ServiceLevel: rates.Ambulatory, DistanceMiles: dec("5"), Status: StatusScheduled}, &draft)
	assert.Equal(t, "24.00", res.Amount.StringFixed(2))
}

func TestServiceQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("prices driving distance", func(t *testing.T) {
		svc, owner := newTestService(fixedDistance{miles: dec("12.6")})
		q, err := svc.Quote(ctx, QuoteRequest{Owner: owner, ServiceLevel: rates.Ambulatory, Origin: "a", Destination: "b"})
		require.NoError(t, err)
		assert.Equal(t, "12.6", q.DistanceMiles.String())
		assert.Equal(t, "23.60", q.Result.Amount.StringFixed(2))
	})

	t.Run("missing addresses", func(t *testing.T) {
		svc, owner := newTestService(fixedDistance{})
		_, err := svc.Quote(ctx, QuoteRequest{Owner: owner, Origin: "a"})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("no estimator", func(t *testing.T) {
		svc, owner := newTestService(nil)
		_, err := svc.Quote(ctx, QuoteRequest{Owner: owner, Origin: "a", Destination: "b"})
		assert.ErrorIs(t, err, ErrQuoteUnavailable)
	})

	t.Run("estimator failure", func(t *testing.T) {
		boom := errors.New("maps quota exceeded")
		svc, owner := newTestService(fixedDistance{err: boom})
		_, err := svc.Quote(ctx, QuoteRequest{Owner: owner, Origin: "a", Destination: "b"})
		assert.ErrorIs(t, err, boom)
	})
}
