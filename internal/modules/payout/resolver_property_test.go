package payout

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"nemt/internal/modules/rates"
)

var allStatuses = []TripStatus{
	StatusScheduled, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow,
}

// risingTable builds a contiguous table whose flat rates never decrease.
func risingTable(widths, steps []int, additionalCents int) rates.ServiceLevelRates {
	r := rates.ServiceLevelRates{AdditionalMileRate: decimal.New(int64(additionalCents), -2)}
	from, rate := 1, int64(1000)
	for i, w := range widths {
		to := from + w + 1
		if i < len(steps) {
			rate += int64(steps[i])
		}
		r.Tiers = append(r.Tiers, rates.RateTier{FromMiles: from, ToMiles: to, Rate: decimal.New(rate, -2)})
		from = to + 1
	}
	return r
}

func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	widths := gen.SliceOfN(4, gen.IntRange(0, 10)).SuchThat(func(ws []int) bool { return len(ws) > 0 })
	steps := gen.SliceOfN(4, gen.IntRange(0, 2500))

	properties.Property("resolve is idempotent", prop.ForAll(
		func(ws, ss []int, add int, miles float64, status int, stored float64) bool {
			p := rates.DefaultRateProfile()
			p.Stretcher = risingTable(ws, ss, add)
			p.CancellationRate = decimal.NewFromInt(9)
			trip := Trip{
				ServiceLevel:  rates.Stretcher,
				DistanceMiles: decimal.NewFromFloat(miles),
				Status:        allStatuses[status],
			}
			if stored > 0 {
				s := decimal.NewFromFloat(stored)
				trip.StoredPayout = &s
			}
			return reflect.DeepEqual(Resolve(trip, &p), Resolve(trip, &p))
		},
		widths, steps, gen.IntRange(0, 500), gen.Float64Range(0, 150),
		gen.IntRange(0, len(allStatuses)-1), gen.Float64Range(-20, 80),
	))

	properties.Property("longer trips never pay less", prop.ForAll(
		func(ws, ss []int, add int, a, b float64) bool {
			if a > b {
				a, b = b, a
			}
			p := rates.RateProfile{Ambulatory: risingTable(ws, ss, add)}
			short := Resolve(Trip{ServiceLevel: rates.Ambulatory, DistanceMiles: decimal.NewFromFloat(a), Status: StatusCompleted}, &p)
			long := Resolve(Trip{ServiceLevel: rates.Ambulatory, DistanceMiles: decimal.NewFromFloat(b), Status: StatusCompleted}, &p)
			return short.Amount.LessThanOrEqual(long.Amount)
		},
		widths, steps, gen.IntRange(0, 500), gen.Float64Range(0, 150), gen.Float64Range(0, 150),
	))

	properties.Property("deductions never report a negative net", prop.ForAll(
		func(grossCents, rental, insurance, pct int) bool {
			d := ApplyDeductions(decimal.New(int64(grossCents), -2), &rates.DeductionConfig{
				FixedRental:    decimal.New(int64(rental), -2),
				FixedInsurance: decimal.New(int64(insurance), -2),
				Percentage:     decimal.NewFromInt(int64(pct)),
			})
			return !d.Net.IsNegative() && d.Net.GreaterThanOrEqual(d.Unfloored)
		},
		gen.IntRange(0, 500000), gen.IntRange(0, 100000), gen.IntRange(0, 100000), gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
