// README: Generic grouping of resolved payouts by driver, facility, patient or time bucket.
package earnings

import (
	"cmp"
	"time"

	"github.com/shopspring/decimal"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/modules/trip"
	"nemt/internal/types"
)

// Profiles is an in-memory snapshot of the profiles that price a report.
// Kind picks the trip's owner: drivers for payouts, facilities or
// contractors for fares. Owners missing from ByID resolve via defaults.
type Profiles struct {
	Kind     rates.OwnerKind
	ByID     map[types.ID]*rates.RateProfile
	Resolver payout.Resolver
}

// Resolve prices t for the snapshot's owner kind. A trip's stored payout is
// the finalized driver amount, so fare reports ignore it and price the trip
// from the facility or contractor profile.
func (p Profiles) Resolve(t trip.Trip) payout.Result {
	var profile *rates.RateProfile
	if owner, ok := t.Owner(p.Kind); ok {
		profile = p.ByID[owner.ID]
	}
	in := t.PayoutInput()
	if p.Kind != rates.OwnerDriver {
		in.StoredPayout = nil
	}
	return p.Resolver.Resolve(in, profile)
}

// KeyFunc extracts a group key. ok=false leaves the trip out of every group.
type KeyFunc[K cmp.Ordered] func(t trip.Trip) (key K, ok bool)

type Group struct {
	Results []payout.Result `json:"results"`
	TripIDs []types.ID      `json:"tripIds"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

func (g *Group) add(id types.ID, res payout.Result) {
	g.Results = append(g.Results, res)
	g.TripIDs = append(g.TripIDs, id)
	g.Total = g.Total.Add(res.Amount)
	g.Count++
}

func (g *Group) finish() {
	g.Total = types.RoundCents(g.Total)
	if g.Count == 0 {
		g.Average = decimal.Zero
		return
	}
	g.Average = types.RoundCents(g.Total.Div(decimal.NewFromInt(int64(g.Count))))
}

// Aggregate resolves every trip scheduled inside r and groups the results by
// key. Amounts are taken as resolved; nothing is recomputed per group.
func Aggregate[K cmp.Ordered](trips []trip.Trip, profiles Profiles, key KeyFunc[K], r DateRange) map[K]*Group {
	groups := make(map[K]*Group)
	for _, t := range trips {
		if !r.Contains(t.ScheduledAt) {
			continue
		}
		k, ok := key(t)
		if !ok {
			continue
		}
		g := groups[k]
		if g == nil {
			g = &Group{Total: decimal.Zero}
			groups[k] = g
		}
		g.add(t.ID, profiles.Resolve(t))
	}
	for _, g := range groups {
		g.finish()
	}
	return groups
}

func ByDriver(t trip.Trip) (types.ID, bool) { return idKey(t.DriverID) }

func ByFacility(t trip.Trip) (types.ID, bool) { return idKey(t.FacilityID) }

func ByContractor(t trip.Trip) (types.ID, bool) { return idKey(t.ContractorID) }

func ByPatient(t trip.Trip) (types.ID, bool) { return idKey(t.PatientID) }

// ByHour buckets by the hour of day (0-23) the trip was scheduled, in loc.
func ByHour(loc *time.Location) KeyFunc[int] {
	return func(t trip.Trip) (int, bool) {
		return t.ScheduledAt.In(loc).Hour(), true
	}
}

// ByDay buckets by calendar day (YYYY-MM-DD) in loc.
func ByDay(loc *time.Location) KeyFunc[string] {
	return func(t trip.Trip) (string, bool) {
		return t.ScheduledAt.In(loc).Format(time.DateOnly), true
	}
}

func idKey(id *types.ID) (types.ID, bool) {
	if id == nil || *id == "" {
		return "", false
	}
	return *id, true
}
