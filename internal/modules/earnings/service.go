// README: Earnings and report queries over stored trips and current rate profiles.
package earnings

import (
	"context"
	"log/slog"
	"time"

	"nemt/internal/metrics"
	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/modules/trip"
	"nemt/internal/types"
)

type TripLister interface {
	List(ctx context.Context, f trip.Filter) ([]trip.Trip, error)
}

type ProfileLister interface {
	Profiles(ctx context.Context, kind rates.OwnerKind) (map[types.ID]rates.RateProfile, error)
}

type Service struct {
	trips    TripLister
	profiles ProfileLister
	resolver payout.Resolver
	loc      *time.Location
	log      *slog.Logger
}

func NewService(trips TripLister, profiles ProfileLister, resolver payout.Resolver, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{trips: trips, profiles: profiles, resolver: resolver, loc: loc, log: log.With("module", "earnings")}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

type Query struct {
	Range DateRange
	Limit int
	// ApplyDeductions subtracts the owner's configured deductions from the
	// period total. Off unless asked for.
	ApplyDeductions bool
}

// DriverEarnings ranks drivers by total payout for the period.
func (s *Service) DriverEarnings(ctx context.Context, q Query) ([]LeaderboardEntry[types.ID], error) {
	trips, snap, err := s.load(ctx, rates.OwnerDriver, trip.Filter{}, q.Range)
	if err != nil {
		return nil, err
	}
	return Leaderboard(Aggregate(trips, snap, ByDriver, q.Range), q.Limit), nil
}

func (s *Service) DriverSummary(ctx context.Context, driverID types.ID, q Query) (DriverEarningsSummary, error) {
	trips, snap, err := s.load(ctx, rates.OwnerDriver, trip.Filter{DriverID: &driverID}, q.Range)
	if err != nil {
		return DriverEarningsSummary{}, err
	}
	groups := Aggregate(trips, snap, ByDriver, q.Range)

	var deductions *rates.DeductionConfig
	if q.ApplyDeductions {
		if p := snap.ByID[driverID]; p != nil {
			deductions = p.Deductions
		}
	}
	summary := Summarize(driverID, q.Range, groups[driverID], deductions)
	if summary.Deduction != nil && summary.Deduction.Floored {
		metrics.DeductionsFloored.Inc()
		s.log.WarnContext(ctx, "deductions exceed period earnings", "driver_id", driverID,
			"gross", summary.Deduction.Gross.StringFixed(2), "unfloored", summary.Deduction.Unfloored.StringFixed(2))
	}
	return summary, nil
}

type HourBucket struct {
	Hour  int    `json:"hour"`
	Group *Group `json:"group"`
}

type Histogram struct {
	Buckets  []HourBucket `json:"buckets"`
	PeakHour *int         `json:"peakHour,omitempty"`
}

// HourlyHistogram counts facility fares per hour of day. Every hour 0-23
// is present, empty hours with a zero group.
func (s *Service) HourlyHistogram(ctx context.Context, q Query) (Histogram, error) {
	trips, snap, err := s.load(ctx, rates.OwnerFacility, trip.Filter{}, q.Range)
	if err != nil {
		return Histogram{}, err
	}
	groups := Aggregate(trips, snap, ByHour(s.loc), q.Range)
	h := Histogram{Buckets: make([]HourBucket, 24)}
	for hour := range h.Buckets {
		g := groups[hour]
		if g == nil {
			g = &Group{}
			g.finish()
		}
		h.Buckets[hour] = HourBucket{Hour: hour, Group: g}
	}
	if peak, ok := PeakHour(groups); ok {
		h.PeakHour = &peak
	}
	return h, nil
}

// PatientFrequency ranks patients by number of trips.
func (s *Service) PatientFrequency(ctx context.Context, q Query) ([]Entry[types.ID], error) {
	trips, snap, err := s.load(ctx, rates.OwnerFacility, trip.Filter{}, q.Range)
	if err != nil {
		return nil, err
	}
	return TopByCount(Aggregate(trips, snap, ByPatient, q.Range), q.Limit), nil
}

// FacilityBilling totals fares per facility, priced with facility profiles.
func (s *Service) FacilityBilling(ctx context.Context, q Query) ([]LeaderboardEntry[types.ID], error) {
	trips, snap, err := s.load(ctx, rates.OwnerFacility, trip.Filter{}, q.Range)
	if err != nil {
		return nil, err
	}
	return Leaderboard(Aggregate(trips, snap, ByFacility, q.Range), q.Limit), nil
}

// ContractorBilling totals fares per contractor.
func (s *Service) ContractorBilling(ctx context.Context, q Query) ([]LeaderboardEntry[types.ID], error) {
	trips, snap, err := s.load(ctx, rates.OwnerContractor, trip.Filter{}, q.Range)
	if err != nil {
		return nil, err
	}
	return Leaderboard(Aggregate(trips, snap, ByContractor, q.Range), q.Limit), nil
}

// load fetches the trips in range and a profile snapshot for one owner kind.
func (s *Service) load(ctx context.Context, kind rates.OwnerKind, f trip.Filter, r DateRange) ([]trip.Trip, Profiles, error) {
	f.From, f.To = r.Start, r.End
	trips, err := s.trips.List(ctx, f)
	if err != nil {
		return nil, Profiles{}, err
	}
	all, err := s.profiles.Profiles(ctx, kind)
	if err != nil {
		return nil, Profiles{}, err
	}
	snap := Profiles{Kind: kind, ByID: make(map[types.ID]*rates.RateProfile, len(all)), Resolver: s.resolver}
	for id, p := range all {
		snap.ByID[id] = &p
	}
	return trips, snap, nil
}
