// README: Payout service: profile lookup, resolution, metrics and route-based quotes.
package payout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"nemt/internal/metrics"
	"nemt/internal/modules/rates"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrQuoteUnavailable = errors.New("distance estimation not configured")
)

// ProfileSource returns (nil, nil) when the owner has no profile.
type ProfileSource interface {
	Profile(ctx context.Context, owner rates.Owner) (*rates.RateProfile, error)
}

type DistanceEstimator interface {
	DrivingMiles(ctx context.Context, origin, destination string) (decimal.Decimal, error)
}

type Service struct {
	profiles ProfileSource
	distance DistanceEstimator
	resolver Resolver
	log      *slog.Logger
}

// NewService wires profile lookup. distance may be nil, in which case Quote
// returns ErrQuoteUnavailable.
func NewService(profiles ProfileSource, distance DistanceEstimator, resolver Resolver, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{profiles: profiles, distance: distance, resolver: resolver, log: log.With("module", "payout")}
}

func (s *Service) Resolver() Resolver {
	return s.resolver
}

// ResolveFor resolves a trip against the owner's current profile. The only
// error is a failed profile fetch.
func (s *Service) ResolveFor(ctx context.Context, tripID string, trip Trip, owner rates.Owner) (Result, error) {
	profile, err := s.profiles.Profile(ctx, owner)
	if err != nil {
		return Result{}, err
	}
	res := s.resolver.Resolve(trip, profile)
	s.observe(ctx, tripID, trip, owner, res)
	return res, nil
}

// Preview resolves against an unsaved profile, for live rate editing.
// Nothing is recorded.
func (s *Service) Preview(trip Trip, profile *rates.RateProfile) Result {
	return s.resolver.Resolve(trip, profile)
}

type QuoteRequest struct {
	Owner        rates.Owner
	ServiceLevel rates.ServiceLevel
	Origin       string
	Destination  string
}

type Quote struct {
	DistanceMiles decimal.Decimal `json:"distanceMiles"`
	Result        Result          `json:"result"`
}

// Quote prices a prospective trip from its driving distance.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if req.Origin == "" || req.Destination == "" {
		return Quote{}, ErrBadRequest
	}
	if s.distance == nil {
		return Quote{}, ErrQuoteUnavailable
	}
	miles, err := s.distance.DrivingMiles(ctx, req.Origin, req.Destination)
	if err != nil {
		return Quote{}, err
	}
	profile, err := s.profiles.Profile(ctx, req.Owner)
	if err != nil {
		return Quote{}, err
	}
	trip := Trip{ServiceLevel: req.ServiceLevel, DistanceMiles: miles, Status: StatusScheduled}
	return Quote{DistanceMiles: miles, Result: s.resolver.Resolve(trip, profile)}, nil
}

func (s *Service) observe(ctx context.Context, tripID string, trip Trip, owner rates.Owner, res Result) {
	metrics.PayoutResolutions.WithLabelValues(string(res.Source)).Inc()
	if res.Source == SourceZeroDistance {
		metrics.ZeroDistanceTrips.WithLabelValues(string(trip.ServiceLevel)).Inc()
		s.log.WarnContext(ctx, "trip has no recorded distance", "trip_id", tripID, "owner", owner.String(), "status", trip.Status)
	}
}
