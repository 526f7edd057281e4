// README: Trip service: closing trips, finalizing and correcting payouts.
package trip

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("trip not found")
	ErrConflict     = errors.New("trip state conflict")
	ErrNotClosed    = errors.New("trip is not closed")
	ErrNoDriver     = errors.New("trip has no driver")
	ErrBadRequest   = errors.New("bad request")
)

type PayoutResolver interface {
	ResolveFor(ctx context.Context, tripID string, trip payout.Trip, owner rates.Owner) (payout.Result, error)
}

type Service struct {
	store   *Store
	payouts PayoutResolver
	log     *slog.Logger
}

func NewService(store *Store, payouts PayoutResolver, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, payouts: payouts, log: log.With("module", "trip")}
}

type CloseCommand struct {
	TripID        types.ID
	Status        Status
	DistanceMiles *decimal.Decimal
	ActorType     string
	ActorID       *types.ID
}

type OverrideCommand struct {
	TripID  types.ID
	Amount  decimal.Decimal
	ActorID *types.ID
	Reason  string
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Trip, error) {
	return s.store.ListInRange(ctx, f)
}

// Close moves a trip along the status flow, optionally recording the final
// distance.
func (s *Service) Close(ctx context.Context, cmd CloseCommand) error {
	if cmd.TripID == "" || cmd.Status == "" {
		return ErrBadRequest
	}
	if d := cmd.DistanceMiles; d != nil && (d.IsNegative() || d.GreaterThan(decimal.NewFromInt(payout.MaxDistanceMiles))) {
		return ErrBadRequest
	}
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, cmd.Status) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, cmd.Status, t.StatusVersion, cmd.DistanceMiles)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	actor := cmd.ActorType
	if actor == "" {
		actor = "dispatcher"
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     t.ID,
		FromStatus: t.Status,
		ToStatus:   cmd.Status,
		ActorType:  actor,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	return nil
}

// FinalizePayout resolves the driver payout of a closed trip and stores it,
// so later resolutions return it unchanged even if the driver's rates move.
// Zero amounts are not stored.
func (s *Service) FinalizePayout(ctx context.Context, id types.ID) (payout.Result, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return payout.Result{}, err
	}
	if !IsClosed(t.Status) {
		return payout.Result{}, ErrNotClosed
	}
	owner, ok := t.Owner(rates.OwnerDriver)
	if !ok {
		return payout.Result{}, ErrNoDriver
	}
	res, err := s.payouts.ResolveFor(ctx, string(t.ID), t.PayoutInput(), owner)
	if err != nil {
		return payout.Result{}, err
	}
	if res.Source == payout.SourceExplicitOverride || !res.Amount.IsPositive() {
		return res, nil
	}
	amount := res.Amount
	if err := s.store.SetStoredPayout(ctx, t.ID, &amount); err != nil {
		return payout.Result{}, err
	}
	s.log.InfoContext(ctx, "payout finalized", "trip_id", t.ID, "amount", amount.StringFixed(2), "source", res.Source)
	return res, nil
}

// OverridePayout stores a manual correction. The amount must be positive:
// a zero stored value would be ignored by resolution.
func (s *Service) OverridePayout(ctx context.Context, cmd OverrideCommand) error {
	if cmd.TripID == "" || !cmd.Amount.IsPositive() {
		return ErrBadRequest
	}
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return err
	}
	amount := types.RoundCents(cmd.Amount)
	if err := s.store.SetStoredPayout(ctx, t.ID, &amount); err != nil {
		return err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     t.ID,
		FromStatus: t.Status,
		ToStatus:   t.Status,
		ActorType:  "admin",
		ActorID:    cmd.ActorID,
		Note:       "payout override " + amount.StringFixed(2) + ": " + cmd.Reason,
		CreatedAt:  time.Now(),
	})
	s.log.InfoContext(ctx, "payout overridden", "trip_id", t.ID, "amount", amount.StringFixed(2))
	return nil
}
