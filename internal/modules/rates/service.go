// README: Rate profile service: cache-aside reads, validated writes.
package rates

import (
	"context"
	"errors"
	"log/slog"

	"nemt/internal/metrics"
	"nemt/internal/types"
)

type ProfileStore interface {
	Get(ctx context.Context, owner Owner) (*RateProfile, error)
	Save(ctx context.Context, owner Owner, p RateProfile) error
	ListByKind(ctx context.Context, kind OwnerKind) (map[types.ID]RateProfile, error)
}

type ProfileCache interface {
	Get(ctx context.Context, owner Owner) (*RateProfile, bool, error)
	Set(ctx context.Context, owner Owner, p *RateProfile) error
	Invalidate(ctx context.Context, owner Owner) error
}

type Service struct {
	store ProfileStore
	cache ProfileCache
	log   *slog.Logger
}

// NewService wires the store and an optional cache (nil disables caching).
func NewService(store ProfileStore, cache ProfileCache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, cache: cache, log: log.With("module", "rates")}
}

// Profile returns the owner's profile, or (nil, nil) when none is
// configured. A missing profile is not an error: callers resolve through
// the default profile.
func (s *Service) Profile(ctx context.Context, owner Owner) (*RateProfile, error) {
	if s.cache != nil {
		p, hit, err := s.cache.Get(ctx, owner)
		switch {
		case err != nil:
			metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
			s.log.WarnContext(ctx, "profile cache read failed", "owner", owner.String(), "err", err)
		case hit:
			metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
			return p, nil
		default:
			metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	p, err := s.store.Get(ctx, owner)
	if errors.Is(err, ErrNotFound) {
		p, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, owner, p); err != nil {
			s.log.WarnContext(ctx, "profile cache write failed", "owner", owner.String(), "err", err)
		}
	}
	return p, nil
}

// Save validates and persists a profile. Validation failures come back as
// TierErrors and nothing is written.
func (s *Service) Save(ctx context.Context, owner Owner, p RateProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.Save(ctx, owner, p); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, owner); err != nil {
			s.log.WarnContext(ctx, "profile cache invalidate failed", "owner", owner.String(), "err", err)
		}
	}
	s.log.InfoContext(ctx, "rate profile saved", "owner", owner.String())
	return nil
}

// Profiles returns every configured profile of one owner kind.
func (s *Service) Profiles(ctx context.Context, kind OwnerKind) (map[types.ID]RateProfile, error) {
	return s.store.ListByKind(ctx, kind)
}
