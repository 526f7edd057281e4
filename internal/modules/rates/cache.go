// README: Redis cache of rate profile snapshots, keyed per owner.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const profileKeyPrefix = "rates:profile:%s:%s"

type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redis *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: redis, ttl: ttl}
}

// cachedProfile remembers owners without a profile too, so the default
// fallback path does not hit Postgres on every trip.
type cachedProfile struct {
	Missing      bool            `json:"missing,omitempty"`
	Rates        *CompactRates   `json:"rates,omitempty"`
	Cancellation decimal.Decimal `json:"cancellation"`
	NoShow       decimal.Decimal `json:"noShow"`
}

// Get returns (profile, true, nil) on a hit; a hit for an owner without a
// profile is (nil, true, nil).
func (c *Cache) Get(ctx context.Context, owner Owner) (*RateProfile, bool, error) {
	val, err := c.redis.Get(ctx, profileKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cp cachedProfile
	if err := json.Unmarshal(val, &cp); err != nil {
		return nil, false, fmt.Errorf("rates: decode cached %s: %w", owner, err)
	}
	if cp.Missing || cp.Rates == nil {
		return nil, true, nil
	}
	p := FromCompact(*cp.Rates, Fees{Cancellation: cp.Cancellation, NoShow: cp.NoShow})
	return &p, true, nil
}

func (c *Cache) Set(ctx context.Context, owner Owner, p *RateProfile) error {
	cp := cachedProfile{Missing: p == nil}
	if p != nil {
		compact := ToCompact(*p)
		cp.Rates = &compact
		cp.Cancellation = p.CancellationRate
		cp.NoShow = p.NoShowRate
	}
	val, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, profileKey(owner), val, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, owner Owner) error {
	return c.redis.Del(ctx, profileKey(owner)).Err()
}

func profileKey(owner Owner) string {
	return fmt.Sprintf(profileKeyPrefix, owner.Kind, owner.ID)
}
