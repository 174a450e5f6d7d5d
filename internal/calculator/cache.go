package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/taxcalc/internal/common"
	"github.com/noah-isme/taxcalc/internal/resilience"
	"github.com/noah-isme/taxcalc/internal/tax"
)

const cachePrefix = "tax:breakdown:v1:"

// Cache stores computed breakdowns in Redis as JSON. Compute is pure, so a
// breakdown never goes stale; the TTL only bounds memory.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker routes Redis calls through b so an outage is skipped quickly.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get loads the breakdown stored for in. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, in tax.TaxInputs) (tax.TaxBreakdown, bool, error) {
	if !c.enabled() {
		return tax.TaxBreakdown{}, false, nil
	}
	var data []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, cacheKey(in)).Bytes()
		return err
	}, isMiss)
	if err != nil {
		if isMiss(err) {
			return tax.TaxBreakdown{}, false, nil
		}
		return tax.TaxBreakdown{}, false, err
	}
	var b tax.TaxBreakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return tax.TaxBreakdown{}, false, err
	}
	return b, true, nil
}

// Set stores b under the key derived from in.
func (c *Cache) Set(ctx context.Context, in tax.TaxInputs, b tax.TaxBreakdown) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, cacheKey(in), data, c.ttl).Err()
	}, nil)
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// cacheKey hashes the canonical form of in. decimal.String drops trailing zeros,
// so 100 and 100.00 share a key.
func cacheKey(in tax.TaxInputs) string {
	parts := []string{
		in.Regime.String(),
		in.SalaryIncome.String(),
		in.OtherIncome.String(),
		in.Deductions.Section80C.String(),
		in.Deductions.Section80D.String(),
		in.HRAExemption.String(),
		in.HomeLoanInterest.String(),
	}
	return cachePrefix + common.Sha256Hex(strings.Join(parts, "|"))
}
