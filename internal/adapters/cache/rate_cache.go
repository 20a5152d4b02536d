package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
)

// RistrettoRateCache keeps provider rates per currency code for a fixed TTL.
type RistrettoRateCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewRateCache(maxItems int64, ttl time.Duration) (*RistrettoRateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate cache failed: %w", err)
	}
	return &RistrettoRateCache{cache: c, ttl: ttl}, nil
}

func (c *RistrettoRateCache) Get(code string) (decimal.Decimal, bool) {
	if v, ok := c.cache.Get(code); ok {
		rate, ok := v.(decimal.Decimal)
		return rate, ok
	}
	return decimal.Zero, false
}

func (c *RistrettoRateCache) Set(code string, rate decimal.Decimal) {
	c.cache.SetWithTTL(code, rate, 1, c.ttl)
}

func (c *RistrettoRateCache) Close() { c.cache.Close() }
