package cache

import (
	"context"
	"strconv"
	"time"

	pkgredis "subpay-indexer.backend/pkg/redis"
)

// PriceCache is a short-TTL second tier in front of the Price Oracle's
// venue calls, keyed by venue symbol. Avoids re-querying the venue on
// every payable subscription within the same scheduler tick.
type PriceCache struct {
	ttl time.Duration
}

// NewPriceCache builds a cache with the given entry lifetime.
func NewPriceCache(ttl time.Duration) *PriceCache {
	return &PriceCache{ttl: ttl}
}

func (c *PriceCache) key(symbol string) string {
	return "price:" + symbol
}

// Get returns a cached price, if present and unexpired.
func (c *PriceCache) Get(ctx context.Context, symbol string) (float64, bool) {
	raw, err := pkgredis.Get(ctx, c.key(symbol))
	if err != nil {
		return 0, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// Set stores a price under the cache's configured TTL.
func (c *PriceCache) Set(ctx context.Context, symbol string, price float64) error {
	return pkgredis.Set(ctx, c.key(symbol), strconv.FormatFloat(price, 'f', -1, 64), c.ttl)
}
