// Package cache memoizes computed course prices for the lifetime of one
// computation scope (a request or a batch job) and counts what happened.
package cache

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/courseprice/types"
)

// Key identifies one memoized price.
type Key struct {
	CanonicalID string
	Signature   string
	AsOf        types.Date
}

// String concatenates the key parts into the lookup string.
func (k Key) String() string {
	var b strings.Builder
	b.Grow(len(k.CanonicalID) + len(k.Signature) + 12)
	b.WriteString(k.CanonicalID)
	b.WriteByte(':')
	b.WriteString(k.Signature)
	b.WriteByte(':')
	b.WriteString(k.AsOf.String())
	return b.String()
}

// PriceCache is a mutex protected price memo. Concurrent misses on the same
// key share one computation. The zero value is not usable; call New.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]types.Money
	group  singleflight.Group
}

// New creates an empty PriceCache.
func New() *PriceCache {
	return &PriceCache{prices: make(map[string]types.Money)}
}

// Get returns the memoized price for key.
func (c *PriceCache) Get(key Key) (types.Money, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	price, ok := c.prices[key.String()]
	return price, ok
}

// Set stores price under key.
func (c *PriceCache) Set(key Key, price types.Money) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[key.String()] = price
}

// GetOrCompute returns the memoized price for key, or runs compute and
// stores its result. hit is false only for the caller whose compute ran;
// callers that received a value computed by another caller report a hit.
// Failed computations are not stored.
func (c *PriceCache) GetOrCompute(key Key, compute func() (types.Money, error)) (price types.Money, hit bool, err error) {
	if price, ok := c.Get(key); ok {
		return price, true, nil
	}

	computed := false
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Another caller may have filled the slot between Get and Do.
		if price, ok := c.Get(key); ok {
			return price, nil
		}
		computed = true
		price, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, price)
		return price, nil
	})
	if err != nil {
		return types.Money{}, false, err
	}
	return v.(types.Money), !computed, nil
}

// Len returns the number of memoized prices.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}

// Clear drops every memoized price.
func (c *PriceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices = make(map[string]types.Money)
}
