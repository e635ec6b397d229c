// Package cache decorates a market.Source with a per-(symbol, window) TTL
// cache. Concurrent cold lookups for the same key are coalesced into a
// single upstream call.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"marketmind/internal/market"
)

// entry stores one fetched outcome with expiry.
type entry struct {
	expiresAt time.Time
	result    market.Result
}

// Source caches successful outcomes (including NoData) for a TTL.
// Unavailable outcomes are never cached, so a recovered upstream is
// observed on the next call.
type Source struct {
	S        market.Source
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
	sf    singleflight.Group
}

func (c *Source) Name() string { return c.S.Name() }

func (c *Source) FetchSeries(ctx context.Context, symbol string, w market.Window) market.Result {
	if c.S == nil {
		return market.NoData()
	}
	if c.TTL <= 0 {
		return c.S.FetchSeries(ctx, symbol, w)
	}

	key := fmt.Sprintf("%s|%dd|%s", symbol, w.Days, w.Interval)

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.result
	}

	v, _, _ := c.sf.Do(key, func() (any, error) {
		res := c.S.FetchSeries(ctx, symbol, w)
		if res.Err == nil {
			c.store(key, res)
		}
		return res, nil
	})
	return v.(market.Result)
}

func (c *Source) store(key string, res market.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[key] = entry{expiresAt: time.Now().Add(c.TTL), result: res}

	// Best-effort cap: drop expired entries first, then arbitrary ones.
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		now := time.Now()
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxItems {
				return
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				return
			}
			if k != key {
				delete(c.items, k)
			}
		}
	}
}
