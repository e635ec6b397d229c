package ratelimit

import (
	"context"
	"sync"
	"time"

	"marketmind/internal/market"
)

// MinInterval wraps a source and enforces a minimum time between upstream
// calls. Waiters either get their slot or observe context cancellation,
// reported as an Unavailable outcome.
type MinInterval struct {
	S        market.Source
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) FetchSeries(ctx context.Context, symbol string, w market.Window) market.Result {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return market.Unavailable(ctx.Err())
			case <-t.C:
			}
		}
	}
	res := m.S.FetchSeries(ctx, symbol, w)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return res
}
