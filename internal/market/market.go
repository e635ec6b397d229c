package market

import (
	"context"
	"time"
)

// PricePoint is a single observation in a price series.
// Price is in USD; Time is whatever clock the source reports
// (UTC for crypto, exchange-local for equities).
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Series is an ordered price series. Insertion order is chronological order
// as delivered by the source; nothing downstream may reorder it.
// An empty series is a valid terminal "no data" state, not an error.
type Series []PricePoint

// Window is the lookback span and granularity hint for a series request.
type Window struct {
	Days     int    // lookback in days, e.g. 1
	Interval string // provider granularity hint, e.g. "hourly", "5m"; "" = provider default
}

// Kind tags which family of source produced a payload.
type Kind string

const (
	KindCrypto Kind = "crypto"
	KindEquity Kind = "equity"
)

// Result is the outcome of one source attempt. Exactly one of three states:
//   - ok:          Err == nil, len(Series) > 0
//   - no data:     Err == nil, len(Series) == 0
//   - unavailable: Err != nil (transport failure, bad status, bad payload)
//
// Callers branch on the state; sources never panic or leak errors otherwise.
type Result struct {
	Series Series
	Err    error
}

// Ok wraps a fetched series. An empty series is equivalent to NoData.
func Ok(s Series) Result { return Result{Series: s} }

// NoData is a successful attempt that found nothing.
func NoData() Result { return Result{} }

// Unavailable marks the source as unreachable or unparseable.
func Unavailable(err error) Result { return Result{Err: err} }

// HasData reports whether the attempt produced at least one point.
func (r Result) HasData() bool { return r.Err == nil && len(r.Series) > 0 }

// Source fetches a short-horizon price series for one symbol.
// The symbol is already resolved for the source's namespace: a CoinGecko id
// for crypto sources, a raw ticker for equity sources.
type Source interface {
	Name() string
	FetchSeries(ctx context.Context, symbol string, w Window) Result
}
