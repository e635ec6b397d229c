// Package retrieve resolves a user-entered ticker to a normalized price
// series, falling back from the crypto source to the equity source. Every
// upstream failure mode collapses to an empty series; the only error a
// caller can see is an invalid ticker.
package retrieve

import (
	"context"
	"errors"
	"log"
	"strings"

	"marketmind/internal/market"
)

// ErrEmptyTicker rejects blank input before any network call is made.
var ErrEmptyTicker = errors.New("ticker must not be empty")

// Catalog resolves a ticker to a crypto provider id. A miss means
// "treat as equity".
type Catalog interface {
	Lookup(ticker string) (string, bool)
}

// CatalogFunc adapts a plain lookup function to the Catalog interface.
type CatalogFunc func(ticker string) (string, bool)

func (f CatalogFunc) Lookup(ticker string) (string, bool) { return f(ticker) }

// Retriever tries the crypto source first when the ticker classifies as a
// known crypto symbol, then degrades to the equity source. Attempts are
// strictly sequential; there are no retries and no shared per-request state,
// so one Retriever serves any number of concurrent callers.
type Retriever struct {
	Catalog Catalog
	Crypto  market.Source
	Equity  market.Source
	Window  market.Window

	// TryUnlistedCrypto also attempts the crypto source for tickers absent
	// from the catalog, using the lower-cased ticker as the provider id.
	// Off by default; reference deployments differ on this behavior.
	TryUnlistedCrypto bool
}

// PriceSeries resolves ticker to a series. The chain is:
// classify -> crypto attempt -> equity attempt -> empty series.
// A non-nil error is returned only for invalid input.
func (r *Retriever) PriceSeries(ctx context.Context, ticker string) (market.Series, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, ErrEmptyTicker
	}

	if id, ok := r.classify(ticker); ok && r.Crypto != nil {
		res := r.Crypto.FetchSeries(ctx, id, r.Window)
		if res.HasData() {
			return res.Series, nil
		}
		if res.Err != nil {
			log.Printf("[WARN] %s unavailable for %q, trying equity: %v", r.Crypto.Name(), ticker, res.Err)
		}
		// A classifier hit with empty crypto data is not final: symbols
		// collide across markets, so the equity attempt still runs.
	}

	if r.Equity != nil {
		res := r.Equity.FetchSeries(ctx, strings.ToUpper(ticker), r.Window)
		if res.HasData() {
			return res.Series, nil
		}
		if res.Err != nil {
			log.Printf("[WARN] %s unavailable for %q: %v", r.Equity.Name(), ticker, res.Err)
		}
	}

	return market.Series{}, nil
}

func (r *Retriever) classify(ticker string) (string, bool) {
	if r.Catalog != nil {
		if id, ok := r.Catalog.Lookup(ticker); ok {
			return id, true
		}
	}
	if r.TryUnlistedCrypto {
		return strings.ToLower(ticker), true
	}
	return "", false
}
