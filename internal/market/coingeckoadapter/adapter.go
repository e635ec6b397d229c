// Package coingeckoadapter exposes the CoinGecko API client as a
// market.Source. It owns the error-to-outcome collapse: an unknown coin or
// an empty chart is NoData, anything else upstream is Unavailable.
package coingeckoadapter

import (
	"context"
	"errors"
	"strings"

	"marketmind/internal/market"
	"marketmind/internal/market/coingecko"
	"marketmind/internal/normalize"
)

type Config struct {
	Name       string // display name, default: CoinGecko
	VsCurrency string // quote currency, default: usd
}

type Adapter struct {
	cfg    Config
	client *coingecko.Client
}

func New(cfg Config, client *coingecko.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "CoinGecko"
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = "usd"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// FetchSeries retrieves and normalizes the market chart for a coin id.
// The id must already be resolved through the catalog (or explicitly
// passed through when unlisted lookups are enabled); never a raw ticker.
func (a *Adapter) FetchSeries(ctx context.Context, id string, w market.Window) market.Result {
	days := w.Days
	if days <= 0 {
		days = 1
	}
	chart, err := a.client.MarketChart(ctx, id, a.cfg.VsCurrency, days, intervalParam(w))
	if err != nil {
		if errors.Is(err, coingecko.ErrCoinNotFound) {
			return market.NoData()
		}
		return market.Unavailable(err)
	}
	if chart.Empty() {
		return market.NoData()
	}
	return market.Ok(normalize.Series(normalize.CryptoPayload(chart.Prices)))
}

// intervalParam maps the window's granularity hint to what the public
// market_chart endpoint accepts. Only "daily" is valid there; sub-daily
// granularity is automatic (5-minutely for one day, hourly up to 90 days),
// so finer hints like "5m" or "hourly" fall back to the automatic pick.
func intervalParam(w market.Window) string {
	if strings.EqualFold(strings.TrimSpace(w.Interval), "daily") || w.Days > 90 {
		return "daily"
	}
	return ""
}
