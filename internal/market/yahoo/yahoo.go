// Package yahoo fetches intraday equity charts from the Yahoo Finance
// v8 chart API and exposes them as a market.Source.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"marketmind/internal/httpx"
	"marketmind/internal/market"
	"marketmind/internal/normalize"
)

type Config struct {
	Name      string            // display name, default: Yahoo
	BaseURL   string            // default: https://query1.finance.yahoo.com
	Headers   map[string]string // optional extra headers
	SymbolMap map[string]string // maps internal tickers to Yahoo symbols (e.g. SPX -> ^GSPC)
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) yahooSymbol(ticker string) string {
	if mapped, ok := p.cfg.SymbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// chartResponse is the Yahoo Finance v8 chart envelope, trimmed to the
// fields this source consumes (bar timestamps and closing prices).
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries queries the chart endpoint for a raw ticker. Unknown symbols
// and empty tables are NoData; transport failures and unexpected statuses
// are Unavailable. Nothing escapes as a raised error.
func (p *Provider) FetchSeries(ctx context.Context, ticker string, w market.Window) market.Result {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		p.cfg.BaseURL, url.PathEscape(p.yahooSymbol(ticker)), intervalParam(w), rangeParam(w))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return market.Unavailable(err)
	}
	// Yahoo rejects the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0")
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return market.Unavailable(fmt.Errorf("yahoo fetch: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return market.Unavailable(fmt.Errorf("yahoo read body: %w", err))
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)

	// Unrecognized symbols come back as 404 with an error envelope.
	if chart.Chart.Error != nil {
		return market.NoData()
	}
	if resp.StatusCode != http.StatusOK {
		return market.Unavailable(fmt.Errorf("yahoo: status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return market.Unavailable(fmt.Errorf("yahoo decode: %w", decodeErr))
	}
	if len(chart.Chart.Result) == 0 {
		return market.NoData()
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return market.NoData()
	}

	series := normalize.Series(normalize.EquityPayload(normalize.EquityBars{
		Timestamps: result.Timestamp,
		Closes:     result.Indicators.Quote[0].Close,
	}))
	if len(series) == 0 {
		return market.NoData()
	}
	return market.Ok(series)
}

// intervalParam maps the window's granularity hint to a Yahoo interval tag.
func intervalParam(w market.Window) string {
	switch w.Interval {
	case "", "5m", "5-minute":
		return "5m"
	case "hourly":
		return "60m"
	default:
		return w.Interval
	}
}

// rangeParam maps the lookback days to the nearest Yahoo range tag.
func rangeParam(w market.Window) string {
	switch {
	case w.Days <= 1:
		return "1d"
	case w.Days <= 5:
		return "5d"
	case w.Days <= 30:
		return "1mo"
	case w.Days <= 90:
		return "3mo"
	case w.Days <= 365:
		return "1y"
	default:
		return "2y"
	}
}
