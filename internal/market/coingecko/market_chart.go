package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
)

// ErrCoinNotFound is returned when the coin id is unknown to CoinGecko.
// Callers treat it as "no data", not as an upstream failure.
var ErrCoinNotFound = errors.New("coin not found")

// Chart is the market_chart payload. Each price entry is a
// [epoch-millis, price-in-vs-currency] pair in chronological order.
type Chart struct {
	Prices [][2]float64 `json:"prices"`
}

// Empty reports whether the chart carries no price points. CoinGecko
// answers 200 with an empty or absent prices list when an id is valid
// but has no trades in the window.
func (c Chart) Empty() bool { return len(c.Prices) == 0 }

// MarketChart retrieves the short-horizon price chart for a coin id.
// days is the lookback window; interval is an optional granularity hint
// ("" lets the API pick: 5-minutely for 1 day, hourly up to 90 days).
func (c *Client) MarketChart(ctx context.Context, id, vsCurrency string, days int, interval string, opts ...ClientOption) (Chart, error) {
	var override = &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Add("vs_currency", vsCurrency)
	query.Add("days", strconv.Itoa(days))
	if interval != "" {
		query.Add("interval", interval)
	}

	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", override.baseURL, url.PathEscape(id), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return Chart{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return Chart{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return Chart{}, fmt.Errorf("%w: %s", ErrCoinNotFound, id)

	case http.StatusTooManyRequests:
		return Chart{}, fmt.Errorf("rate limited")

	default:
		return Chart{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var chart Chart
	if err := json.NewDecoder(res.Body).Decode(&chart); err != nil {
		return Chart{}, fmt.Errorf("decoding market_chart response: %w", err)
	}
	return chart, nil
}
