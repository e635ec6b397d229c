// Package normalize converts provider-specific chart payloads into the
// canonical market.Series shape. It is the only place that knows how each
// source family encodes time and price.
package normalize

import (
	"time"

	"marketmind/internal/market"
)

// Payload is a tagged variant holding exactly one provider payload shape.
type Payload struct {
	Kind   market.Kind
	Crypto [][2]float64 // [epoch-millis, price] pairs (CoinGecko market_chart)
	Equity EquityBars   // time-indexed bars, closes only (Yahoo v8 chart)
}

// EquityBars is the equity payload: parallel slices of bar timestamps
// (unix seconds) and closing prices. A nil close marks a null bar
// (holiday, halted session) and is skipped.
type EquityBars struct {
	Timestamps []int64
	Closes     []*float64
}

// CryptoPayload tags a crypto chart for normalization.
func CryptoPayload(pairs [][2]float64) Payload {
	return Payload{Kind: market.KindCrypto, Crypto: pairs}
}

// EquityPayload tags an equity chart for normalization.
func EquityPayload(bars EquityBars) Payload {
	return Payload{Kind: market.KindEquity, Equity: bars}
}

// Series maps a payload to the canonical series. Output order is input
// order: no sorting, no deduplication, no gap filling. Empty or malformed
// payloads yield an empty series; nothing here fails.
func Series(p Payload) market.Series {
	switch p.Kind {
	case market.KindCrypto:
		return cryptoSeries(p.Crypto)
	case market.KindEquity:
		return equitySeries(p.Equity)
	default:
		return market.Series{}
	}
}

func cryptoSeries(pairs [][2]float64) market.Series {
	out := make(market.Series, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, market.PricePoint{
			Time:  time.UnixMilli(int64(pair[0])).UTC(),
			Price: pair[1],
		})
	}
	return out
}

func equitySeries(bars EquityBars) market.Series {
	n := len(bars.Timestamps)
	if len(bars.Closes) < n {
		// Mismatched table; trust only the overlap.
		n = len(bars.Closes)
	}
	out := make(market.Series, 0, n)
	for i := 0; i < n; i++ {
		if bars.Closes[i] == nil {
			continue
		}
		// Bar timestamps stay in the exchange's clock; no TZ conversion here.
		out = append(out, market.PricePoint{
			Time:  time.Unix(bars.Timestamps[i], 0),
			Price: *bars.Closes[i],
		})
	}
	return out
}
