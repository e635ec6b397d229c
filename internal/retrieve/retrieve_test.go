package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketmind/internal/catalog"
	"marketmind/internal/market"
)

type fakeSource struct {
	name   string
	result market.Result

	calls   int
	lastSym string
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) FetchSeries(_ context.Context, symbol string, _ market.Window) market.Result {
	f.calls++
	f.lastSym = symbol
	return f.result
}

func series(prices ...float64) market.Series {
	base := time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC)
	out := make(market.Series, 0, len(prices))
	for i, p := range prices {
		out = append(out, market.PricePoint{Time: base.Add(time.Duration(i) * time.Hour), Price: p})
	}
	return out
}

func newRetriever(crypto, equity *fakeSource) *Retriever {
	return &Retriever{
		Catalog: CatalogFunc(catalog.Lookup),
		Crypto:  crypto,
		Equity:  equity,
		Window:  market.Window{Days: 1},
	}
}

func TestPriceSeries_CatalogHitUsesCryptoId(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Ok(series(65000.5, 65120.0))}
	equity := &fakeSource{name: "equity", result: market.NoData()}
	r := newRetriever(crypto, equity)

	got, err := r.PriceSeries(context.Background(), "btc")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if crypto.calls != 1 || crypto.lastSym != "bitcoin" {
		t.Fatalf("crypto called %d times with %q, want 1 with \"bitcoin\"", crypto.calls, crypto.lastSym)
	}
	if equity.calls != 0 {
		t.Fatalf("equity should not be called on crypto success")
	}
	if len(got) != 2 || got[0].Price != 65000.5 || got[1].Price != 65120.0 {
		t.Fatalf("series length/order wrong: %+v", got)
	}
}

func TestPriceSeries_CatalogMissSkipsCrypto(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Ok(series(1))}
	equity := &fakeSource{name: "equity", result: market.Ok(series(242.0))}
	r := newRetriever(crypto, equity)

	got, err := r.PriceSeries(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if crypto.calls != 0 {
		t.Fatalf("crypto must never see an uncataloged ticker")
	}
	if equity.calls != 1 || equity.lastSym != "TSLA" {
		t.Fatalf("equity called %d times with %q", equity.calls, equity.lastSym)
	}
	if len(got) != 1 || got[0].Price != 242.0 {
		t.Fatalf("unexpected series: %+v", got)
	}
}

func TestPriceSeries_EmptyCryptoFallsThroughToEquity(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.NoData()}
	equity := &fakeSource{name: "equity", result: market.Ok(series(9.5))}
	r := newRetriever(crypto, equity)

	got, err := r.PriceSeries(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if crypto.calls != 1 {
		t.Fatalf("crypto attempt missing")
	}
	if equity.calls != 1 {
		t.Fatalf("equity fallback missing after empty crypto data")
	}
	if len(got) != 1 || got[0].Price != 9.5 {
		t.Fatalf("unexpected series: %+v", got)
	}
}

func TestPriceSeries_CryptoUnavailableFallsThroughToEquity(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Unavailable(errors.New("connection refused"))}
	equity := &fakeSource{name: "equity", result: market.Ok(series(100))}
	r := newRetriever(crypto, equity)

	got, err := r.PriceSeries(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("transport failure must not escape: %v", err)
	}
	if equity.calls != 1 || len(got) != 1 {
		t.Fatalf("equity fallback missing: calls=%d series=%+v", equity.calls, got)
	}
}

func TestPriceSeries_BothFailYieldsEmptySeries(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Unavailable(errors.New("boom"))}
	equity := &fakeSource{name: "equity", result: market.Unavailable(errors.New("boom"))}
	r := newRetriever(crypto, equity)

	got, err := r.PriceSeries(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want non-nil empty series, got %+v", got)
	}
}

func TestPriceSeries_EquityEmptyTableYieldsEmptySeries(t *testing.T) {
	equity := &fakeSource{name: "equity", result: market.NoData()}
	r := newRetriever(&fakeSource{name: "crypto"}, equity)

	got, err := r.PriceSeries(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty series, got %+v", got)
	}
}

func TestPriceSeries_EmptyTickerRejectedBeforeAnyCall(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Ok(series(1))}
	equity := &fakeSource{name: "equity", result: market.Ok(series(1))}
	r := newRetriever(crypto, equity)

	for _, in := range []string{"", "   "} {
		if _, err := r.PriceSeries(context.Background(), in); !errors.Is(err, ErrEmptyTicker) {
			t.Fatalf("PriceSeries(%q) err = %v, want ErrEmptyTicker", in, err)
		}
	}
	if crypto.calls != 0 || equity.calls != 0 {
		t.Fatalf("no network attempt may happen for invalid input")
	}
}

func TestPriceSeries_Idempotent(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Ok(series(1, 2, 3))}
	r := newRetriever(crypto, &fakeSource{name: "equity", result: market.NoData()})

	first, err := r.PriceSeries(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	second, err := r.PriceSeries(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPriceSeries_TryUnlistedCrypto(t *testing.T) {
	crypto := &fakeSource{name: "crypto", result: market.Ok(series(0.001))}
	equity := &fakeSource{name: "equity", result: market.NoData()}
	r := newRetriever(crypto, equity)
	r.TryUnlistedCrypto = true

	got, err := r.PriceSeries(context.Background(), "PEPE")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if crypto.calls != 1 || crypto.lastSym != "pepe" {
		t.Fatalf("unlisted crypto attempt: calls=%d sym=%q", crypto.calls, crypto.lastSym)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected series: %+v", got)
	}
}
