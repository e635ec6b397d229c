package coingeckoadapter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"marketmind/internal/market"
	"marketmind/internal/market/coingecko"
	"marketmind/internal/market/coingeckoadapter"
)

func TestFetchSeries_GranularityHint(t *testing.T) {
	tests := []struct {
		name         string
		window       market.Window
		wantInterval string
		wantDays     string
	}{
		{"default window", market.Window{Days: 1}, "", "1"},
		{"five minute hint", market.Window{Days: 1, Interval: "5m"}, "", "1"},
		{"spelled out hint", market.Window{Days: 1, Interval: "5-minute"}, "", "1"},
		{"hourly hint", market.Window{Days: 7, Interval: "hourly"}, "", "7"},
		{"daily hint", market.Window{Days: 30, Interval: "daily"}, "daily", "30"},
		{"long window", market.Window{Days: 120}, "daily", "120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query()
				_, _ = w.Write([]byte(`{"prices":[[1700000000000,65000.5]]}`))
			}))
			defer srv.Close()

			client, err := coingecko.NewClient("", coingecko.WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("client: %v", err)
			}

			res := coingeckoadapter.New(coingeckoadapter.Config{}, client).
				FetchSeries(context.Background(), "bitcoin", tt.window)
			if !res.HasData() {
				t.Fatalf("result = %+v, want data", res)
			}
			if tt.wantInterval == "" {
				if _, present := got["interval"]; present {
					t.Fatalf("interval param should be omitted, got %q", got.Get("interval"))
				}
			} else if v := got.Get("interval"); v != tt.wantInterval {
				t.Fatalf("interval = %q, want %q", v, tt.wantInterval)
			}
			if v := got.Get("days"); v != tt.wantDays {
				t.Fatalf("days = %q, want %q", v, tt.wantDays)
			}
		})
	}
}

func TestFetchSeries_UnknownCoinIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"coin not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := coingecko.NewClient("", coingecko.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	res := coingeckoadapter.New(coingeckoadapter.Config{}, client).
		FetchSeries(context.Background(), "nope", market.Window{Days: 1})
	if res.HasData() || res.Err != nil {
		t.Fatalf("result = %+v, want empty without error", res)
	}
}
