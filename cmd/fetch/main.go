package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"marketmind/internal/catalog"
	"marketmind/internal/config"
	"marketmind/internal/httpx"
	"marketmind/internal/market"
	"marketmind/internal/market/coingecko"
	"marketmind/internal/market/coingeckoadapter"
	"marketmind/internal/market/yahoo"
	"marketmind/internal/retrieve"
	"marketmind/internal/sentiment"
)

func main() {
	var ticker string
	var days int
	var interval string
	var timeout int
	var configPath string
	var analyze bool

	flag.StringVar(&ticker, "ticker", getenv("TICKER", "BTC"), "crypto or stock ticker (e.g. BTC, ETH, TSLA)")
	flag.IntVar(&days, "days", 1, "lookback window in days")
	flag.StringVar(&interval, "interval", "", "granularity hint (hourly, 5m); empty = provider default")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.BoolVar(&analyze, "analyze", false, "also request a sentiment recommendation")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	httpClient := httpx.New(time.Duration(timeout) * time.Second)

	cgClient, err := coingecko.NewClient(cfg.CoinGecko.APIKey,
		coingecko.WithBaseURL(cfg.CoinGecko.Endpoint),
		coingecko.WithHTTPClient(httpClient.HTTP),
	)
	if err != nil {
		log.Fatalf("coingecko client: %v", err)
	}

	retriever := &retrieve.Retriever{
		Catalog: retrieve.CatalogFunc(catalog.Lookup),
		Crypto: coingeckoadapter.New(coingeckoadapter.Config{
			VsCurrency: cfg.CoinGecko.VsCurrency,
		}, cgClient),
		Equity: yahoo.New(yahoo.Config{
			BaseURL:   cfg.Yahoo.Endpoint,
			SymbolMap: cfg.Yahoo.SymbolMap,
		}, httpClient),
		Window:            market.Window{Days: days, Interval: interval},
		TryUnlistedCrypto: cfg.CoinGecko.TryUnlisted,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout+5)*time.Second)
	defer cancel()

	series, err := retriever.PriceSeries(ctx, ticker)
	if err != nil {
		log.Fatalf("resolve %q: %v", ticker, err)
	}

	out := map[string]any{
		"ticker": strings.ToUpper(strings.TrimSpace(ticker)),
		"series": series,
	}

	if analyze {
		if cfg.Sentiment.Endpoint == "" || cfg.Sentiment.Deployment == "" {
			log.Fatalf("sentiment endpoint/deployment not configured")
		}
		analyst, err := sentiment.NewClient(cfg.Sentiment.Endpoint, cfg.Sentiment.Deployment, cfg.Sentiment.APIKey,
			sentiment.WithHTTPClient(httpClient.HTTP),
			sentiment.WithAPIVersion(cfg.Sentiment.APIVersion),
		)
		if err != nil {
			log.Fatalf("sentiment client: %v", err)
		}
		insight, err := analyst.Analyze(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
		if err != nil {
			log.Fatalf("analyze: %v", err)
		}
		out["recommendation"] = insight.Recommendation
		out["analysis"] = insight.Analysis
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
