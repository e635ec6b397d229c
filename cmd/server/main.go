package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marketmind/internal/catalog"
	"marketmind/internal/config"
	"marketmind/internal/httpx"
	"marketmind/internal/market"
	"marketmind/internal/market/cache"
	"marketmind/internal/market/coingecko"
	"marketmind/internal/market/coingeckoadapter"
	"marketmind/internal/market/ratelimit"
	"marketmind/internal/market/yahoo"
	"marketmind/internal/retrieve"
	"marketmind/internal/sentiment"
	"marketmind/internal/store"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var cryptoSource market.Source
	if cfg.CoinGecko.Enabled {
		cgClient, err := coingecko.NewClient(cfg.CoinGecko.APIKey,
			coingecko.WithBaseURL(cfg.CoinGecko.Endpoint),
			coingecko.WithHTTPClient(httpClient.HTTP),
		)
		if err != nil {
			log.Fatalf("coingecko client: %v", err)
		}
		cryptoSource = decorate(coingeckoadapter.New(coingeckoadapter.Config{
			VsCurrency: cfg.CoinGecko.VsCurrency,
		}, cgClient), sourceLimits{
			maxRPM:        cfg.CoinGecko.MaxRequestsPerMinute,
			burst:         cfg.CoinGecko.Burst,
			minIntervalS:  cfg.CoinGecko.MinRequestIntervalSec,
			cacheTTLS:     cfg.CoinGecko.CacheTTLSeconds,
			cacheMaxItems: cfg.CoinGecko.CacheMaxItems,
		})
	}

	var equitySource market.Source
	if cfg.Yahoo.Enabled {
		equitySource = decorate(yahoo.New(yahoo.Config{
			BaseURL:   cfg.Yahoo.Endpoint,
			SymbolMap: cfg.Yahoo.SymbolMap,
		}, httpClient), sourceLimits{
			maxRPM:        cfg.Yahoo.MaxRequestsPerMinute,
			burst:         cfg.Yahoo.Burst,
			minIntervalS:  cfg.Yahoo.MinRequestIntervalSec,
			cacheTTLS:     cfg.Yahoo.CacheTTLSeconds,
			cacheMaxItems: cfg.Yahoo.CacheMaxItems,
		})
	}

	retriever := &retrieve.Retriever{
		Catalog:           retrieve.CatalogFunc(catalog.Lookup),
		Crypto:            cryptoSource,
		Equity:            equitySource,
		Window:            market.Window{Days: cfg.Window.Days, Interval: cfg.Window.Interval},
		TryUnlistedCrypto: cfg.CoinGecko.TryUnlisted,
	}

	var analyst *sentiment.Client
	if cfg.Sentiment.Endpoint != "" && cfg.Sentiment.Deployment != "" {
		analyst, err = sentiment.NewClient(cfg.Sentiment.Endpoint, cfg.Sentiment.Deployment, cfg.Sentiment.APIKey,
			sentiment.WithHTTPClient(httpClient.HTTP),
			sentiment.WithAPIVersion(cfg.Sentiment.APIVersion),
		)
		if err != nil {
			log.Fatalf("sentiment client: %v", err)
		}
	} else {
		log.Println("warning: sentiment endpoint/deployment not set; /api/insight disabled")
	}

	insights, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer insights.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/series", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeSeries(r.Context(), w, retriever, r.URL.Query().Get("ticker"))
	})
	mux.HandleFunc("/api/insight", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleInsight(w, r, retriever, analyst, insights, cfg.Usage.FreeLimit)
	})
	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleListInsights(w, r, insights)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(recoverPanic(limitBody(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type sourceLimits struct {
	maxRPM        int
	burst         int
	minIntervalS  int
	cacheTTLS     int
	cacheMaxItems int
}

// decorate stacks rate limiting and caching over a source.
// Prefer a token bucket with burst if RPM is set, otherwise min-interval.
func decorate(s market.Source, lim sourceLimits) market.Source {
	if lim.maxRPM > 0 {
		rate := float64(lim.maxRPM) / 60.0
		burst := lim.burst
		if burst <= 0 {
			burst = 1
		}
		s = &ratelimit.TokenBucketSource{S: s, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if lim.minIntervalS > 0 {
		s = &ratelimit.MinInterval{S: s, Interval: time.Duration(lim.minIntervalS) * time.Second}
	}
	if lim.cacheTTLS > 0 {
		s = &cache.Source{S: s, TTL: time.Duration(lim.cacheTTLS) * time.Second, MaxItems: lim.cacheMaxItems}
	}
	return s
}

type seriesResponse struct {
	Ticker string        `json:"ticker"`
	Series market.Series `json:"series"`
}

func writeSeries(ctx context.Context, w http.ResponseWriter, r *retrieve.Retriever, ticker string) {
	series, err := r.PriceSeries(ctx, ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := seriesResponse{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), Series: series}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

type insightRequest struct {
	UID    string `json:"uid"`
	Ticker string `json:"ticker"`
}

type insightResponse struct {
	Ticker         string                   `json:"ticker"`
	Recommendation sentiment.Recommendation `json:"recommendation"`
	Analysis       string                   `json:"analysis"`
	Series         market.Series            `json:"series"`
	UsageCount     int                      `json:"usage_count"`
}

func handleInsight(w http.ResponseWriter, r *http.Request, rt *retrieve.Retriever, analyst *sentiment.Client, insights *store.Store, freeLimit int) {
	if analyst == nil {
		http.Error(w, "sentiment analysis not configured", http.StatusServiceUnavailable)
		return
	}

	var body insightRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	body.Ticker = strings.ToUpper(strings.TrimSpace(body.Ticker))
	if body.UID == "" || body.Ticker == "" {
		http.Error(w, "uid and ticker are required", http.StatusBadRequest)
		return
	}

	// Read-then-gate: concurrent requests for one uid can both pass at the
	// boundary. The free limit is a soft cap, so that is tolerated.
	usage, err := insights.UsageCount(body.UID)
	if err != nil {
		http.Error(w, "usage lookup failed", http.StatusInternalServerError)
		return
	}
	if freeLimit > 0 && usage >= freeLimit {
		http.Error(w, "free limit reached", http.StatusPaymentRequired)
		return
	}

	insight, err := analyst.Analyze(r.Context(), body.Ticker)
	if err != nil {
		log.Printf("[WARN] sentiment analysis failed for %q: %v", body.Ticker, err)
		http.Error(w, "sentiment analysis failed", http.StatusBadGateway)
		return
	}

	// The chart is best-effort: an empty series still renders as
	// "no data found" next to a valid recommendation.
	series, err := rt.PriceSeries(r.Context(), body.Ticker)
	if err != nil {
		series = market.Series{}
	}

	// The reported count only moves when the row actually landed.
	count := usage
	if err := insights.SaveInsight(body.UID, body.Ticker, insight.Analysis); err != nil {
		log.Printf("[WARN] save insight for %q: %v", body.UID, err)
	} else {
		count++
	}

	resp := insightResponse{
		Ticker:         body.Ticker,
		Recommendation: insight.Recommendation,
		Analysis:       insight.Analysis,
		Series:         series,
		UsageCount:     count,
	}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func handleListInsights(w http.ResponseWriter, r *http.Request, insights *store.Store) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		http.Error(w, "missing uid query param", http.StatusBadRequest)
		return
	}
	rows, err := insights.Insights(uid, 50)
	if err != nil {
		http.Error(w, "insight lookup failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]any{"insights": rows})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
