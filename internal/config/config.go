package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type CoinGecko struct {
	Enabled               bool   `json:"enabled"`
	APIKey                string `json:"api_key"`
	Endpoint              string `json:"endpoint"`
	VsCurrency            string `json:"vs_currency"`
	TryUnlisted           bool   `json:"try_unlisted"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
	CacheTTLSeconds       int    `json:"cache_ttl_sec"`
	CacheMaxItems         int    `json:"cache_max_items"`
}

type Yahoo struct {
	Enabled               bool              `json:"enabled"`
	Endpoint              string            `json:"endpoint"`
	SymbolMap             map[string]string `json:"symbol_map"`
	MaxRequestsPerMinute  int               `json:"max_requests_per_minute"`
	MinRequestIntervalSec int               `json:"min_request_interval_sec"`
	Burst                 int               `json:"burst"`
	CacheTTLSeconds       int               `json:"cache_ttl_sec"`
	CacheMaxItems         int               `json:"cache_max_items"`
}

type Sentiment struct {
	Endpoint   string `json:"endpoint"`
	Deployment string `json:"deployment"`
	APIKey     string `json:"api_key"`
	APIVersion string `json:"api_version"`
}

type Store struct {
	SQLitePath string `json:"sqlite_path"`
}

type Usage struct {
	// FreeLimit is the number of insights a user may save on the free tier.
	// Deployments have shipped with both 5 and 10; it is a knob, not a constant.
	FreeLimit int `json:"free_limit"`
}

type Window struct {
	Days     int    `json:"days"`
	Interval string `json:"interval"`
}

type Config struct {
	Server    Server    `json:"server"`
	CoinGecko CoinGecko `json:"coingecko"`
	Yahoo     Yahoo     `json:"yahoo"`
	Sentiment Sentiment `json:"sentiment"`
	Store     Store     `json:"store"`
	Usage     Usage     `json:"usage"`
	Window    Window    `json:"window"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		CoinGecko: CoinGecko{
			Enabled:              true,
			Endpoint:             "https://api.coingecko.com/api/v3",
			VsCurrency:           "usd",
			MaxRequestsPerMinute: 10,
			Burst:                2,
			CacheTTLSeconds:      60,
			CacheMaxItems:        1000,
		},
		Yahoo: Yahoo{
			Enabled:              true,
			Endpoint:             "https://query1.finance.yahoo.com",
			MaxRequestsPerMinute: 30,
			Burst:                5,
			CacheTTLSeconds:      60,
			CacheMaxItems:        1000,
		},
		Sentiment: Sentiment{APIVersion: "2023-07-01-preview"},
		Store:     Store{SQLitePath: "data/marketmind.db"},
		Usage:     Usage{FreeLimit: 5},
		Window:    Window{Days: 1},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields
// for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := envInt("REQUEST_TIMEOUT_SEC"); v > 0 {
		cfg.Server.RequestTimeoutSec = v
	}

	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINGECKO_ENDPOINT"); v != "" {
		cfg.CoinGecko.Endpoint = v
	}
	if v, ok := envBool("COINGECKO_TRY_UNLISTED"); ok {
		cfg.CoinGecko.TryUnlisted = v
	}
	if v := envInt("COINGECKO_MAX_RPM"); v >= 0 {
		cfg.CoinGecko.MaxRequestsPerMinute = v
	}
	if v := envInt("COINGECKO_CACHE_TTL_SEC"); v >= 0 {
		cfg.CoinGecko.CacheTTLSeconds = v
	}

	if v := os.Getenv("YAHOO_ENDPOINT"); v != "" {
		cfg.Yahoo.Endpoint = v
	}
	if v := envInt("YAHOO_MAX_RPM"); v >= 0 {
		cfg.Yahoo.MaxRequestsPerMinute = v
	}
	if v := envInt("YAHOO_CACHE_TTL_SEC"); v >= 0 {
		cfg.Yahoo.CacheTTLSeconds = v
	}

	if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
		cfg.Sentiment.Endpoint = v
	}
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		cfg.Sentiment.APIKey = v
	}
	if v := os.Getenv("DEPLOYMENT_NAME"); v != "" {
		cfg.Sentiment.Deployment = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := envInt("FREE_LIMIT"); v > 0 {
		cfg.Usage.FreeLimit = v
	}
	if v := envInt("WINDOW_DAYS"); v > 0 {
		cfg.Window.Days = v
	}
	if v := os.Getenv("WINDOW_INTERVAL"); v != "" {
		cfg.Window.Interval = v
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return -1
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil {
		return -1
	}
	return x
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}
