package catalog

import "strings"

// entries maps short crypto symbols to CoinGecko coin ids.
// Read-only after init; safe to share across concurrent lookups.
var entries = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"USDC":  "usd-coin",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"TRX":   "tron",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"TON":   "the-open-network",
	"SHIB":  "shiba-inu",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"UNI":   "uniswap",
	"XLM":   "stellar",
	"NEAR":  "near",
	"ATOM":  "cosmos",
	"XMR":   "monero",
	"ETC":   "ethereum-classic",
	"FIL":   "filecoin",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"AAVE":  "aave",
	"ALGO":  "algorand",
}

// Lookup resolves a ticker to a CoinGecko id. The match is exact and
// case-insensitive; no fuzzy or partial matching. A miss means
// "treat as equity" and is a normal outcome, not an error.
func Lookup(ticker string) (string, bool) {
	id, ok := entries[strings.ToUpper(strings.TrimSpace(ticker))]
	return id, ok
}
