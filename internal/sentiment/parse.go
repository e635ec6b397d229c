package sentiment

import "strings"

// Recommendation is the trade signal extracted from model free text.
type Recommendation string

const (
	Buy  Recommendation = "Buy"
	Sell Recommendation = "Sell"
	Hold Recommendation = "Hold"
)

// ParseRecommendation extracts a signal from free text by case-insensitive
// substring match, priority Buy > Sell, defaulting to Hold. The model is
// not guaranteed any output format, so this is intentionally the loosest
// contract that still yields a deterministic answer.
func ParseRecommendation(text string) Recommendation {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "buy"):
		return Buy
	case strings.Contains(lower, "sell"):
		return Sell
	default:
		return Hold
	}
}
