package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "insights.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveInsight_CountsPerUser(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveInsight("u1", "btc", "buy signal"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveInsight("u1", "TSLA", "hold"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveInsight("u2", "ETH", "sell"); err != nil {
		t.Fatalf("save: %v", err)
	}

	n, err := s.UsageCount("u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("u1 count = %d, want 2", n)
	}
	n, err = s.UsageCount("u2")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("u2 count = %d, want 1", n)
	}
}

func TestUsageCount_UnknownUserIsZero(t *testing.T) {
	s := openTestStore(t)

	n, err := s.UsageCount("nobody")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestInsights_NewestFirst_TickerUppercased(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveInsight("u1", "btc", "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveInsight("u1", "eth", "second"); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := s.Insights("u1", 10)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].Content != "second" || rows[1].Content != "first" {
		t.Fatalf("not newest first: %+v", rows)
	}
	if rows[0].Ticker != "ETH" || rows[1].Ticker != "BTC" {
		t.Fatalf("tickers not uppercased: %+v", rows)
	}
}
