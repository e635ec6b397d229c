// Package store persists per-user insights in SQLite and answers the
// usage-count queries that gate the free tier.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Insight is one saved analysis row.
type Insight struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Ticker    string    `json:"ticker"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the SQLite handle. Writes are serialized; reads may run
// concurrently (WAL mode).
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so usage checks don't block insight writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] insight store opened: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS insights (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			uid        TEXT NOT NULL,
			ticker     TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_uid ON insights(uid)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_uid_ts ON insights(uid, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SaveInsight records one analysis for a user. The ticker is stored
// upper-cased, matching how it was displayed.
func (s *Store) SaveInsight(uid, ticker, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO insights (uid, ticker, content, created_at) VALUES (?,?,?,?)`,
		uid, strings.ToUpper(ticker), content, time.Now().Unix(),
	)
	return err
}

// UsageCount returns how many insights a user has saved so far.
func (s *Store) UsageCount(uid string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM insights WHERE uid = ?`, uid).Scan(&n)
	return n, err
}

// Insights returns a user's most recent rows, newest first.
func (s *Store) Insights(uid string, limit int) ([]Insight, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, uid, ticker, content, created_at FROM insights
		 WHERE uid = ? ORDER BY created_at DESC, id DESC LIMIT ?`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Insight
	for rows.Next() {
		var in Insight
		var ts int64
		if err := rows.Scan(&in.ID, &in.UID, &in.Ticker, &in.Content, &ts); err != nil {
			return nil, err
		}
		in.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	log.Println("[INFO] closing insight store")
	return s.db.Close()
}
