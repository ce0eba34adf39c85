// Package audit implements the persistent dispatch journal.
//
// Every datadog_query dispatch is recorded with its action, outcome,
// and timing so operators can inspect tool usage after the fact. The
// journal is SQLite in WAL mode. Writers are best-effort callers: a
// journal failure must never block or fail a dispatch.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const (
	// dbFileName is the journal file created under the configured directory.
	dbFileName = "audit.db"

	// maxMessageLength caps stored envelope messages.
	maxMessageLength = 500

	// defaultRecentLimit is used when Recent is called with limit <= 0.
	defaultRecentLimit = 20
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Dispatch is one journaled tool invocation.
type Dispatch struct {
	ID         int64  `json:"id"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// Entry holds the input for journaling one dispatch.
type Entry struct {
	Action   string
	Status   string
	Count    int
	Message  string
	Duration time.Duration
}

// Stats holds aggregate journal counters.
type Stats struct {
	Total     int            `json:"total"`
	Successes int            `json:"successes"`
	Errors    int            `json:"errors"`
	ByAction  map[string]int `json:"by_action"`
	Last      string         `json:"last_dispatch,omitempty"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the dispatch journal backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens the journal under dir, creating the directory and database
// if needed, applies the SQLite pragmas, and runs migrations.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("audit: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("audit: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS dispatches (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			action      TEXT    NOT NULL,
			status      TEXT    NOT NULL,
			count       INTEGER NOT NULL DEFAULT 0,
			message     TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_dispatch_action  ON dispatches(action);
		CREATE INDEX IF NOT EXISTS idx_dispatch_status  ON dispatches(status);
		CREATE INDEX IF NOT EXISTS idx_dispatch_created ON dispatches(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ─── Journal ─────────────────────────────────────────────────────────────────

// Record journals one dispatch and returns its row ID. Long messages
// are truncated to keep the journal compact.
func (s *Store) Record(e Entry) (int64, error) {
	msg := e.Message
	if len(msg) > maxMessageLength {
		msg = msg[:maxMessageLength] + "... [truncated]"
	}

	res, err := s.db.Exec(
		`INSERT INTO dispatches (action, status, count, message, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		e.Action, e.Status, e.Count, msg, e.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("audit: record dispatch: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest dispatches, optionally filtered by action.
func (s *Store) Recent(action string, limit int) ([]Dispatch, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `SELECT id, action, status, count, COALESCE(message, ''), duration_ms, created_at FROM dispatches`
	args := []any{}

	if action != "" {
		query += " WHERE action = ?"
		args = append(args, action)
	}

	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: recent dispatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Dispatch
	for rows.Next() {
		var d Dispatch
		if err := rows.Scan(&d.ID, &d.Action, &d.Status, &d.Count, &d.Message, &d.DurationMS, &d.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// Stats returns aggregate journal counters. The total acts as the
// reachability check; the remaining counters are best-effort.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByAction: map[string]int{}}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM dispatches`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("audit: stats: %w", err)
	}
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM dispatches WHERE status = 'success'`).Scan(&stats.Successes)
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM dispatches WHERE status = 'error'`).Scan(&stats.Errors)
	_ = s.db.QueryRow(`SELECT COALESCE(MAX(created_at), '') FROM dispatches`).Scan(&stats.Last)

	rows, err := s.db.Query(`SELECT action, COUNT(*) FROM dispatches GROUP BY action ORDER BY action`)
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err == nil {
			stats.ByAction[action] = n
		}
	}

	return stats, nil
}

// Purge removes dispatches older than the given age and returns the
// number of rows deleted.
func (s *Store) Purge(olderThan time.Duration) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM dispatches WHERE datetime(created_at) < datetime('now', ?)`,
		purgeWindowExpression(olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("audit: purge: %w", err)
	}
	return res.RowsAffected()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func purgeWindowExpression(olderThan time.Duration) string {
	minutes := int(olderThan.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return "-" + strconv.Itoa(minutes) + " minutes"
}
