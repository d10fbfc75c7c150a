// Package usage keeps a local SQLite log of provider calls. It stores no
// conversation state; it exists for the stats command and status endpoint.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"weatherbot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.CallRecorder using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ domain.CallRecorder = (*SQLiteStore)(nil)

// KindStats aggregates calls for one gateway kind and outcome.
type KindStats struct {
	Kind        string         `json:"kind"`
	Outcome     domain.Outcome `json:"outcome"`
	Count       int64          `json:"count"`
	AvgDuration time.Duration  `json:"avgDuration"`
}

// CityCount is a city with the number of calls made for it.
type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
		}
		dbPath += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite; also keeps ":memory:" one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS gateway_calls (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		kind        TEXT NOT NULL,
		city        TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		detail      TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_gateway_calls_time ON gateway_calls(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one finished call.
func (s *SQLiteStore) Record(ctx context.Context, call domain.GatewayCall) error {
	at := call.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gateway_calls (kind, city, outcome, detail, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		call.Kind, call.City, string(call.Outcome), call.Detail, call.Duration.Milliseconds(), at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert gateway call: %w", err)
	}
	return nil
}

// Summary groups calls made at or after since by kind and outcome.
func (s *SQLiteStore) Summary(ctx context.Context, since time.Time) ([]KindStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, outcome, COUNT(*), CAST(AVG(duration_ms) AS INTEGER)
		 FROM gateway_calls WHERE created_at >= ?
		 GROUP BY kind, outcome ORDER BY kind, outcome`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var stats []KindStats
	for rows.Next() {
		var (
			st      KindStats
			outcome string
			avgMS   int64
		)
		if err := rows.Scan(&st.Kind, &outcome, &st.Count, &avgMS); err != nil {
			return nil, err
		}
		st.Outcome = domain.Outcome(outcome)
		st.AvgDuration = time.Duration(avgMS) * time.Millisecond
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// TopCities returns the most requested cities since the given time.
func (s *SQLiteStore) TopCities(ctx context.Context, since time.Time, limit int) ([]CityCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, COUNT(*) AS n FROM gateway_calls WHERE created_at >= ?
		 GROUP BY city ORDER BY n DESC, city ASC LIMIT ?`, since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("query top cities: %w", err)
	}
	defer rows.Close()

	var out []CityCount
	for rows.Next() {
		var c CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Recent returns the newest calls first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.GatewayCall, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, city, outcome, COALESCE(detail, ''), duration_ms, created_at
		 FROM gateway_calls ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var calls []domain.GatewayCall
	for rows.Next() {
		var (
			c           domain.GatewayCall
			outcome     string
			durMS, atMS int64
		)
		if err := rows.Scan(&c.Kind, &c.City, &outcome, &c.Detail, &durMS, &atMS); err != nil {
			return nil, err
		}
		c.Outcome = domain.Outcome(outcome)
		c.Duration = time.Duration(durMS) * time.Millisecond
		c.At = time.UnixMilli(atMS)
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// Prune deletes calls older than the cutoff and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gateway_calls WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune gateway calls: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("pruned usage log", "rows", n)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
