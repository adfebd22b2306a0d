package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// fixed width so timestamps sort as text
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_videos (
	name         TEXT PRIMARY KEY,
	output       TEXT NOT NULL,
	run_id       TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL DEFAULT ''
);
`

type sqliteStore struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the state database at path.
func Open(ctx context.Context, path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{db: db, path: path}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Processed(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, output FROM processed_videos`)
	if err != nil {
		return nil, fmt.Errorf("query processed videos: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, output string
		if err := rows.Scan(&name, &output); err != nil {
			return nil, fmt.Errorf("scan processed video: %w", err)
		}
		out[name] = output
	}
	return out, rows.Err()
}

func (s *sqliteStore) MarkProcessed(ctx context.Context, name, output, runID string) error {
	return s.execWithRetry(ctx,
		`INSERT INTO processed_videos (name, output, run_id, processed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET output = excluded.output, run_id = excluded.run_id, processed_at = excluded.processed_at`,
		name, output, runID, now())
}

func (s *sqliteStore) BeginRun(ctx context.Context, runID, command string) error {
	return s.execWithRetry(ctx,
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, command, string(RunRunning), now())
}

func (s *sqliteStore) FinishRun(ctx context.Context, runID string, status RunStatus, detail string) error {
	return s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, detail = ?, finished_at = ? WHERE id = ?`,
		string(status), detail, now(), runID)
}

func (s *sqliteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, status, detail, started_at, finished_at FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                   Run
			status              string
			started, finishedAt string
		)
		if err := rows.Scan(&r.ID, &r.Command, &status, &r.Detail, &started, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = RunStatus(status)
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finishedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
