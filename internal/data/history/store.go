package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ErrNoRuns is returned by LatestSuccessful when no successful run exists.
var ErrNoRuns = errors.New("no successful generation run recorded")

// Run is one generation attempt.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Packages   int
	Classes    int
	Prefixes   int
	Aliases    int
	Written    []string
	Digest     string
	Status     string
	Error      string
}

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL keep watch-mode reruns from tripping over a reader.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts run, assigning an ID and timestamps when missing. It
// returns the stored ID.
func (s *Store) RecordRun(run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}
	switch run.Status {
	case StatusSuccess, StatusFailed:
	default:
		return "", fmt.Errorf("unsupported run status %q", run.Status)
	}

	query := `
INSERT INTO runs (
  id, started_at_utc, finished_at_utc, package_count, class_count, prefix_count,
  alias_count, written, digest, status, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  finished_at_utc=excluded.finished_at_utc,
  package_count=excluded.package_count,
  class_count=excluded.class_count,
  prefix_count=excluded.prefix_count,
  alias_count=excluded.alias_count,
  written=excluded.written,
  digest=excluded.digest,
  status=excluded.status,
  error=excluded.error
`
	err := s.withRetry("record run", func() error {
		_, err := s.db.Exec(
			query,
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.Packages,
			run.Classes,
			run.Prefixes,
			run.Aliases,
			strings.Join(run.Written, "\n"),
			run.Digest,
			run.Status,
			run.Error,
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

const selectRuns = `
SELECT
  id, started_at_utc, finished_at_utc, package_count, class_count, prefix_count,
  alias_count, written, digest, status, error
FROM runs
`

// LoadRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) LoadRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := selectRuns + " ORDER BY started_at_utc DESC, id DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRuns("load runs", query, args...)
}

// LatestSuccessful returns the newest successful run or ErrNoRuns.
func (s *Store) LatestSuccessful() (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.queryRuns("load latest run",
		selectRuns+" WHERE status = ? ORDER BY started_at_utc DESC, id DESC LIMIT 1", StatusSuccess)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

func (s *Store) queryRuns(op, query string, args ...any) ([]Run, error) {
	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			startedRaw string
			finishRaw  string
			written    string
		)
		if err := rows.Scan(
			&run.ID,
			&startedRaw,
			&finishRaw,
			&run.Packages,
			&run.Classes,
			&run.Prefixes,
			&run.Aliases,
			&written,
			&run.Digest,
			&run.Status,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if run.StartedAt, err = parseTime(startedRaw); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finishRaw); err != nil {
			return nil, err
		}
		if written != "" {
			run.Written = strings.Split(written, "\n")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func parseTime(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run timestamp %q: %w", raw, err)
	}
	return ts.UTC(), nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
