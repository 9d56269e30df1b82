// Package history persists lint snapshots in sqlite so watch mode can show
// how a project's finding counts trend between passes.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"solnav/internal/core/ports"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
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

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
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

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(ctx context.Context, snap ports.LintSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey := strings.TrimSpace(snap.ProjectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	query := `
INSERT INTO lint_snapshots (
  project_key, schema_version, ts_utc, file_count, error_count, warning_count
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, ts_utc) DO UPDATE SET
  schema_version=excluded.schema_version,
  file_count=excluded.file_count,
  error_count=excluded.error_count,
  warning_count=excluded.warning_count
`
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			projectKey,
			SchemaVersion,
			time.Now().UTC().Format(time.RFC3339Nano),
			snap.Files,
			snap.Errors,
			snap.Warnings,
		)
		return err
	})
}

// LastSnapshot returns the most recent snapshot for a project, or nil when
// none was recorded yet.
func (s *Store) LastSnapshot(ctx context.Context, projectKey string) (*ports.LintSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	query := `
SELECT project_key, file_count, error_count, warning_count
FROM lint_snapshots
WHERE project_key = ?
ORDER BY ts_utc DESC
LIMIT 1
`
	var snap ports.LintSnapshot
	err := s.withRetry("load snapshot", func() error {
		row := s.db.QueryRowContext(ctx, query, projectKey)
		return row.Scan(&snap.ProjectKey, &snap.Files, &snap.Errors, &snap.Warnings)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
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

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

var _ ports.HistoryStore = (*Store)(nil)
