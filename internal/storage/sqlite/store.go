package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tracker/internal/storage"
)

// timeLayout is fixed width so stored timestamps compare lexically in
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps access to the SQLite database and implements storage.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("database ready", slog.String("path", dbPath))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            color TEXT NOT NULL DEFAULT '#2563eb',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            text TEXT NOT NULL,
            frequency TEXT,
            completed INTEGER NOT NULL DEFAULT 0,
            duration_seconds INTEGER,
            timer_status TEXT NOT NULL DEFAULT 'not_started',
            timer_started_at TEXT,
            project_id TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE TABLE IF NOT EXISTS task_completions (
            id TEXT PRIMARY KEY,
            task_id TEXT NOT NULL,
            completed_at TEXT NOT NULL,
            FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_completions_task_time ON task_completions(task_id, completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_completions_time ON task_completions(completed_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
