package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"hub/internal/models"
)

// DefaultStatuses are seeded into an empty project_statuses table.
var DefaultStatuses = []string{"Planning", "In Progress", "On Hold", "Completed"}

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger zerolog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
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

	s := &Store{
		db:     conn,
		logger: logger.With().Str("component", "sqlite").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
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
		`CREATE TABLE IF NOT EXISTS project_statuses (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL DEFAULT '',
            name TEXT NOT NULL,
            username TEXT NOT NULL UNIQUE,
            avatar_url TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS projects (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status_id INTEGER,
            progress INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
            icon TEXT NOT NULL DEFAULT '',
            is_favorite BOOLEAN NOT NULL DEFAULT 0,
            due_date DATETIME,
            archived_at DATETIME,
            deleted_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
            FOREIGN KEY(status_id) REFERENCES project_statuses(id)
        );`,
		`CREATE TABLE IF NOT EXISTS kanban_columns (
            id TEXT PRIMARY KEY,
            project_id TEXT NOT NULL,
            title TEXT NOT NULL,
            order_index INTEGER NOT NULL DEFAULT 0,
            bg_color TEXT NOT NULL DEFAULT '',
            header_bg_color TEXT NOT NULL DEFAULT '',
            dot_color TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            project_id TEXT NOT NULL,
            column_id TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            priority TEXT NOT NULL DEFAULT 'MEDIUM' CHECK (priority IN ('LOW', 'MEDIUM', 'HIGH')),
            start_date DATETIME,
            due_date DATETIME,
            order_index INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE,
            FOREIGN KEY(column_id) REFERENCES kanban_columns(id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS waitlist (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            created_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_columns_project ON kanban_columns(project_id, order_index);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, order_index);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id, order_index);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return s.seedStatuses()
}

func (s *Store) seedStatuses() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM project_statuses`).Scan(&count); err != nil {
		return fmt.Errorf("count statuses: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, name := range DefaultStatuses {
		if _, err := s.db.Exec(`INSERT INTO project_statuses(name) VALUES(?)`, name); err != nil {
			return fmt.Errorf("seed status %q: %w", name, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func newID() string {
	return uuid.NewString()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// translate maps driver errors onto the model sentinels.
func translate(err error, what string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", what, models.ErrConflict)
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%s: %s: %w", what, sqliteErr.Error(), models.ErrInvalid)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// setClause accumulates the assignments of a partial UPDATE.
type setClause struct {
	cols []string
	args []any
}

func (c *setClause) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *setClause) sql() string {
	return strings.Join(c.cols, ", ")
}

func requireRow(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}
