package repo

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed-width so stored timestamps sort lexicographically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository provides access to a local SQLite database. It mirrors the
// Postgres schema with JSON stored as TEXT and is meant for development and tests.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLite opens a new connection to the SQLite database.
func NewSQLite(ctx context.Context, databasePath string, logger *slog.Logger) (*SQLiteRepository, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	r := &SQLiteRepository{
		db:     db,
		logger: logger.With("component", "repo_sqlite"),
		now:    func() time.Time { return time.Now().UTC() },
	}

	return r, nil
}

// Close releases the database connection.
func (r *SQLiteRepository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Ping ensures the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations applies schema migrations on the connected database.
func (r *SQLiteRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, filesystem, func(ctx context.Context, sql string) error {
		_, err := r.db.ExecContext(ctx, sql)
		return err
	})
}

func (r *SQLiteRepository) timestamp() string {
	return formatSQLiteTime(r.now())
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
