package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// currentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

const sqliteBackend = "sqlite"

// SQLiteStore is a durable response store backed by an embedded SQLite
// database. Write-once semantics come from the primary key plus
// INSERT OR IGNORE, so concurrent writers race benignly.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the response store at dir/responses.db.
// The dir parameter lets tests use t.TempDir() instead of a shared path.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	// Pragmas in the connection string apply to all pooled connections.
	dbPath := filepath.Join(dir, "responses.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS responses (
		  key        TEXT PRIMARY KEY,
		  body       BLOB NOT NULL,
		  fetched_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// Get returns the stored body for key, or ErrMiss.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM responses WHERE key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		CacheMisses.WithLabelValues(sqliteBackend).Inc()
		return nil, ErrMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues(sqliteBackend, "get").Inc()
		return nil, fmt.Errorf("cache get: %w", err)
	}
	CacheHits.WithLabelValues(sqliteBackend).Inc()
	return body, nil
}

// Put stores body under key. Writing an existing key is a no-op.
func (s *SQLiteStore) Put(ctx context.Context, key string, body []byte) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO responses (key, body, fetched_at) VALUES (?, ?, ?)",
		key, body, time.Now().Unix())
	if err != nil {
		CacheErrors.WithLabelValues(sqliteBackend, "put").Inc()
		return fmt.Errorf("cache put: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		CacheWriteSkips.WithLabelValues(sqliteBackend).Inc()
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
