package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteCache is a file-backed Store that survives process restarts.
type SQLiteCache struct {
	db    *sql.DB
	table string
	now   func() time.Time
	mu    sync.Mutex
}

// NewSQLiteCache opens (or creates) the database and its key/value table.
func NewSQLiteCache(opts ...SQLiteOption) (*SQLiteCache, error) {
	cfg := &SQLiteConfig{
		Path:  "emascan-cache.db",
		Table: "kv_cache",
		Clock: time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("sqlite cache: invalid table name %q", cfg.Table)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db, table: cfg.Table, now: cfg.Clock}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	_, err := c.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)`, c.table))
	return err
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt int64
	if expiration > 0 {
		expiresAt = c.now().Add(expiration).UnixMilli()
	}
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`, c.table),
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("sqlite cache set: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		value     []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value, expires_at FROM %s WHERE key = ?`, c.table), key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite cache get: %w", err)
	}

	if expiresAt > 0 && c.now().UnixMilli() >= expiresAt {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.table), key); err != nil {
			return nil, fmt.Errorf("sqlite cache expire: %w", err)
		}
		return nil, ErrCacheMiss
	}
	return value, nil
}

func (c *SQLiteCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.table), key); err != nil {
			return fmt.Errorf("sqlite cache delete: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
