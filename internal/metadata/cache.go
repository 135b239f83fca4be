package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Cache keeps resolved lookups in the metadata_cache table. Each entry
// carries its own expiry; an expired or undecodable entry reads as a miss.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// NewCache creates a cache over db.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

// Lookup decodes the live entry for key into dst and reports whether one
// was found. A corrupt entry is dropped so the next store replaces it.
func (c *Cache) Lookup(ctx context.Context, key string, dst any) (bool, error) {
	var (
		raw     string
		expires time.Time
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM metadata_cache WHERE key = ?", key,
	).Scan(&raw, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache lookup %s: %w", key, err)
	}
	if !c.now().Before(expires) {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		if _, derr := c.db.ExecContext(ctx, "DELETE FROM metadata_cache WHERE key = ?", key); derr != nil {
			return false, fmt.Errorf("cache drop %s: %w", key, derr)
		}
		return false, nil
	}
	return true, nil
}

// Store encodes v and keeps it under key for ttl.
func (c *Cache) Store(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO metadata_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(data), c.now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("cache store %s: %w", key, err)
	}
	return nil
}

// Prune deletes expired entries and returns how many went.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM metadata_cache WHERE expires_at <= ?", c.now())
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return res.RowsAffected()
}
