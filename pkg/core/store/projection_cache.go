package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property_projection/pkg/models"
)

// CacheEntry is one memoized projection run.
type CacheEntry struct {
	Key         string                    `json:"key"`
	RunID       string                    `json:"run_id"`
	PropertyID  string                    `json:"property_id,omitempty"`
	Projections []models.YearlyProjection `json:"projections"`
	KPIs        models.KPIs               `json:"kpis"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// ProjectionCache stores projection runs by input hash.
// Database is primary when a pool is set; the file directory is the fallback.
type ProjectionCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewProjectionCache creates a cache. With neither pool nor dir it defaults
// to .cache/projections.
func NewProjectionCache(pool *pgxpool.Pool, dir string) (*ProjectionCache, error) {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "projections")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &ProjectionCache{pool: pool, fileDir: dir}, nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Get returns the cached entry or ErrNotFound.
func (c *ProjectionCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	if !keyPattern.MatchString(key) {
		return nil, fmt.Errorf("invalid cache key %q", key)
	}

	if c.pool != nil {
		var raw []byte
		err := c.pool.QueryRow(ctx, `SELECT result FROM projection_runs WHERE cache_key = $1`, key).Scan(&raw)
		switch {
		case err == nil:
			var entry CacheEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return nil, fmt.Errorf("failed to unmarshal db cached run: %w", err)
			}
			return &entry, nil
		case errors.Is(err, pgx.ErrNoRows):
			// fall through to file
		default:
			return nil, fmt.Errorf("query cached run: %w", err)
		}
	}

	if c.fileDir == "" {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cached run: %w", err)
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file cached run: %w", err)
	}
	return &entry, nil
}

// Save stores an entry under entry.Key in every configured backend.
func (c *ProjectionCache) Save(ctx context.Context, entry *CacheEntry) error {
	if !keyPattern.MatchString(entry.Key) {
		return fmt.Errorf("invalid cache key %q", entry.Key)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	if c.pool != nil {
		_, err := c.pool.Exec(ctx, `
			INSERT INTO projection_runs (cache_key, property_id, run_id, result, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cache_key)
			DO UPDATE SET result = EXCLUDED.result, run_id = EXCLUDED.run_id, created_at = EXCLUDED.created_at
		`, entry.Key, entry.PropertyID, entry.RunID, data, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save to db cache: %w", err)
		}
	}

	if c.fileDir != "" {
		tmp := c.path(entry.Key) + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("failed to save to file cache: %w", err)
		}
		if err := os.Rename(tmp, c.path(entry.Key)); err != nil {
			return fmt.Errorf("failed to save to file cache: %w", err)
		}
	}
	return nil
}

func (c *ProjectionCache) path(key string) string {
	return filepath.Join(c.fileDir, key+".json")
}
