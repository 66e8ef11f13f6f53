package blobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores blobs in a single-file database. Suited to local single-host
// deployments where the fs backend's many small files are unwanted.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite initializes or connects to the blob database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("blobstore: sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLite{db: db, path: path}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		metadata TEXT,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("init blob schema: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

func (s *SQLite) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	var metadata sql.NullString
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT metadata, updated_at FROM blobs WHERE key = ?`, key).Scan(&metadata, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("head blob %s: %w", key, err)
	}

	info := &ObjectInfo{Key: key}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &info.Metadata); err != nil {
			return nil, fmt.Errorf("parse blob metadata %s: %w", key, err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		info.UpdatedAt = ts
	}
	return info, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value json.RawMessage, metadata map[string]string) error {
	var metaJSON any
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal blob metadata: %w", err)
		}
		metaJSON = string(b)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, metadata, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			metadata=excluded.metadata,
			updated_at=excluded.updated_at
	`, key, []byte(value), metaJSON, now)
	if err != nil {
		return fmt.Errorf("set blob %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM blobs WHERE key >= ? AND key < ? ORDER BY key`,
		prefix, prefix+"￿")
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
