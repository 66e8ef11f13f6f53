// Package blobstore provides the durable JSON blob storage contract the
// pipeline core runs against, plus filesystem, SQLite, and S3 backends.
//
// The contract is deliberately thin: get/set of JSON values keyed by string
// path and listing by prefix. There are no transactions and no
// compare-and-swap; writers that race get last-writer-wins semantics. Callers
// that need stronger guarantees must layer them elsewhere.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reelsmith/internal/config"
)

// ErrUnavailable reports a backend outage. The memory store returns it when
// primed with FailNextSets; durable backends wrap their own transport errors.
var ErrUnavailable = errors.New("blobstore: backend unavailable")

// ObjectInfo describes a stored blob without its value.
type ObjectInfo struct {
	Key       string
	Metadata  map[string]string
	UpdatedAt time.Time
}

// Store abstracts durable JSON blob storage.
//
// Implementations must be safe for concurrent use. Get and Head return
// (nil, nil) for missing keys; only transport or corruption failures
// surface as errors.
type Store interface {
	// Get returns the JSON value stored at key, or nil when absent.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set writes value at key, replacing any existing blob. Metadata is
	// optional and stored alongside the value.
	Set(ctx context.Context, key string, value json.RawMessage, metadata map[string]string) error

	// Head returns blob metadata without the value, or nil when absent.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// List returns the keys sharing the given prefix, lexically sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Open builds the store selected by configuration.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFS:
		return NewFS(cfg.Store.Dir)
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.Store.SQLitePath)
	case config.BackendS3:
		return NewS3(ctx, S3Config{
			Bucket:          cfg.Store.S3.Bucket,
			Region:          cfg.Store.S3.Region,
			Endpoint:        cfg.Store.S3.Endpoint,
			Profile:         cfg.Store.S3.Profile,
			AccessKeyID:     cfg.Store.S3.AccessKeyID,
			SecretAccessKey: cfg.Store.S3.SecretAccessKey,
			ForcePathStyle:  cfg.Store.S3.ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
