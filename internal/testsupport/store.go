package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/config"
)

// MustOpenStore opens the configured blob store for tests and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) blobstore.Store {
	t.Helper()

	store, err := blobstore.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedBlob marshals value and writes it under key.
func SeedBlob(t testing.TB, store blobstore.Store, key string, value any, metadata map[string]string) {
	t.Helper()

	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal blob %s: %v", key, err)
	}
	if err := store.Set(context.Background(), key, raw, metadata); err != nil {
		t.Fatalf("seed blob %s: %v", key, err)
	}
}
