package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Store.Dir = filepath.Join(base, "store")
	cfgVal.Publish.SigningSecret = "test-secret"
	cfgVal.Publish.LocalDir = filepath.Join(base, "artifacts")

	for _, dir := range []string{cfgVal.Paths.DataDir, cfgVal.Paths.LogDir, cfgVal.Store.Dir, cfgVal.Publish.LocalDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create test directory %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStoreBackend selects the blob store backend on the test config. The
// sqlite backend gets a database path under the test temp directory.
func WithStoreBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
		if backend == config.BackendSQLite {
			b.cfg.Store.SQLitePath = filepath.Join(b.baseDir, "store.db")
		}
	}
}

// WithSigningSecret overrides the publish signing secret.
func WithSigningSecret(secret string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.SigningSecret = secret
	}
}

// WithNtfyTopic points notifications at the given endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
