package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELSMITH_SIGNING_SECRET", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "reelsmith")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7319" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Store.Backend != config.BackendFS {
		t.Fatalf("unexpected store backend: %q", cfg.Store.Backend)
	}
	if cfg.Store.Dir != filepath.Join(wantData, "store") {
		t.Fatalf("unexpected store dir: %q", cfg.Store.Dir)
	}
	if cfg.Publish.ExpiryHours != 24 {
		t.Fatalf("unexpected publish expiry: %d", cfg.Publish.ExpiryHours)
	}
	if cfg.Ducking.NarrationVolume != 0.316 || cfg.Ducking.GapVolume != 0.708 {
		t.Fatalf("unexpected ducking defaults: %+v", cfg.Ducking)
	}
	if cfg.Ducking.MinGapDuration != 0.5 {
		t.Fatalf("unexpected min gap duration: %v", cfg.Ducking.MinGapDuration)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadReadsTOMLAndEnvFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELSMITH_SIGNING_SECRET", "env-secret")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`api_bind = "127.0.0.1:9001"`,
		"[store]",
		`backend = "sqlite"`,
		"[publish]",
		`base_url = "https://media.example.com/"`,
		"[pricing.budgets]",
		"voice_synth = 0.30",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Paths.APIBind != "127.0.0.1:9001" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Store.Backend != config.BackendSQLite {
		t.Fatalf("unexpected backend: %q", cfg.Store.Backend)
	}
	if cfg.Publish.SigningSecret != "env-secret" {
		t.Fatalf("expected signing secret from env, got %q", cfg.Publish.SigningSecret)
	}
	if cfg.Publish.BaseURL != "https://media.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Publish.BaseURL)
	}
	if cfg.Pricing.Budgets["voice_synth"] != 0.30 {
		t.Fatalf("unexpected budgets: %+v", cfg.Pricing.Budgets)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown backend",
			mutate: func(c *config.Config) { c.Store.Backend = "redis" },
			want:   "store.backend",
		},
		{
			name:   "s3 without bucket",
			mutate: func(c *config.Config) { c.Store.Backend = config.BackendS3 },
			want:   "store.s3.bucket",
		},
		{
			name: "narration above gap",
			mutate: func(c *config.Config) {
				c.Ducking.NarrationVolume = 0.9
				c.Ducking.GapVolume = 0.5
			},
			want: "narration_volume",
		},
		{
			name: "negative budget",
			mutate: func(c *config.Config) {
				c.Pricing.Budgets = map[string]float64{"music": -1}
			},
			want: "pricing.budgets",
		},
		{
			name:   "bad log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Logging.Format = "console"
			cfg.Logging.Level = "info"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Backend = config.BackendFS
	cfg.Store.Dir = filepath.Join(base, "data", "store")
	cfg.Publish.LocalDir = filepath.Join(base, "artifacts")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Store.Dir, cfg.Publish.LocalDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q", dir)
		}
	}
}
