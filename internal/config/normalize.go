package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeDucking()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}

	var err error
	if strings.TrimSpace(c.Store.Dir) == "" {
		c.Store.Dir = filepath.Join(c.Paths.DataDir, "store")
	}
	if c.Store.Dir, err = expandPath(c.Store.Dir); err != nil {
		return fmt.Errorf("store.dir: %w", err)
	}
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = filepath.Join(c.Paths.DataDir, "store.db")
	}
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}

	c.Store.S3.Bucket = strings.TrimSpace(c.Store.S3.Bucket)
	c.Store.S3.Region = strings.TrimSpace(c.Store.S3.Region)
	c.Store.S3.Endpoint = strings.TrimSpace(c.Store.S3.Endpoint)
	if c.Store.S3.AccessKeyID == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.Store.S3.AccessKeyID = value
		}
	}
	if c.Store.S3.SecretAccessKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.Store.S3.SecretAccessKey = value
		}
	}
	return nil
}

func (c *Config) normalizePublish() error {
	c.Publish.BaseURL = strings.TrimRight(strings.TrimSpace(c.Publish.BaseURL), "/")
	if c.Publish.SigningSecret == "" {
		if value, ok := os.LookupEnv("REELSMITH_SIGNING_SECRET"); ok {
			c.Publish.SigningSecret = value
		}
	}
	if c.Publish.ExpiryHours <= 0 {
		c.Publish.ExpiryHours = defaultPublishExpiry
	}
	var err error
	if strings.TrimSpace(c.Publish.LocalDir) == "" {
		c.Publish.LocalDir = defaultLocalServePath
	}
	if c.Publish.LocalDir, err = expandPath(c.Publish.LocalDir); err != nil {
		return fmt.Errorf("publish.local_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDucking() {
	if c.Ducking.NarrationVolume <= 0 {
		c.Ducking.NarrationVolume = defaultNarrationVolume
	}
	if c.Ducking.GapVolume <= 0 {
		c.Ducking.GapVolume = defaultGapVolume
	}
	if c.Ducking.AttackMs <= 0 {
		c.Ducking.AttackMs = defaultAttackMs
	}
	if c.Ducking.ReleaseMs <= 0 {
		c.Ducking.ReleaseMs = defaultReleaseMs
	}
	if c.Ducking.MinGapDuration <= 0 {
		c.Ducking.MinGapDuration = defaultMinGapDuration
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
