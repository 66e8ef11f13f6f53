package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateDucking(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendFS, BackendSQLite:
		return nil
	case BackendS3:
		if c.Store.S3.Bucket == "" {
			return errors.New("store.s3.bucket must be set when store.backend is \"s3\"")
		}
		if c.Store.S3.AccessKeyID != "" && c.Store.S3.SecretAccessKey == "" {
			return errors.New("store.s3.secret_access_key must be set when store.s3.access_key_id is set")
		}
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (expected fs, sqlite, or s3)", c.Store.Backend)
	}
}

func (c *Config) validateDucking() error {
	if c.Ducking.NarrationVolume > 1 || c.Ducking.GapVolume > 1 {
		return errors.New("ducking volumes are linear gains and must not exceed 1.0")
	}
	if c.Ducking.NarrationVolume >= c.Ducking.GapVolume {
		return errors.New("ducking.narration_volume must sit below ducking.gap_volume")
	}
	return nil
}

func (c *Config) validatePricing() error {
	for agent, budget := range c.Pricing.Budgets {
		if budget < 0 {
			return fmt.Errorf("pricing.budgets[%q] must not be negative", agent)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must not be empty")
	}
	return nil
}
