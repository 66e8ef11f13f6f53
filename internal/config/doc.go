// Package config loads, normalizes, and validates Reelsmith configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REELSMITH_SIGNING_SECRET. The Config type centralizes every knob the daemon
// and CLI need: blob store backend selection, publish signing, ducking
// defaults, per-agent budgets, and notification routing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
