// Package notifications delivers run lifecycle events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Ledger write failures get their own alert shape so swallowed
// accounting errors stay visible even though they never fail a run.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the simple Service interface.
package notifications
