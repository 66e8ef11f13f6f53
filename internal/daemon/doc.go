// Package daemon coordinates the long-running Reelsmith process.
//
// It wires configuration, the blob store, the run manager, and the HTTP
// progress API into a single lifecycle with flock-based locking to prevent
// multiple daemon instances. Run intake arrives over HTTP; each accepted run
// executes on its own goroutine while steps within a run stay strictly
// sequential.
package daemon
