// Package runstate persists per-run pipeline state in the blob store and
// exposes helpers for driving its lifecycle.
//
// Two documents exist per run: the authoritative RunRecord at
// projects/{project}/runs/{run}/index.json, and the best-effort progress feed
// at projects/{project}/runs/{run}/progress.json. The record is patched with
// read-merge-write semantics (shallow outer merge, one-level-deep merge for
// voice and music metadata); the progress feed is a bounded ring of the
// newest 200 events.
//
// The blob store offers no compare-and-swap, so concurrent writers to the
// same run are last-writer-wins. Within one run the orchestrator executes
// agents strictly sequentially, which keeps the common path race-free;
// duplicate orchestrator triggers remain a documented correctness risk.
package runstate
