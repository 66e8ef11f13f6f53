// Package pipeline drives one production run through its agent sequence.
//
// The manager executes agents strictly in order. After each agent it patches
// the run record, appends a progress event, and feeds the agent's declared
// base cost into the ledger. The quality gate runs before publishing; gate
// errors fail the run. Job-packet writes are failure-tolerant and never
// abort a run. There are no retries and no cancellation beyond the caller's
// context.
package pipeline
