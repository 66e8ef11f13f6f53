// Package ledger owns render accounting: per-agent cost line items with the
// fixed 20% markup, immutable invoices, and the job-packet vault that writes
// one auditable record per agent execution to the blob store.
//
// Vault writes are deliberately failure-tolerant. Financial audit logging
// must never block user-facing delivery, so a failed packet write is logged,
// counted, and surfaced through the alert hook instead of aborting the
// pipeline. Run cost is always recomputed from the stored packets; the store
// offers no read-after-write guarantee across regions, so nothing here is
// cached.
package ledger
