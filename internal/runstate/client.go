package runstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelsmith/internal/blobstore"
)

// Client reads and patches run documents in the blob store.
type Client struct {
	store blobstore.Store
	now   func() time.Time
}

// NewClient constructs a run-state client over the given store.
func NewClient(store blobstore.Store) *Client {
	return &Client{store: store, now: time.Now}
}

// Get returns the run record, or nil when no record exists.
func (c *Client) Get(ctx context.Context, projectID, runID string) (*RunRecord, error) {
	if err := validateRunIdentity(projectID, runID); err != nil {
		return nil, err
	}
	raw, err := c.store.Get(ctx, IndexKey(projectID, runID))
	if err != nil {
		return nil, fmt.Errorf("read run record: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var record RunRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("parse run record: %w", err)
	}
	return &record, nil
}

// Update applies a partial patch with read-merge-write semantics and returns
// the merged record.
//
// Update is not atomic against concurrent callers: there is no
// compare-and-swap in the store, so two concurrent patches to the same run
// are last-writer-wins on the outer document. UpdatedAt is always refreshed
// by the merge step, never supplied by the caller. When no record exists yet
// a default running record is synthesized first, so Update may implicitly
// create a run. Store failures propagate; retry policy belongs to the
// orchestrator.
func (c *Client) Update(ctx context.Context, projectID, runID string, patch Patch) (*RunRecord, error) {
	if err := validateRunIdentity(projectID, runID); err != nil {
		return nil, err
	}

	record, err := c.Get(ctx, projectID, runID)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	if record == nil {
		record = &RunRecord{
			ProjectID: projectID,
			RunID:     runID,
			Status:    StatusRunning,
			CreatedAt: now,
		}
	}

	patch.apply(record)
	if !now.After(record.UpdatedAt) {
		now = record.UpdatedAt.Add(time.Nanosecond)
	}
	record.UpdatedAt = now

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal run record: %w", err)
	}
	if err := c.store.Set(ctx, IndexKey(projectID, runID), raw, nil); err != nil {
		return nil, fmt.Errorf("write run record: %w", err)
	}
	return record, nil
}

func validateRunIdentity(projectID, runID string) error {
	if strings.TrimSpace(projectID) == "" {
		return errors.New("project id is required")
	}
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	return nil
}
