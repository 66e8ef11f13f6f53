package runstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// progressCapacity bounds the per-run progress feed. Once full, the oldest
// events are dropped; consumers must tolerate gaps.
const progressCapacity = 200

// ProgressEvent is one entry in a run's best-effort progress feed. The feed
// is a UX surface only; the RunRecord stays authoritative for final state.
type ProgressEvent struct {
	Agent     string         `json:"agent"`
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Progress  float64        `json:"progress,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AppendProgress appends an event to the run's feed and returns the stored
// events.
//
// This is an O(n) read-modify-write: the full feed is loaded, the event
// pushed, the slice truncated to the newest entries, and the result written
// back. Concurrent appends from separate processes can silently drop one
// writer's entry; the feed trades delivery guarantees for simplicity.
func (c *Client) AppendProgress(ctx context.Context, projectID, runID string, event ProgressEvent) ([]ProgressEvent, error) {
	if err := validateRunIdentity(projectID, runID); err != nil {
		return nil, err
	}

	events, err := c.ReadProgress(ctx, projectID, runID)
	if err != nil {
		return nil, err
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = c.now().UTC()
	}
	events = append(events, event)
	if len(events) > progressCapacity {
		events = events[len(events)-progressCapacity:]
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshal progress feed: %w", err)
	}
	if err := c.store.Set(ctx, ProgressKey(projectID, runID), raw, nil); err != nil {
		return nil, fmt.Errorf("write progress feed: %w", err)
	}
	return events, nil
}

// ReadProgress returns the run's progress feed. A missing feed is an empty
// slice, never an error.
func (c *Client) ReadProgress(ctx context.Context, projectID, runID string) ([]ProgressEvent, error) {
	if err := validateRunIdentity(projectID, runID); err != nil {
		return nil, err
	}
	raw, err := c.store.Get(ctx, ProgressKey(projectID, runID))
	if err != nil {
		return nil, fmt.Errorf("read progress feed: %w", err)
	}
	if raw == nil {
		return []ProgressEvent{}, nil
	}
	var events []ProgressEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("parse progress feed: %w", err)
	}
	return events, nil
}
