package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// PacketPublic is the accounting-visible half of a job packet. It never
// carries pricing detail.
type PacketPublic struct {
	JobType string          `json:"job_type"`
	Agent   string          `json:"agent"`
	Status  string          `json:"status"`
	RunID   string          `json:"run_id"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// CostBreakdown is the priced view of one job.
type CostBreakdown struct {
	BaseCost float64 `json:"base_cost"`
	Markup   float64 `json:"markup"`
	TotalDue float64 `json:"total_due"`
}

// PacketPrivate holds the confidential half of a job packet: pricing,
// failure detail, and reviewer feedback.
type PacketPrivate struct {
	Cost     CostBreakdown `json:"cost"`
	Variance float64       `json:"variance,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration float64       `json:"duration_seconds,omitempty"`
	Feedback string        `json:"feedback,omitempty"`
}

// JobPacket is the persisted record of one agent job, split into a public
// half and a private half.
type JobPacket struct {
	PacketID   string        `json:"packet_id"`
	RecordedAt time.Time     `json:"recorded_at"`
	Public     PacketPublic  `json:"public"`
	Private    PacketPrivate `json:"private"`
}

// Receipt reports the outcome of a vault write. A failed write still
// returns a receipt; it never propagates as a pipeline error.
type Receipt struct {
	OK       bool   `json:"ok"`
	PacketID string `json:"packet_id"`
	Error    string `json:"error,omitempty"`
}

// AlertFunc is invoked whenever a vault write fails.
type AlertFunc func(ctx context.Context, runID, agent string, err error)

// Vault persists job packets and answers cost queries. Run cost is always
// recomputed from the stored packets, never cached.
type Vault struct {
	store    blobstore.Store
	logger   *slog.Logger
	now      func() time.Time
	alert    AlertFunc
	failures atomic.Int64
}

// NewVault returns a vault backed by store. alert may be nil.
func NewVault(store blobstore.Store, logger *slog.Logger, alert AlertFunc) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{
		store:  store,
		logger: logger.With(logging.FieldComponent, "ledger"),
		now:    time.Now,
		alert:  alert,
	}
}

func packetKey(runID, agent string, recordedAt time.Time) string {
	return fmt.Sprintf("job_packets/%s/%s-%d.json", runID, agent, recordedAt.UnixMilli())
}

// RecordJobPacket writes a job packet for the run. Storage failures are
// logged, counted, and reported through the alert hook, but the returned
// error is always nil so accounting problems cannot fail a render.
func (v *Vault) RecordJobPacket(ctx context.Context, runID string, public PacketPublic, private PacketPrivate) Receipt {
	now := v.now().UTC()
	public.RunID = runID
	private.Cost = CostBreakdown{
		BaseCost: round4(private.Cost.BaseCost),
		Markup:   round4(private.Cost.Markup),
		TotalDue: round4(private.Cost.TotalDue),
	}
	packet := JobPacket{
		PacketID:   fmt.Sprintf("%s-%s-%d", runID, public.Agent, now.UnixMilli()),
		RecordedAt: now,
		Public:     public,
		Private:    private,
	}

	payload, err := json.Marshal(packet)
	if err == nil {
		err = v.store.Set(ctx, packetKey(runID, public.Agent, now), payload, map[string]string{
			"run_id": runID,
			"agent":  public.Agent,
		})
	}
	if err != nil {
		v.failures.Add(1)
		v.logger.ErrorContext(ctx, "job packet write failed",
			logging.FieldRunID, runID,
			logging.FieldAgent, public.Agent,
			logging.FieldEventType, "ledger_write_failed",
			"error", err)
		if v.alert != nil {
			v.alert(ctx, runID, public.Agent, err)
		}
		return Receipt{OK: false, PacketID: packet.PacketID, Error: err.Error()}
	}

	return Receipt{OK: true, PacketID: packet.PacketID}
}

// FailureCount reports how many packet writes have failed since the vault
// was created.
func (v *Vault) FailureCount() int64 {
	return v.failures.Load()
}

// GetRunCost recomputes the run's total cost by reading every stored packet
// under the run's prefix and summing the private cost breakdowns.
func (v *Vault) GetRunCost(ctx context.Context, runID string) (CostBreakdown, error) {
	keys, err := v.store.List(ctx, fmt.Sprintf("job_packets/%s/", runID))
	if err != nil {
		return CostBreakdown{}, services.Wrap(services.ErrStoreUnavailable, "ledger", "get-run-cost", "list job packets", err)
	}

	var total CostBreakdown
	for _, key := range keys {
		raw, err := v.store.Get(ctx, key)
		if err != nil {
			return CostBreakdown{}, services.Wrap(services.ErrStoreUnavailable, "ledger", "get-run-cost", fmt.Sprintf("read packet %s", key), err)
		}
		if raw == nil {
			continue
		}
		var packet JobPacket
		if err := json.Unmarshal(raw, &packet); err != nil {
			return CostBreakdown{}, services.Wrap(services.ErrValidation, "ledger", "get-run-cost", fmt.Sprintf("decode packet %s", key), err)
		}
		total.BaseCost += packet.Private.Cost.BaseCost
		total.Markup += packet.Private.Cost.Markup
		total.TotalDue += packet.Private.Cost.TotalDue
	}

	total.BaseCost = round4(total.BaseCost)
	total.Markup = round4(total.Markup)
	total.TotalDue = round4(total.TotalDue)
	return total, nil
}

// ListPackets returns the run's stored packets ordered by key.
func (v *Vault) ListPackets(ctx context.Context, runID string) ([]JobPacket, error) {
	keys, err := v.store.List(ctx, fmt.Sprintf("job_packets/%s/", runID))
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "ledger", "list-packets", "list job packets", err)
	}
	packets := make([]JobPacket, 0, len(keys))
	for _, key := range keys {
		raw, err := v.store.Get(ctx, key)
		if err != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "ledger", "list-packets", fmt.Sprintf("read packet %s", key), err)
		}
		if raw == nil {
			continue
		}
		var packet JobPacket
		if err := json.Unmarshal(raw, &packet); err != nil {
			return nil, services.Wrap(services.ErrValidation, "ledger", "list-packets", fmt.Sprintf("decode packet %s", key), err)
		}
		packets = append(packets, packet)
	}
	return packets, nil
}
