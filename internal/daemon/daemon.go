package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelsmith/internal/blobstore"
	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/publish"
	"reelsmith/internal/runstate"
)

// Daemon coordinates run execution and enforces single-instance operation.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    blobstore.Store
	runs     *runstate.Client
	vault    *ledger.Vault
	manager  *pipeline.Manager
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running    atomic.Bool
	activeRuns atomic.Int64
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running             bool          `json:"running"`
	StoreBackend        string        `json:"store_backend"`
	LockFilePath        string        `json:"lock_file_path"`
	ActiveRuns          int64         `json:"active_runs"`
	LedgerWriteFailures int64         `json:"ledger_write_failures"`
	Tools               []deps.Status `json:"tools"`
}

// New constructs a daemon with initialized dependencies. agents may be nil
// to use the placeholder dev sequence.
func New(cfg *config.Config, store blobstore.Store, logger *slog.Logger, agents []pipeline.Agent) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.FieldComponent, "daemon")

	notifier := notifications.NewService(cfg)
	runs := runstate.NewClient(store)
	vault := ledger.NewVault(store, logger, func(ctx context.Context, runID, agent string, err error) {
		if alertErr := notifier.NotifyLedgerWriteFailure(ctx, runID, agent, err); alertErr != nil {
			logger.Warn("ledger alert delivery failed", logging.Error(alertErr))
		}
	})

	signer, err := publish.NewSigner(cfg.Publish.SigningSecret, store, cfg.Publish.BaseURL, cfg.Publish.LocalDir)
	if err != nil {
		return nil, err
	}

	if agents == nil {
		agents = pipeline.PlaceholderAgents(cfg)
	}
	manager := pipeline.NewManager(cfg, runs, vault, signer, notifier, logger, agents)

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelsmithd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		runs:     runs,
		vault:    vault,
		manager:  manager,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("reelsmith daemon started", "lock", d.lockPath)
	return nil
}

// Stop shuts down the API, waits for in-flight runs, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelsmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// StartRun accepts a new run and executes it on its own goroutine. Steps
// within a run stay strictly sequential; runs do not coordinate with each
// other.
func (d *Daemon) StartRun(ctx context.Context, projectID string, photos []string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", errors.New("project id is required")
	}
	if !d.running.Load() {
		return "", errors.New("daemon is not running")
	}

	runID := uuid.NewString()
	queued := runstate.StatusQueued
	if _, err := d.runs.Update(ctx, projectID, runID, runstate.Patch{Status: &queued}); err != nil {
		return "", fmt.Errorf("queue run: %w", err)
	}
	d.writeAuditEvent(ctx, "run_accepted", map[string]any{
		"project_id": projectID,
		"run_id":     runID,
		"photos":     len(photos),
	})

	d.activeRuns.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.activeRuns.Add(-1)

		runCtx := d.ctx
		if runCtx == nil {
			runCtx = context.Background()
		}
		if _, err := d.manager.Execute(runCtx, projectID, runID, photos); err != nil {
			d.writeAuditEvent(runCtx, "run_failed", map[string]any{
				"project_id": projectID,
				"run_id":     runID,
				"error":      err.Error(),
			})
			return
		}
		d.writeAuditEvent(runCtx, "run_finished", map[string]any{
			"project_id": projectID,
			"run_id":     runID,
		})
	}()

	d.logger.Info("run accepted",
		logging.FieldProjectID, projectID,
		logging.FieldRunID, runID,
		"photos", len(photos))
	return runID, nil
}

// Run returns the current run record, or nil when it does not exist.
func (d *Daemon) Run(ctx context.Context, projectID, runID string) (*runstate.RunRecord, error) {
	return d.runs.Get(ctx, projectID, runID)
}

// Progress returns the run's progress feed.
func (d *Daemon) Progress(ctx context.Context, projectID, runID string) ([]runstate.ProgressEvent, error) {
	return d.runs.ReadProgress(ctx, projectID, runID)
}

// RunCost recomputes the run's cost from its stored job packets.
func (d *Daemon) RunCost(ctx context.Context, runID string) (ledger.CostBreakdown, error) {
	return d.vault.GetRunCost(ctx, runID)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// APIAddr returns the bound API listen address, or "" when the API is
// disabled or not started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:             d.running.Load(),
		StoreBackend:        d.cfg.Store.Backend,
		LockFilePath:        d.lockPath,
		ActiveRuns:          d.activeRuns.Load(),
		LedgerWriteFailures: d.vault.FailureCount(),
		Tools:               deps.CheckBinaries(deps.Rendering()),
	}
}

// writeAuditEvent persists a council audit event. Audit writes are best
// effort; a failure is logged and the triggering operation proceeds.
func (d *Daemon) writeAuditEvent(ctx context.Context, kind string, payload map[string]any) {
	payload["kind"] = kind
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	raw, err := json.Marshal(payload)
	if err == nil {
		key := fmt.Sprintf("council_events/%s-%d.json", kind, time.Now().UnixMilli())
		err = d.store.Set(ctx, key, raw, map[string]string{"kind": kind})
	}
	if err != nil {
		d.logger.Warn("audit event write failed", "kind", kind, logging.Error(err))
	}
}
