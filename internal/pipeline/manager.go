package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/config"
	"reelsmith/internal/ledger"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/publish"
	"reelsmith/internal/qualitygate"
	"reelsmith/internal/runstate"
	"reelsmith/internal/services"
)

// Outcome is the result of one completed run.
type Outcome struct {
	Record    *runstate.RunRecord
	Invoice   ledger.Invoice
	Published publish.Published
}

// Manager coordinates the agent sequence for individual runs.
type Manager struct {
	cfg      *config.Config
	runs     *runstate.Client
	vault    *ledger.Vault
	signer   *publish.Signer
	notifier notifications.Service
	logger   *slog.Logger
	agents   []Agent
}

// NewManager constructs a run manager. agents execute in slice order; the
// last agent is expected to produce the final video artifact.
func NewManager(cfg *config.Config, runs *runstate.Client, vault *ledger.Vault, signer *publish.Signer, notifier notifications.Service, logger *slog.Logger, agents []Agent) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:      cfg,
		runs:     runs,
		vault:    vault,
		signer:   signer,
		notifier: notifier,
		logger:   logger.With(logging.FieldComponent, "pipeline"),
		agents:   agents,
	}
}

// Execute runs the full agent sequence for one run and returns the signed
// publish outcome. The run record is created implicitly by the first status
// patch if it does not exist yet.
func (m *Manager) Execute(ctx context.Context, projectID, runID string, photos []string) (*Outcome, error) {
	ctx = services.WithRun(ctx, projectID, runID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)
	runStart := time.Now()

	run := &Run{ProjectID: projectID, RunID: runID, Photos: photos}
	gen := ledger.NewManifestGenerator()

	if err := m.patchStatus(ctx, run, runstate.StatusRunning, ""); err != nil {
		return nil, err
	}
	if err := m.notifier.NotifyRunStarted(ctx, projectID, runID); err != nil {
		logger.Warn("run started notification failed", logging.Error(err))
	}
	logger.Info("run started",
		logging.FieldEventType, "run_start",
		"agents", len(m.agents),
		"photos", len(photos))

	for _, agent := range m.agents {
		if err := m.executeAgent(ctx, run, gen, agent); err != nil {
			m.failRun(ctx, run, agent.Name(), err)
			return nil, err
		}
	}

	if err := m.inspectBundle(ctx, run); err != nil {
		m.failRun(ctx, run, "quality-gate", err)
		return nil, err
	}

	published, err := m.publishRun(ctx, run)
	if err != nil {
		m.failRun(ctx, run, "publish", err)
		return nil, err
	}

	invoice := gen.Generate(runID)
	if err := m.patchStatus(ctx, run, runstate.StatusCompleted, ""); err != nil {
		return nil, err
	}
	m.appendProgress(ctx, run, runstate.ProgressEvent{
		Agent:    "publish",
		Status:   "completed",
		Message:  fmt.Sprintf("published %s", published.Mode),
		Progress: 100,
	})

	wiped := publish.FlushCredentials(m.logger)
	if err := m.notifier.NotifyRunCompleted(ctx, projectID, runID, invoice.TotalDue); err != nil {
		logger.Warn("run completed notification failed", logging.Error(err))
	}
	logger.Info("run completed",
		logging.FieldEventType, "run_complete",
		"total_due", invoice.TotalDue,
		"credentials_wiped", wiped,
		"run_duration", time.Since(runStart))

	return &Outcome{Record: run.Record, Invoice: invoice, Published: published}, nil
}

func (m *Manager) executeAgent(ctx context.Context, run *Run, gen *ledger.ManifestGenerator, agent Agent) error {
	ctx = services.WithAgent(ctx, agent.Name())
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()
	logger.Info("agent started", logging.FieldEventType, "agent_start")

	result, err := agent.Execute(ctx, run)
	duration := time.Since(start)
	if err != nil {
		m.recordPacket(ctx, run, agent.Name(), "failed", ledger.CostBreakdown{}, 0, duration, err)
		return err
	}
	if result == nil {
		result = &AgentResult{}
	}

	record, err := m.runs.Update(ctx, run.ProjectID, run.RunID, result.Patch)
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, agent.Name(), "patch-run", "persist agent result", err)
	}
	run.Record = record
	result.Bundle.apply(&run.Bundle)

	m.appendProgress(ctx, run, runstate.ProgressEvent{
		Agent:    agent.Name(),
		Status:   "completed",
		Message:  result.Summary,
		Progress: result.Progress,
	})

	cost := ledger.CostBreakdown{}
	variance := 0.0
	if result.BaseCost > 0 {
		item, err := gen.AddEntry(agent.Name(), result.Summary, result.BaseCost)
		if err != nil {
			return services.Wrap(services.ErrValidation, agent.Name(), "add-cost", "record cost line item", err)
		}
		cost = ledger.CostBreakdown{BaseCost: item.BaseCost, Markup: item.Markup, TotalDue: item.Total}
		if budget, ok := m.cfg.Pricing.Budgets[agent.Name()]; ok && budget > 0 {
			variance = result.BaseCost - budget
			if variance > 0 {
				logger.Warn("agent cost over budget",
					"base_cost", result.BaseCost,
					"budget", budget,
					"variance", variance)
			}
		}
	}
	m.recordPacket(ctx, run, agent.Name(), "completed", cost, variance, duration, nil)

	logger.Info("agent completed",
		logging.FieldEventType, "agent_complete",
		"base_cost", result.BaseCost,
		"agent_duration", duration)
	return nil
}

// inspectBundle runs the quality gate over the accumulated outputs. The
// gate is advisory to run state; the manager is what turns gate errors into
// a failed run.
func (m *Manager) inspectBundle(ctx context.Context, run *Run) error {
	result := qualitygate.Inspect(run.Bundle)
	logger := logging.WithContext(ctx, m.logger)
	for _, warning := range result.Warnings {
		logger.Warn("quality gate warning", "finding", warning)
	}
	if result.Passed {
		return nil
	}
	return services.Wrap(services.ErrValidation, "quality-gate", "inspect",
		strings.Join(result.Errors, "; "), nil)
}

func (m *Manager) publishRun(ctx context.Context, run *Run) (publish.Published, error) {
	expiry := m.cfg.Publish.ExpiryHours
	published, err := m.signer.PublishVideo(ctx, run.Bundle.VideoURL, expiry)
	if err != nil {
		return publish.Published{}, err
	}
	return published, nil
}

// patchStatus writes a status change, consulting the forward-only rule
// first. A violating transition is logged and skipped rather than written.
func (m *Manager) patchStatus(ctx context.Context, run *Run, status runstate.Status, message string) error {
	if run.Record != nil && !runstate.CanTransition(run.Record.Status, status) {
		logging.WithContext(ctx, m.logger).Warn("refusing backward status transition",
			"from", string(run.Record.Status),
			"to", string(status))
		return nil
	}

	patch := runstate.Patch{Status: &status}
	if message != "" {
		patch.Error = &message
	}
	record, err := m.runs.Update(ctx, run.ProjectID, run.RunID, patch)
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "pipeline", "patch-status",
			fmt.Sprintf("set status %s", status), err)
	}
	run.Record = record
	return nil
}

func (m *Manager) appendProgress(ctx context.Context, run *Run, event runstate.ProgressEvent) {
	if _, err := m.runs.AppendProgress(ctx, run.ProjectID, run.RunID, event); err != nil {
		logging.WithContext(ctx, m.logger).Warn("progress append failed", logging.Error(err))
	}
}

func (m *Manager) recordPacket(ctx context.Context, run *Run, agent, status string, cost ledger.CostBreakdown, variance float64, duration time.Duration, cause error) {
	private := ledger.PacketPrivate{Cost: cost, Variance: variance, Duration: duration.Seconds()}
	if cause != nil {
		private.Error = cause.Error()
	}
	receipt := m.vault.RecordJobPacket(ctx, run.RunID, ledger.PacketPublic{
		JobType: "render",
		Agent:   agent,
		Status:  status,
	}, private)
	if !receipt.OK {
		logging.WithContext(ctx, m.logger).Warn("job packet not persisted",
			"packet_id", receipt.PacketID,
			"write_error", receipt.Error)
	}
}

// failRun marks the run failed, records the cause, and emits the failure
// surfaces. The original agent error is what callers see; bookkeeping
// problems during failure handling are only logged.
func (m *Manager) failRun(ctx context.Context, run *Run, agent string, cause error) {
	logger := logging.WithContext(ctx, m.logger)
	logger.Error("run failed",
		logging.FieldEventType, "run_failed",
		logging.FieldAgent, agent,
		"category", services.Category(cause),
		logging.Error(cause))

	if err := m.patchStatus(ctx, run, runstate.StatusFailed, cause.Error()); err != nil {
		logger.Error("failed to persist run failure", logging.Error(err))
	}
	m.appendProgress(ctx, run, runstate.ProgressEvent{
		Agent:   agent,
		Status:  "failed",
		Message: cause.Error(),
	})
	if err := m.notifier.NotifyRunFailed(ctx, run.ProjectID, run.RunID, cause); err != nil {
		logger.Warn("run failed notification failed", logging.Error(err))
	}
}
