package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyRunStarted(ctx context.Context, projectID, runID string) error
	NotifyRunCompleted(ctx context.Context, projectID, runID string, totalDue float64) error
	NotifyRunFailed(ctx context.Context, projectID, runID string, cause error) error
	NotifyLedgerWriteFailure(ctx context.Context, runID, agent string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runStarted:   cfg.Notifications.RunStarted,
		runCompleted: cfg.Notifications.RunCompleted,
		runFailed:    cfg.Notifications.RunFailed,
		ledgerAlerts: cfg.Notifications.LedgerAlerts,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runStarted   bool
	runCompleted bool
	runFailed    bool
	ledgerAlerts bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, projectID, runID string) error {
	if !n.runStarted {
		return nil
	}
	data := payload{
		title:   "Reelsmith - Run Started",
		message: fmt.Sprintf("Started run %s in project %s", runID, projectID),
		tags:    []string{"reelsmith", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, projectID, runID string, totalDue float64) error {
	if !n.runCompleted {
		return nil
	}
	data := payload{
		title:    "Reelsmith - Run Complete",
		message:  fmt.Sprintf("Run %s in project %s finished. Total due: $%.4f", runID, projectID, totalDue),
		tags:     []string{"reelsmith", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, projectID, runID string, cause error) error {
	if !n.runFailed {
		return nil
	}
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Reelsmith - Run Failed",
		message:  fmt.Sprintf("Run %s in project %s failed: %s", runID, projectID, reason),
		tags:     []string{"reelsmith", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLedgerWriteFailure(ctx context.Context, runID, agent string, cause error) error {
	if !n.ledgerAlerts {
		return nil
	}
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Reelsmith - Ledger Write Failed",
		message:  fmt.Sprintf("Job packet for run %s (agent %s) was not persisted: %s\nRun cost totals may be incomplete", runID, agent, reason),
		tags:     []string{"reelsmith", "ledger", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, string) error           { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, string, float64) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, string, error) error      { return nil }
func (noopService) NotifyLedgerWriteFailure(context.Context, string, string, error) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
