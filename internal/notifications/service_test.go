package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunStarted(context.Background(), "p1", "r1"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "run started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunStarted(context.Background(), "sunset-reel", "r42")
			},
			expectTitle:   "Reelsmith - Run Started",
			expectMessage: "Started run r42 in project sunset-reel",
			expectTags:    "reelsmith,run,started",
		},
		{
			name: "run completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunCompleted(context.Background(), "sunset-reel", "r42", 0.204)
			},
			expectTitle:    "Reelsmith - Run Complete",
			expectMessage:  "Run r42 in project sunset-reel finished. Total due: $0.2040",
			expectTags:     "reelsmith,run,completed",
			expectPriority: "high",
		},
		{
			name: "run failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunFailed(context.Background(), "sunset-reel", "r42", errors.New("voice synthesis timed out"))
			},
			expectTitle:    "Reelsmith - Run Failed",
			expectMessage:  "Run r42 in project sunset-reel failed: voice synthesis timed out",
			expectTags:     "reelsmith,run,failed",
			expectPriority: "high",
		},
		{
			name: "ledger write failure",
			notify: func(svc notifications.Service) error {
				return svc.NotifyLedgerWriteFailure(context.Background(), "r42", "narrator", errors.New("store unavailable"))
			},
			expectTitle:    "Reelsmith - Ledger Write Failed",
			expectMessage:  "Job packet for run r42 (agent narrator) was not persisted: store unavailable\nRun cost totals may be incomplete",
			expectTags:     "reelsmith,ledger,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunStarted = false
	cfg.Notifications.LedgerAlerts = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunStarted(context.Background(), "p1", "r1"); err != nil {
		t.Fatalf("expected no error for suppressed event, got %v", err)
	}
	if err := svc.NotifyLedgerWriteFailure(context.Background(), "r1", "narrator", errors.New("boom")); err != nil {
		t.Fatalf("expected no error for suppressed event, got %v", err)
	}
}
