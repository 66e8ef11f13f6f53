package services_test

import (
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrStoreUnavailable, "voice_synth", "persist patch", "index write", cause)

	if !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected store-unavailable marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	for _, fragment := range []string{"voice_synth", "persist patch", "index write"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing %q", err, fragment)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "agent failure") {
		t.Fatalf("unexpected default detail: %q", err)
	}
}

func TestCategory(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrStoreUnavailable, "a", "", "", nil), "store_unavailable"},
		{services.Wrap(services.ErrValidation, "a", "", "", nil), "validation"},
		{services.Wrap(services.ErrConfiguration, "a", "", "", nil), "configuration"},
		{services.Wrap(services.ErrVendor, "a", "", "", nil), "vendor"},
		{services.Wrap(services.ErrSecurity, "a", "", "", nil), "security"},
		{errors.New("anything else"), "transient"},
	}
	for _, tc := range cases {
		if got := services.Category(tc.err); got != tc.want {
			t.Fatalf("Category(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRunContextRoundTrip(t *testing.T) {
	ctx := services.WithRun(t.Context(), "p1", "r1")
	ctx = services.WithAgent(ctx, "editor")
	ctx = services.WithRequestID(ctx, "req-9")

	if v, ok := services.ProjectIDFromContext(ctx); !ok || v != "p1" {
		t.Fatalf("project id = %q, %v", v, ok)
	}
	if v, ok := services.RunIDFromContext(ctx); !ok || v != "r1" {
		t.Fatalf("run id = %q, %v", v, ok)
	}
	if v, ok := services.AgentFromContext(ctx); !ok || v != "editor" {
		t.Fatalf("agent = %q, %v", v, ok)
	}
	if v, ok := services.RequestIDFromContext(ctx); !ok || v != "req-9" {
		t.Fatalf("request id = %q, %v", v, ok)
	}
	if _, ok := services.AgentFromContext(t.Context()); ok {
		t.Fatal("expected no agent on fresh context")
	}
}
