package main

import (
	"bytes"
	"strings"
	"testing"
)

// runCLI executes the root command with args and returns captured stdout.
func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestRootHelp(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, err := runCLI(t, []string{"--help"})
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	requireContains(t, out, "reelsmith")
	requireContains(t, out, "daemon")
	requireContains(t, out, "duck")
}

func TestAgentLabel(t *testing.T) {
	cases := map[string]string{
		"vision-curator": "Vision Curator",
		"narrator":       "Narrator",
		"  ":             "-",
	}
	for input, want := range cases {
		if got := agentLabel(input); got != want {
			t.Errorf("agentLabel(%q) = %q, want %q", input, got, want)
		}
	}
}
