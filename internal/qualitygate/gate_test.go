package qualitygate_test

import (
	"strings"
	"testing"

	"reelsmith/internal/qualitygate"
)

const goodScript = "A golden retriever discovers an abandoned lighthouse and decides to make it home."

func goodBundle() qualitygate.Bundle {
	return qualitygate.Bundle{
		ScriptText: goodScript,
		AudioURL:   "https://cdn.example.com/audio/r1.mp3",
		VideoURL:   "https://cdn.example.com/video/r1.mp4",
		Images:     []string{"https://cdn.example.com/img/1.jpg"},
	}
}

func TestInspectPassesCompleteBundle(t *testing.T) {
	result := qualitygate.Inspect(goodBundle())
	if !result.Passed {
		t.Fatalf("expected pass, got errors %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}
}

func TestInspectRejectsShortScript(t *testing.T) {
	bundle := goodBundle()
	bundle.ScriptText = "Too short."
	result := qualitygate.Inspect(bundle)
	if result.Passed {
		t.Fatal("expected failure for short script")
	}
}

func TestInspectRejectsMissingScript(t *testing.T) {
	bundle := goodBundle()
	bundle.ScriptText = ""
	result := qualitygate.Inspect(bundle)
	if result.Passed {
		t.Fatal("expected failure for missing script")
	}
}

func TestInspectDetectsLeakedError(t *testing.T) {
	bundle := goodBundle()
	bundle.ScriptText = goodScript + " Error: rate limit exceeded"
	result := qualitygate.Inspect(bundle)
	if result.Passed {
		t.Fatal("expected failure for leaked upstream error")
	}
	found := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "upstream error") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an upstream error finding, got %v", result.Errors)
	}
}

func TestInspectAudioURLShapes(t *testing.T) {
	cases := []struct {
		url  string
		pass bool
	}{
		{"https://cdn.example.com/a.mp3", true},
		{"http://cdn.example.com/a.mp3", true},
		{"/tmp/output/a.mp3", true},
		{"placeholder://audio", true},
		{"", true},
		{"ftp://cdn.example.com/a.mp3", false},
		{"cdn.example.com/a.mp3", false},
	}
	for _, tc := range cases {
		bundle := goodBundle()
		bundle.AudioURL = tc.url
		result := qualitygate.Inspect(bundle)
		if result.Passed != tc.pass {
			t.Errorf("audio url %q: expected passed=%v, got errors %v", tc.url, tc.pass, result.Errors)
		}
	}
}

func TestInspectMissingVideoFails(t *testing.T) {
	bundle := goodBundle()
	bundle.VideoURL = ""
	result := qualitygate.Inspect(bundle)
	if result.Passed {
		t.Fatal("expected failure for missing video url")
	}
}

func TestInspectEmptyImagesWarnsOnly(t *testing.T) {
	bundle := goodBundle()
	bundle.Images = []string{}
	result := qualitygate.Inspect(bundle)
	if !result.Passed {
		t.Fatalf("expected warnings not to block, got errors %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
}

func TestInspectNilImagesNoWarning(t *testing.T) {
	bundle := goodBundle()
	bundle.Images = nil
	result := qualitygate.Inspect(bundle)
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warning for absent image list, got %v", result.Warnings)
	}
}
