// Package qualitygate validates a bundle of agent outputs before a run is
// allowed to advance to publishing. The gate is advisory: it reports
// problems but never touches run state itself.
package qualitygate

import (
	"fmt"
	"strings"
)

// Bundle collects the artifacts produced by the rendering agents. Any field
// may be absent; the gate only judges what publishing needs.
type Bundle struct {
	ScriptText string   `json:"script_text,omitempty"`
	AudioURL   string   `json:"audio_url,omitempty"`
	VideoURL   string   `json:"video_url,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// Result reports the gate's findings. Warnings never block; Passed is true
// exactly when Errors is empty.
type Result struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

const minScriptLength = 50

// Inspect applies the publish-readiness rules to the bundle.
func Inspect(bundle Bundle) Result {
	result := Result{Errors: []string{}, Warnings: []string{}}

	script := strings.TrimSpace(bundle.ScriptText)
	if len(script) < minScriptLength {
		result.Errors = append(result.Errors,
			fmt.Sprintf("script is missing or too short (%d chars, need %d)", len(script), minScriptLength))
	}
	if strings.Contains(bundle.ScriptText, "Error:") {
		result.Errors = append(result.Errors, "script contains an upstream error message")
	}

	if bundle.AudioURL != "" && !validArtifactURL(bundle.AudioURL) {
		result.Errors = append(result.Errors, fmt.Sprintf("audio url has an invalid shape: %q", bundle.AudioURL))
	}

	if bundle.VideoURL == "" {
		result.Errors = append(result.Errors, "video url is missing")
	}

	if bundle.Images != nil && len(bundle.Images) == 0 {
		result.Warnings = append(result.Warnings, "image list is empty")
	}

	result.Passed = len(result.Errors) == 0
	return result
}

// validArtifactURL accepts http(s) URLs, absolute paths, and placeholder
// references produced during dev runs.
func validArtifactURL(url string) bool {
	return strings.HasPrefix(url, "http") ||
		strings.HasPrefix(url, "/") ||
		strings.HasPrefix(url, "placeholder://")
}
