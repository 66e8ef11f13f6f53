package pipeline

import (
	"context"

	"reelsmith/internal/qualitygate"
	"reelsmith/internal/runstate"
)

// Run is the working state threaded through the agent sequence. Agents read
// prior artifacts from Bundle and Record; durable state lives in the store.
type Run struct {
	ProjectID string
	RunID     string
	Photos    []string

	Bundle qualitygate.Bundle
	Record *runstate.RunRecord
}

// Agent describes the contract the run manager needs from each pipeline
// step.
type Agent interface {
	Name() string
	Execute(ctx context.Context, run *Run) (*AgentResult, error)
}

// BundlePatch updates the in-flight output bundle. Nil fields leave the
// current value untouched.
type BundlePatch struct {
	ScriptText *string
	AudioURL   *string
	VideoURL   *string
	Images     *[]string
}

func (p BundlePatch) apply(bundle *qualitygate.Bundle) {
	if p.ScriptText != nil {
		bundle.ScriptText = *p.ScriptText
	}
	if p.AudioURL != nil {
		bundle.AudioURL = *p.AudioURL
	}
	if p.VideoURL != nil {
		bundle.VideoURL = *p.VideoURL
	}
	if p.Images != nil {
		bundle.Images = *p.Images
	}
}

// AgentResult reports one agent's outcome. BaseCost is the agent's declared
// vendor cost before markup; zero means the step was free.
type AgentResult struct {
	Summary  string
	BaseCost float64
	Progress float64
	Patch    runstate.Patch
	Bundle   BundlePatch
}
