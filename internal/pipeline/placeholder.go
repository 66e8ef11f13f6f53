package pipeline

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/ducking"
	"reelsmith/internal/runstate"
	"reelsmith/internal/services"
)

// PlaceholderAgents returns the deterministic local/dev agent sequence. The
// real vendor integrations live outside this module; these agents produce
// stable artifacts, costs, and progress so the daemon and CLI can be
// exercised end to end without vendor credentials.
func PlaceholderAgents(cfg *config.Config) []Agent {
	return []Agent{
		visionCurator{},
		scriptWriter{},
		voiceNarrator{},
		musicComposer{},
		videoEditor{cfg: cfg},
	}
}

type visionCurator struct{}

func (visionCurator) Name() string { return "vision-curator" }

func (visionCurator) Execute(ctx context.Context, run *Run) (*AgentResult, error) {
	if len(run.Photos) == 0 {
		return nil, services.Wrap(services.ErrValidation, "vision-curator", "curate", "run has no photos", nil)
	}
	images := make([]string, len(run.Photos))
	copy(images, run.Photos)
	return &AgentResult{
		Summary:  fmt.Sprintf("curated %d photos", len(images)),
		Progress: 15,
		Bundle:   BundlePatch{Images: &images},
	}, nil
}

type scriptWriter struct{}

func (scriptWriter) Name() string { return "scriptwriter" }

func (scriptWriter) Execute(ctx context.Context, run *Run) (*AgentResult, error) {
	script := fmt.Sprintf(
		"A short film from %d moments. Each frame tells part of the story, and the story belongs to %s.",
		len(run.Bundle.Images), run.ProjectID)
	return &AgentResult{
		Summary:  "drafted narration script",
		BaseCost: 0.0125,
		Progress: 35,
		Bundle:   BundlePatch{ScriptText: &script},
	}, nil
}

type voiceNarrator struct{}

func (voiceNarrator) Name() string { return "narrator" }

func (voiceNarrator) Execute(ctx context.Context, run *Run) (*AgentResult, error) {
	chars := len(run.Bundle.ScriptText)
	audioURL := fmt.Sprintf("placeholder://audio/%s.mp3", run.RunID)
	narrationKey := fmt.Sprintf("projects/%s/runs/%s/narration.mp3", run.ProjectID, run.RunID)
	placeholder := true
	voiceID := "dev-voice"
	cost := float64(chars) * 0.0001
	return &AgentResult{
		Summary:  fmt.Sprintf("synthesized %d characters", chars),
		BaseCost: cost,
		Progress: 55,
		Patch: runstate.Patch{
			NarrationKey: &narrationKey,
			Voice: &runstate.VoicePatch{
				VoiceID:        &voiceID,
				CharacterCount: &chars,
				Cost:           &cost,
				Placeholder:    &placeholder,
			},
		},
		Bundle: BundlePatch{AudioURL: &audioURL},
	}, nil
}

type musicComposer struct{}

func (musicComposer) Name() string { return "composer" }

func (musicComposer) Execute(ctx context.Context, run *Run) (*AgentResult, error) {
	musicKey := fmt.Sprintf("projects/%s/runs/%s/music.mp3", run.ProjectID, run.RunID)
	mode := "instrumental"
	bpm := 92
	duration := totalDuration(run)
	return &AgentResult{
		Summary:  "composed background track",
		BaseCost: 0.04,
		Progress: 70,
		Patch: runstate.Patch{
			MusicKey: &musicKey,
			Music: &runstate.MusicPatch{
				Mode:     &mode,
				BPM:      &bpm,
				Duration: &duration,
			},
		},
	}, nil
}

type videoEditor struct {
	cfg *config.Config
}

func (videoEditor) Name() string { return "editor" }

func (e videoEditor) Execute(ctx context.Context, run *Run) (*AgentResult, error) {
	total := totalDuration(run)
	segments := narrationSegments(run.Bundle.ScriptText, total)

	duckCfg := ducking.DefaultConfig()
	if e.cfg != nil && e.cfg.Ducking.NarrationVolume > 0 {
		duckCfg = ducking.Config{
			NarrationVolume: e.cfg.Ducking.NarrationVolume,
			GapVolume:       e.cfg.Ducking.GapVolume,
			AttackMs:        e.cfg.Ducking.AttackMs,
			ReleaseMs:       e.cfg.Ducking.ReleaseMs,
			MinGapDuration:  e.cfg.Ducking.MinGapDuration,
		}
	}
	frames := ducking.BuildKeyframes(segments, total, duckCfg)
	filter := ducking.VolumeExpression(frames)

	videoURL := fmt.Sprintf("placeholder://video/%s.mp4", run.RunID)
	finalKey := fmt.Sprintf("projects/%s/runs/%s/final.mp4", run.ProjectID, run.RunID)
	beatGridKey := fmt.Sprintf("projects/%s/runs/%s/beat_grid.json", run.ProjectID, run.RunID)
	return &AgentResult{
		Summary:  fmt.Sprintf("rendered with %d volume keyframes (%d filter chars)", len(frames), len(filter)),
		BaseCost: 0.08,
		Progress: 90,
		Patch: runstate.Patch{
			FinalVideoKey: &finalKey,
			BeatGridKey:   &beatGridKey,
		},
		Bundle: BundlePatch{VideoURL: &videoURL},
	}, nil
}

// totalDuration estimates the video length from the curated photo count,
// three seconds per photo with a ten second floor.
func totalDuration(run *Run) float64 {
	duration := float64(len(run.Bundle.Images)) * 3
	if duration < 10 {
		duration = 10
	}
	return duration
}

// narrationSegments derives deterministic narration spans from the script:
// one span per sentence, spread across the timeline with a trailing gap for
// the outro.
func narrationSegments(script string, total float64) []ducking.Segment {
	sentences := 0
	for _, part := range strings.Split(script, ".") {
		if strings.TrimSpace(part) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		return nil
	}

	markers := make([]ducking.Marker, 0, sentences)
	slot := total / float64(sentences+1)
	for i := 0; i < sentences; i++ {
		markers = append(markers, ducking.Marker{
			Start:    float64(i) * slot,
			Duration: slot * 0.8,
		})
	}
	return ducking.SegmentsFromMarkers(markers)
}
