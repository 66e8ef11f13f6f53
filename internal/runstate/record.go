package runstate

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a production run.
//
// NOTE: These values are persisted in index.json and are part of the stable
// stored contract.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusQueued, StatusRunning, StatusCompleted, StatusFailed}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether a status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from one status to another respects
// the forward-only rule queued → running → {completed|failed}.
//
// This is advisory: Update does not enforce it, matching the permissive
// stored contract. The run manager consults it before patching status and
// logs a violation instead of writing one.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusRunning || to == StatusCompleted || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// VoiceMeta captures voice synthesis metadata accumulated across agents.
type VoiceMeta struct {
	VoiceID        string  `json:"voice_id,omitempty"`
	ModelID        string  `json:"model_id,omitempty"`
	CharacterCount int     `json:"character_count,omitempty"`
	Cost           float64 `json:"cost,omitempty"`
	Placeholder    bool    `json:"placeholder,omitempty"`
}

// MusicMeta captures background music metadata accumulated across agents.
type MusicMeta struct {
	Mode        string  `json:"mode,omitempty"`
	BPM         int     `json:"bpm,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	LicenseTier string  `json:"license_tier,omitempty"`
	Approver    string  `json:"approver,omitempty"`
}

// RunRecord is the authoritative per-run document.
type RunRecord struct {
	ProjectID string    `json:"project_id"`
	RunID     string    `json:"run_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	NarrationKey    string `json:"narration_key,omitempty"`
	MusicKey        string `json:"music_key,omitempty"`
	BeatGridKey     string `json:"beat_grid_key,omitempty"`
	FinalVideoKey   string `json:"final_video_key,omitempty"`
	ExportBundleKey string `json:"export_bundle_key,omitempty"`

	Voice *VoiceMeta `json:"voice,omitempty"`
	Music *MusicMeta `json:"music,omitempty"`

	// Error is set only when Status is failed.
	Error string `json:"error,omitempty"`
}

// Patch describes a partial update to a RunRecord. Nil fields leave the
// stored value untouched. Voice and Music patches merge field-by-field into
// any existing sub-object so a later agent cannot erase an earlier agent's
// metadata.
type Patch struct {
	Status *Status

	NarrationKey    *string
	MusicKey        *string
	BeatGridKey     *string
	FinalVideoKey   *string
	ExportBundleKey *string

	Voice *VoicePatch
	Music *MusicPatch

	Error *string
}

// VoicePatch is a one-level-deep partial update of VoiceMeta.
type VoicePatch struct {
	VoiceID        *string
	ModelID        *string
	CharacterCount *int
	Cost           *float64
	Placeholder    *bool
}

// MusicPatch is a one-level-deep partial update of MusicMeta.
type MusicPatch struct {
	Mode        *string
	BPM         *int
	Duration    *float64
	LicenseTier *string
	Approver    *string
}

func (p Patch) apply(record *RunRecord) {
	if p.Status != nil {
		record.Status = *p.Status
	}
	if p.NarrationKey != nil {
		record.NarrationKey = *p.NarrationKey
	}
	if p.MusicKey != nil {
		record.MusicKey = *p.MusicKey
	}
	if p.BeatGridKey != nil {
		record.BeatGridKey = *p.BeatGridKey
	}
	if p.FinalVideoKey != nil {
		record.FinalVideoKey = *p.FinalVideoKey
	}
	if p.ExportBundleKey != nil {
		record.ExportBundleKey = *p.ExportBundleKey
	}
	if p.Voice != nil {
		if record.Voice == nil {
			record.Voice = &VoiceMeta{}
		}
		p.Voice.apply(record.Voice)
	}
	if p.Music != nil {
		if record.Music == nil {
			record.Music = &MusicMeta{}
		}
		p.Music.apply(record.Music)
	}
	if p.Error != nil {
		record.Error = *p.Error
	}
}

func (p VoicePatch) apply(meta *VoiceMeta) {
	if p.VoiceID != nil {
		meta.VoiceID = *p.VoiceID
	}
	if p.ModelID != nil {
		meta.ModelID = *p.ModelID
	}
	if p.CharacterCount != nil {
		meta.CharacterCount = *p.CharacterCount
	}
	if p.Cost != nil {
		meta.Cost = *p.Cost
	}
	if p.Placeholder != nil {
		meta.Placeholder = *p.Placeholder
	}
}

func (p MusicPatch) apply(meta *MusicMeta) {
	if p.Mode != nil {
		meta.Mode = *p.Mode
	}
	if p.BPM != nil {
		meta.BPM = *p.BPM
	}
	if p.Duration != nil {
		meta.Duration = *p.Duration
	}
	if p.LicenseTier != nil {
		meta.LicenseTier = *p.LicenseTier
	}
	if p.Approver != nil {
		meta.Approver = *p.Approver
	}
}

// IndexKey returns the store key of a run's authoritative record.
func IndexKey(projectID, runID string) string {
	return fmt.Sprintf("projects/%s/runs/%s/index.json", projectID, runID)
}

// ProgressKey returns the store key of a run's progress feed.
func ProgressKey(projectID, runID string) string {
	return fmt.Sprintf("projects/%s/runs/%s/progress.json", projectID, runID)
}
