// Package ducking converts narration timing segments into a background
// music volume curve. The output is a filter-graph expression handed to an
// external renderer; this package never touches audio itself.
package ducking

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is one span of narration, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text,omitempty"`
}

// Config controls the volume curve shape. Volumes are linear gain factors.
type Config struct {
	NarrationVolume float64 `json:"narration_volume"`
	GapVolume       float64 `json:"gap_volume"`
	AttackMs        float64 `json:"attack_ms"`
	ReleaseMs       float64 `json:"release_ms"`
	MinGapDuration  float64 `json:"min_gap_duration"`
}

// DefaultConfig returns the standard curve: music ducked to roughly -10 dB
// under narration, -3 dB in gaps, with a 200 ms attack and 400 ms release.
// Gaps shorter than half a second stay ducked so the music does not pump.
func DefaultConfig() Config {
	return Config{
		NarrationVolume: 0.316,
		GapVolume:       0.708,
		AttackMs:        200,
		ReleaseMs:       400,
		MinGapDuration:  0.5,
	}
}

// Keyframe is one point on the volume curve. Between keyframes the volume
// interpolates linearly; before the first and after the last it holds.
type Keyframe struct {
	Time   float64 `json:"time"`
	Volume float64 `json:"volume"`
}

// BuildKeyframes computes the volume curve for the given narration
// segments. Segments are sorted by start; overlapping segments are not
// de-duplicated and callers must supply non-overlapping spans.
func BuildKeyframes(segments []Segment, totalDuration float64, cfg Config) []Keyframe {
	if len(segments) == 0 {
		return []Keyframe{{Time: 0, Volume: cfg.GapVolume}}
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	attack := cfg.AttackMs / 1000
	release := cfg.ReleaseMs / 1000

	frames := []Keyframe{{Time: 0, Volume: cfg.GapVolume}}
	ducked := false

	for i, seg := range sorted {
		if !ducked {
			fadeDown := seg.Start - attack
			if last := frames[len(frames)-1].Time; fadeDown < last {
				fadeDown = last
			}
			frames = append(frames, Keyframe{Time: fadeDown, Volume: cfg.GapVolume})
		}
		frames = append(frames,
			Keyframe{Time: seg.Start, Volume: cfg.NarrationVolume},
			Keyframe{Time: seg.End, Volume: cfg.NarrationVolume})

		if i+1 < len(sorted) {
			next := sorted[i+1]
			gap := next.Start - seg.End
			if gap >= cfg.MinGapDuration {
				fadeUp := seg.End + release
				if limit := next.Start - attack; fadeUp > limit {
					fadeUp = limit
				}
				frames = append(frames, Keyframe{Time: fadeUp, Volume: cfg.GapVolume})
				ducked = false
			} else {
				// Short gap: stay ducked straight through.
				ducked = true
			}
			continue
		}

		fadeUp := seg.End + release
		if fadeUp > totalDuration {
			fadeUp = totalDuration
		}
		frames = append(frames, Keyframe{Time: fadeUp, Volume: cfg.GapVolume})
	}

	return frames
}

// VolumeAt evaluates the curve at time t. Used by the renderer preview and
// by tests; the renderer itself consumes the expression form.
func VolumeAt(frames []Keyframe, t float64) float64 {
	if len(frames) == 0 {
		return 1
	}
	if t <= frames[0].Time {
		return frames[0].Volume
	}
	for i := 1; i < len(frames); i++ {
		if t <= frames[i].Time {
			prev, cur := frames[i-1], frames[i]
			span := cur.Time - prev.Time
			if span <= 0 {
				return cur.Volume
			}
			slope := (cur.Volume - prev.Volume) / span
			return prev.Volume + slope*(t-prev.Time)
		}
	}
	return frames[len(frames)-1].Volume
}

// VolumeExpression renders the keyframes as a single ffmpeg volume filter:
// flat spans emit constants, transitions emit linear interpolation
// v0 + slope*(t-t0). The expression nests right so the first matching
// condition wins.
func VolumeExpression(frames []Keyframe) string {
	if len(frames) == 0 {
		return "volume=1.0:eval=frame"
	}
	if len(frames) == 1 {
		return fmt.Sprintf("volume=%s:eval=frame", formatNum(frames[0].Volume))
	}

	var expr strings.Builder
	depth := 0
	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1], frames[i]
		span := cur.Time - prev.Time

		var value string
		switch {
		case span <= 0 || prev.Volume == cur.Volume:
			value = formatNum(prev.Volume)
		default:
			slope := (cur.Volume - prev.Volume) / span
			value = fmt.Sprintf("%s+%s*(t-%s)",
				formatNum(prev.Volume), formatNum(slope), formatNum(prev.Time))
		}

		expr.WriteString(fmt.Sprintf("if(lt(t,%s),%s,", formatNum(cur.Time), value))
		depth++
	}
	expr.WriteString(formatNum(frames[len(frames)-1].Volume))
	expr.WriteString(strings.Repeat(")", depth))

	return fmt.Sprintf("volume='%s':eval=frame", expr.String())
}

// SidechainFilter returns the alternative dynamic ducking filter, driven by
// the live narration signal instead of precomputed keyframes. Callers pick
// this or VolumeExpression, not both.
func SidechainFilter(cfg Config) string {
	return fmt.Sprintf(
		"sidechaincompress=threshold=0.05:ratio=4:attack=%s:release=%s:makeup=%s",
		formatNum(cfg.AttackMs), formatNum(cfg.ReleaseMs), formatNum(cfg.GapVolume/cfg.NarrationVolume))
}

// Marker is a narration timing marker: when a spoken phrase starts and how
// long it lasts.
type Marker struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// SegmentsFromMarkers converts timing markers into non-overlapping
// narration segments, merging any marker that begins before the previous
// one ends.
func SegmentsFromMarkers(markers []Marker) []Segment {
	if len(markers) == 0 {
		return nil
	}
	sorted := make([]Marker, len(markers))
	copy(sorted, markers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	segments := []Segment{{Start: sorted[0].Start, End: sorted[0].Start + sorted[0].Duration}}
	for _, m := range sorted[1:] {
		end := m.Start + m.Duration
		last := &segments[len(segments)-1]
		if m.Start <= last.End {
			if end > last.End {
				last.End = end
			}
			continue
		}
		segments = append(segments, Segment{Start: m.Start, End: end})
	}
	return segments
}

func formatNum(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
