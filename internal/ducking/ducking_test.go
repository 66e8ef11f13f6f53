package ducking_test

import (
	"math"
	"strings"
	"testing"

	"reelsmith/internal/ducking"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildKeyframesEmptySegments(t *testing.T) {
	cfg := ducking.DefaultConfig()
	frames := ducking.BuildKeyframes(nil, 30, cfg)
	if len(frames) != 1 {
		t.Fatalf("expected single flat keyframe, got %d", len(frames))
	}
	if !almostEqual(frames[0].Volume, cfg.GapVolume) {
		t.Fatalf("expected gap volume %v, got %v", cfg.GapVolume, frames[0].Volume)
	}
}

func TestVolumeCurveSingleSegment(t *testing.T) {
	cfg := ducking.DefaultConfig()
	frames := ducking.BuildKeyframes([]ducking.Segment{{Start: 5, End: 7}}, 10, cfg)

	if v := ducking.VolumeAt(frames, 0); !almostEqual(v, cfg.GapVolume) {
		t.Fatalf("expected gap volume at t=0, got %v", v)
	}
	if v := ducking.VolumeAt(frames, 6); !almostEqual(v, cfg.NarrationVolume) {
		t.Fatalf("expected narration volume at t=6, got %v", v)
	}
	if v := ducking.VolumeAt(frames, 10); !almostEqual(v, cfg.GapVolume) {
		t.Fatalf("expected gap volume at t=10, got %v", v)
	}
}

func TestShortGapStaysDucked(t *testing.T) {
	cfg := ducking.DefaultConfig()
	segments := []ducking.Segment{
		{Start: 2, End: 4},
		{Start: 4.2, End: 6},
	}
	frames := ducking.BuildKeyframes(segments, 10, cfg)

	// No fade-up between the segments: the 0.2s gap is below MinGapDuration.
	for _, probe := range []float64{4.0, 4.1, 4.2, 5.0} {
		if v := ducking.VolumeAt(frames, probe); !almostEqual(v, cfg.NarrationVolume) {
			t.Fatalf("expected continuous ducking at t=%v, got volume %v", probe, v)
		}
	}
	for _, frame := range frames {
		if frame.Time > 4 && frame.Time < 4.2 {
			t.Fatalf("unexpected keyframe inside the short gap at t=%v", frame.Time)
		}
	}
}

func TestLongGapFadesUpBetweenSegments(t *testing.T) {
	cfg := ducking.DefaultConfig()
	segments := []ducking.Segment{
		{Start: 2, End: 4},
		{Start: 8, End: 9},
	}
	frames := ducking.BuildKeyframes(segments, 12, cfg)

	if v := ducking.VolumeAt(frames, 6); !almostEqual(v, cfg.GapVolume) {
		t.Fatalf("expected music restored in the long gap, got volume %v", v)
	}
	if v := ducking.VolumeAt(frames, 8.5); !almostEqual(v, cfg.NarrationVolume) {
		t.Fatalf("expected ducking in the second segment, got volume %v", v)
	}
}

func TestBuildKeyframesSortsSegments(t *testing.T) {
	cfg := ducking.DefaultConfig()
	frames := ducking.BuildKeyframes([]ducking.Segment{
		{Start: 8, End: 9},
		{Start: 2, End: 4},
	}, 12, cfg)

	last := frames[0].Time
	for _, frame := range frames[1:] {
		if frame.Time < last {
			t.Fatalf("keyframes out of order: %v after %v", frame.Time, last)
		}
		last = frame.Time
	}
	if v := ducking.VolumeAt(frames, 3); !almostEqual(v, cfg.NarrationVolume) {
		t.Fatalf("expected ducking in the earlier segment, got volume %v", v)
	}
}

func TestFadeDownClampedAtCurveStart(t *testing.T) {
	cfg := ducking.DefaultConfig()
	frames := ducking.BuildKeyframes([]ducking.Segment{{Start: 0.05, End: 2}}, 5, cfg)
	for _, frame := range frames {
		if frame.Time < 0 {
			t.Fatalf("keyframe before t=0: %v", frame.Time)
		}
	}
}

func TestVolumeExpressionShape(t *testing.T) {
	cfg := ducking.DefaultConfig()
	frames := ducking.BuildKeyframes([]ducking.Segment{{Start: 5, End: 7}}, 10, cfg)
	expr := ducking.VolumeExpression(frames)

	if !strings.HasPrefix(expr, "volume='") || !strings.HasSuffix(expr, "':eval=frame") {
		t.Fatalf("unexpected expression envelope: %q", expr)
	}
	if !strings.Contains(expr, "lt(t,") {
		t.Fatalf("expected piecewise conditionals, got %q", expr)
	}
	if !strings.Contains(expr, "*(t-") {
		t.Fatalf("expected linear interpolation terms, got %q", expr)
	}
	if strings.Count(expr, "(") != strings.Count(expr, ")") {
		t.Fatalf("unbalanced parentheses in %q", expr)
	}
}

func TestVolumeExpressionFlatWhenNoSegments(t *testing.T) {
	cfg := ducking.DefaultConfig()
	expr := ducking.VolumeExpression(ducking.BuildKeyframes(nil, 30, cfg))
	if expr != "volume=0.708:eval=frame" {
		t.Fatalf("expected flat gap-volume expression, got %q", expr)
	}
}

func TestSidechainFilter(t *testing.T) {
	filter := ducking.SidechainFilter(ducking.DefaultConfig())
	if !strings.HasPrefix(filter, "sidechaincompress=") {
		t.Fatalf("unexpected filter %q", filter)
	}
	if !strings.Contains(filter, "attack=200") || !strings.Contains(filter, "release=400") {
		t.Fatalf("expected configured attack/release in %q", filter)
	}
}

func TestSegmentsFromMarkers(t *testing.T) {
	segments := ducking.SegmentsFromMarkers([]ducking.Marker{
		{Start: 10, Duration: 2},
		{Start: 1, Duration: 2},
		{Start: 2.5, Duration: 1},
	})
	want := []ducking.Segment{
		{Start: 1, End: 3.5},
		{Start: 10, End: 12},
	}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %v", len(want), len(segments), segments)
	}
	for i, seg := range segments {
		if !almostEqual(seg.Start, want[i].Start) || !almostEqual(seg.End, want[i].End) {
			t.Fatalf("segment %d: expected %v, got %v", i, want[i], seg)
		}
	}
}

func TestSegmentsFromMarkersEmpty(t *testing.T) {
	if segments := ducking.SegmentsFromMarkers(nil); segments != nil {
		t.Fatalf("expected nil for no markers, got %v", segments)
	}
}
