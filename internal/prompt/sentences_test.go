package prompt

import (
	"testing"

	"github.com/zbeam/zbeam/internal/voice"
)

func TestSentenceTargetFor_ReferenceCase(t *testing.T) {
	// 100 words / 16 wps = base 6.25; ±25% → floor(4.6875)=4, ceil(7.8125)=8.
	dist := voice.Distribution{Short: 0.3, Medium: 0.5, Long: 0.2}

	got := SentenceTargetFor(100, 16, dist)

	if got.Min != 4 {
		t.Errorf("Min = %d, want 4", got.Min)
	}
	if got.Max != 8 {
		t.Errorf("Max = %d, want 8", got.Max)
	}
	if got.Distribution != "2 short, 3 medium, 1 long" {
		t.Errorf("Distribution = %q", got.Distribution)
	}
}

func TestSentenceTargetFor_Deterministic(t *testing.T) {
	dist := voice.Distribution{Short: 0.25, Medium: 0.55, Long: 0.2}

	first := SentenceTargetFor(137, 14.5, dist)
	for i := 0; i < 5; i++ {
		if got := SentenceTargetFor(137, 14.5, dist); got != first {
			t.Fatalf("target changed across calls: %+v then %+v", first, got)
		}
	}
}

func TestSentenceTargetFor_TinyTarget(t *testing.T) {
	// base well below 1: every bucket rounds to zero, the dominant bucket
	// must still ask for one sentence and min stays at 1.
	dist := voice.Distribution{Short: 0.2, Medium: 0.6, Long: 0.2}

	got := SentenceTargetFor(5, 20, dist)

	if got.Min != 1 {
		t.Errorf("Min = %d, want 1", got.Min)
	}
	if got.Distribution != "0 short, 1 medium, 0 long" {
		t.Errorf("Distribution = %q", got.Distribution)
	}
}

func TestSentenceTargetFor_DominantShort(t *testing.T) {
	dist := voice.Distribution{Short: 0.7, Medium: 0.2, Long: 0.1}

	got := SentenceTargetFor(4, 18, dist)
	if got.Distribution != "1 short, 0 medium, 0 long" {
		t.Errorf("Distribution = %q", got.Distribution)
	}
}
