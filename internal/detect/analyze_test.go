package detect

import (
	"strings"
	"testing"
)

func TestAnalyzeFailure(t *testing.T) {
	const threshold = 0.33

	tests := []struct {
		name      string
		aiScore   float64
		readable  bool
		wantKind  FailureKind
		wantClose bool
	}{
		{"close miss is borderline", 0.36, true, FailureBorderline, true},
		{"outside close margin still borderline", 0.40, true, FailureBorderline, false},
		{"edge of borderline band", 0.42, true, FailureBorderline, false},
		{"clear partial miss", 0.50, true, FailurePartial, false},
		{"far miss is uniform", 0.70, true, FailureUniform, false},
		{"unreadable is always uniform", 0.34, false, FailureUniform, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := AnalyzeFailure(Result{AIScore: tt.aiScore}, tt.readable, threshold)
			if f.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", f.Kind, tt.wantKind)
			}
			if f.Close != tt.wantClose {
				t.Errorf("Close = %v, want %v", f.Close, tt.wantClose)
			}
		})
	}
}

func TestAnalyzeFailure_TooShort(t *testing.T) {
	f := AnalyzeFailure(Result{AIScore: 1, TooShort: true}, true, 0.33)
	if f.Kind != FailureUniform {
		t.Errorf("Kind = %v, want uniform for too-short sentinel", f.Kind)
	}
}

func TestCheckReadability(t *testing.T) {
	readable := "Laser cleaning removes the oxide layer without touching the base metal. " +
		"A pulsed beam lifts contaminants in a single pass. Operators see results immediately."
	r := CheckReadability(readable)
	if !r.Readable {
		t.Errorf("expected readable, got %+v", r)
	}
	if r.Sentences != 3 {
		t.Errorf("Sentences = %d, want 3", r.Sentences)
	}

	choppy := "Yes. No. Fast. Clean. Done. Good. Next."
	if r := CheckReadability(choppy); r.Readable {
		t.Errorf("choppy fragments should not be readable: %+v", r)
	}

	runOn := strings.Repeat("word ", 60) + "."
	if r := CheckReadability(runOn); r.Readable {
		t.Errorf("a 60-word sentence should not be readable: %+v", r)
	}

	if r := CheckReadability(""); r.Readable {
		t.Error("empty text should not be readable")
	}
}
