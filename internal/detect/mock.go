package detect

import "context"

// ScriptedDetector replays canned results in order; the last entry repeats
// once the script is exhausted. Used by tests and the --dry-run CLI path.
type ScriptedDetector struct {
	Results []Result
	Err     error

	// Texts records every scored text, for assertions.
	Texts []string

	calls int
}

// Detect implements Detector.
func (s *ScriptedDetector) Detect(_ context.Context, text string) (Result, error) {
	s.Texts = append(s.Texts, text)
	idx := s.calls
	s.calls++

	if s.Err != nil {
		return Result{}, s.Err
	}
	if len(s.Results) == 0 {
		return Result{}, nil
	}
	if idx >= len(s.Results) {
		idx = len(s.Results) - 1
	}
	return s.Results[idx], nil
}

// Calls returns how many times Detect was invoked.
func (s *ScriptedDetector) Calls() int {
	return s.calls
}
