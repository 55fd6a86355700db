package llm

import (
	"context"

	"github.com/zbeam/zbeam/internal/errors"
)

// ScriptedClient replays canned responses in order. Used by tests and the
// --dry-run CLI path.
type ScriptedClient struct {
	// Responses are returned one per Complete call; the last entry repeats
	// once the script is exhausted.
	Responses []string

	// Errs, when non-nil at the current call index, is returned instead.
	Errs []error

	// Requests records every request received, for assertions.
	Requests []Request

	calls int
}

// Complete implements Client.
func (s *ScriptedClient) Complete(_ context.Context, req Request) (string, error) {
	s.Requests = append(s.Requests, req)
	idx := s.calls
	s.calls++

	if idx < len(s.Errs) && s.Errs[idx] != nil {
		return "", errors.NewAPIFailure("scripted", s.Errs[idx])
	}
	if len(s.Responses) == 0 {
		return "", errors.NewAPIFailure("scripted", nil)
	}
	if idx >= len(s.Responses) {
		idx = len(s.Responses) - 1
	}
	return s.Responses[idx], nil
}

// Calls returns how many times Complete was invoked.
func (s *ScriptedClient) Calls() int {
	return s.calls
}
