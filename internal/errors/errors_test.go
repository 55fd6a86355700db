package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := NewNotFound("Aluminum")
	if got := err.Error(); !strings.Contains(got, "NOT_FOUND") || !strings.Contains(got, "Aluminum") {
		t.Errorf("Error() = %q, want code and identifier", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("x"), ErrNotFound, true},
		{"different code", NewNotFound("x"), ErrAPIFailure, false},
		{"plain error", stderrors.New("boom"), ErrInternal, false},
		{"nil details ok", NewInvalidRequest("bad"), ErrInvalidRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructorsCarryDetails(t *testing.T) {
	err := NewExtractionFailed("caption", "no markers")
	if err.Details["component_type"] != "caption" {
		t.Errorf("Details[component_type] = %v, want caption", err.Details["component_type"])
	}

	apiErr := NewAPIFailure("grok", stderrors.New("timeout"))
	if !strings.Contains(apiErr.Message, "timeout") {
		t.Errorf("API failure message should carry cause, got %q", apiErr.Message)
	}

	nilErr := NewInternal(nil)
	if nilErr.Message != "internal error" {
		t.Errorf("NewInternal(nil).Message = %q", nilErr.Message)
	}
}
