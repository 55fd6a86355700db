// Package orchestrator runs the adaptive generate-score-retry loop: build a
// prompt, call the generation API, score the draft against the AI detector,
// and either persist the content or adjust parameters and try again.
package orchestrator

import (
	"io"
	"log"
	"time"

	"github.com/zbeam/zbeam/internal/config"
	"github.com/zbeam/zbeam/internal/detect"
	"github.com/zbeam/zbeam/internal/feedback"
	"github.com/zbeam/zbeam/internal/llm"
	"github.com/zbeam/zbeam/internal/store"
	"github.com/zbeam/zbeam/internal/tuner"
	"github.com/zbeam/zbeam/internal/voice"

	"github.com/zbeam/zbeam/internal/errors"
)

// curriculumWindow is the trailing window for success-rate statistics.
const curriculumWindow = 30 * 24 * time.Hour

// Orchestrator coordinates one material/component generation end to end.
type Orchestrator struct {
	store    *store.Store
	voices   *voice.Registry
	client   llm.Client
	detector detect.Detector
	attempts *feedback.Log
	spots    *feedback.SweetSpots
	cfg      *config.Config
	rng      tuner.RandomSource
	logger   *log.Logger
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Store      *store.Store
	Voices     *voice.Registry
	Client     llm.Client
	Detector   detect.Detector
	Attempts   *feedback.Log
	SweetSpots *feedback.SweetSpots
	Config     *config.Config
	RNG        tuner.RandomSource

	// Logger receives per-attempt diagnostics; nil silences them.
	Logger *log.Logger
}

// New validates the dependency set and returns an orchestrator.
func New(d Deps) (*Orchestrator, error) {
	switch {
	case d.Store == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "store is required")
	case d.Voices == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "voice registry is required")
	case d.Client == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "generation client is required")
	case d.Detector == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "detector is required")
	case d.Attempts == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "attempt log is required")
	case d.SweetSpots == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "sweet-spot store is required")
	case d.Config == nil:
		return nil, errors.NewConfigInvalid("orchestrator", "config is required")
	}

	if d.RNG == nil {
		d.RNG = tuner.NewSeeded(time.Now().UnixNano())
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard, "", 0)
	}

	return &Orchestrator{
		store:    d.Store,
		voices:   d.Voices,
		client:   d.Client,
		detector: d.Detector,
		attempts: d.Attempts,
		spots:    d.SweetSpots,
		cfg:      d.Config,
		rng:      d.RNG,
		logger:   d.Logger,
	}, nil
}

// Result is the outcome of one Generate call. A failed run still carries the
// last generated text and scores for operator review; nothing is discarded.
type Result struct {
	Material      string  `json:"material"`
	ComponentType string  `json:"component_type"`
	Success       bool    `json:"success"`
	Content       any     `json:"content,omitempty"`
	Text          string  `json:"text,omitempty"`
	AIScore       float64 `json:"ai_score"`
	HumanScore    float64 `json:"human_score"`
	Threshold     float64 `json:"threshold"`
	Band          Band    `json:"band"`
	Attempts      int     `json:"attempts"`
	FailureReason string  `json:"failure_reason,omitempty"`
}
