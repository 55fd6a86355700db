// Package detect scores generated text against the Winston AI-content
// detector and derives the signals the retry loop feeds on: readability,
// failure classification, and close-miss detection.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zbeam/zbeam/internal/errors"
)

// Result is one detector verdict. AIScore is in [0,1], higher meaning more
// likely machine-written. HumanScore is a percentage.
type Result struct {
	AIScore    float64
	HumanScore float64

	// TooShort marks the sentinel returned for text under the detector's
	// minimum length; no network call is made.
	TooShort bool
}

// Detector is the external AI-detector surface.
type Detector interface {
	Detect(ctx context.Context, text string) (Result, error)
}

// WinstonClient calls the Winston content-detection REST API.
type WinstonClient struct {
	endpoint  string
	apiKey    string
	minLength int
	client    *http.Client
}

// NewWinstonClient builds a detector client. minLength guards the API's
// degraded behavior on short inputs.
func NewWinstonClient(endpoint, apiKey string, minLength int, timeout time.Duration) (*WinstonClient, error) {
	if endpoint == "" {
		return nil, errors.NewConfigInvalid("detector.endpoint", "required")
	}
	if apiKey == "" {
		return nil, errors.NewConfigInvalid("detector.api_key_env", "environment variable is empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &WinstonClient{
		endpoint:  endpoint,
		apiKey:    apiKey,
		minLength: minLength,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type winstonRequest struct {
	Text string `json:"text"`
}

type winstonResponse struct {
	AIScore    *float64 `json:"ai_score"`
	HumanScore *float64 `json:"human_score"`
	Score      *float64 `json:"score"` // older API shape: human score 0-100
}

// Detect scores text. Inputs under the minimum length return a TooShort
// sentinel without calling the API.
func (w *WinstonClient) Detect(ctx context.Context, text string) (Result, error) {
	if len(text) < w.minLength {
		return Result{TooShort: true, AIScore: 1, HumanScore: 0}, nil
	}

	body, err := json.Marshal(winstonRequest{Text: text})
	if err != nil {
		return Result{}, errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{}, errors.NewDetectionFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, errors.NewDetectionFailed(
			fmt.Errorf("winston returned %d: %s", resp.StatusCode, payload))
	}

	var parsed winstonResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, errors.NewDetectionFailed(fmt.Errorf("malformed response: %w", err))
	}

	return parsed.toResult()
}

func (r winstonResponse) toResult() (Result, error) {
	switch {
	case r.AIScore != nil:
		res := Result{AIScore: *r.AIScore}
		if r.HumanScore != nil {
			res.HumanScore = *r.HumanScore
		} else {
			res.HumanScore = (1 - res.AIScore) * 100
		}
		return res, nil
	case r.Score != nil:
		// Older shape reports a 0-100 human score only.
		return Result{AIScore: 1 - *r.Score/100, HumanScore: *r.Score}, nil
	default:
		return Result{}, errors.NewDetectionFailed(fmt.Errorf("response carries no score"))
	}
}
