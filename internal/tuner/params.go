// Package tuner owns generation parameters and the pure functions that
// adjust them: baseline defaults, failure-type deltas, subjective evaluation
// deltas, and bounded random exploration.
package tuner

import "encoding/json"

// Voice slider names. Sliders live in [0,1].
const (
	SliderTechnicalDepth      = "technical_depth"
	SliderConversationalTone  = "conversational_tone"
	SliderSentenceVariability = "sentence_variability"
	SliderLexicalVariety      = "lexical_variety"
)

// Params is one attempt's full generation parameter snapshot.
type Params struct {
	Temperature      float64 `json:"temperature"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
	MaxTokens        int     `json:"max_tokens"`

	// ImperfectionTolerance loosens anti-pattern strictness in prompts.
	ImperfectionTolerance float64 `json:"imperfection_tolerance"`

	// Voice holds 0-1 style sliders rendered into the prompt.
	Voice map[string]float64 `json:"voice"`
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := p
	out.Voice = make(map[string]float64, len(p.Voice))
	for k, v := range p.Voice {
		out.Voice[k] = v
	}
	return out
}

// Merge deep-merges overlay onto p: non-zero overlay scalars win, and
// overlay voice sliders override per key while preserving the rest.
func (p Params) Merge(overlay Params) Params {
	out := p.Clone()

	if overlay.Temperature != 0 {
		out.Temperature = overlay.Temperature
	}
	if overlay.FrequencyPenalty != 0 {
		out.FrequencyPenalty = overlay.FrequencyPenalty
	}
	if overlay.PresencePenalty != 0 {
		out.PresencePenalty = overlay.PresencePenalty
	}
	if overlay.MaxTokens != 0 {
		out.MaxTokens = overlay.MaxTokens
	}
	if overlay.ImperfectionTolerance != 0 {
		out.ImperfectionTolerance = overlay.ImperfectionTolerance
	}
	for k, v := range overlay.Voice {
		out.Voice[k] = v
	}
	return out
}

// Clamp bounds every field to its legal range.
func (p Params) Clamp() Params {
	out := p.Clone()
	out.Temperature = clamp(out.Temperature, 0.1, 1.5)
	out.FrequencyPenalty = clamp(out.FrequencyPenalty, -2, 2)
	out.PresencePenalty = clamp(out.PresencePenalty, -2, 2)
	out.ImperfectionTolerance = clamp(out.ImperfectionTolerance, 0, 1)
	for k, v := range out.Voice {
		out.Voice[k] = clamp(v, 0, 1)
	}
	return out
}

// MarshalJSON-friendly snapshot round-trips through the feedback database.
func (p Params) Snapshot() ([]byte, error) {
	return json.Marshal(p)
}

// FromSnapshot restores a Params from its JSON snapshot.
func FromSnapshot(data []byte) (Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, err
	}
	if p.Voice == nil {
		p.Voice = map[string]float64{}
	}
	return p, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
