package tuner

import (
	"sort"

	"github.com/zbeam/zbeam/internal/detect"
)

// Baseline returns the default parameter set for a component type, computed
// fresh each call so callers can mutate their copy freely.
func Baseline(componentType string) Params {
	p := Params{
		Temperature:           0.8,
		FrequencyPenalty:      0.3,
		PresencePenalty:       0.2,
		MaxTokens:             800,
		ImperfectionTolerance: 0.3,
		Voice: map[string]float64{
			SliderTechnicalDepth:      0.6,
			SliderConversationalTone:  0.4,
			SliderSentenceVariability: 0.5,
			SliderLexicalVariety:      0.5,
		},
	}

	switch componentType {
	case "subtitle":
		p.MaxTokens = 80
		p.Temperature = 0.9
	case "caption":
		p.MaxTokens = 300
	case "faq":
		p.MaxTokens = 1200
		p.Temperature = 0.7
	case "safety":
		p.Voice[SliderTechnicalDepth] = 0.8
		p.Voice[SliderConversationalTone] = 0.2
	}
	return p
}

// OnFailure applies the failure-type-specific retry delta. Uniform failures
// push temperature and imperfection tolerance up; borderline failures get a
// small downward temperature nudge; partial failures bump the variability
// sliders.
func OnFailure(p Params, kind detect.FailureKind) Params {
	out := p.Clone()
	switch kind {
	case detect.FailureUniform:
		out.Temperature += 0.15
		out.ImperfectionTolerance += 0.1
	case detect.FailureBorderline:
		out.Temperature -= 0.05
	case detect.FailurePartial:
		out.Voice[SliderSentenceVariability] += 0.1
		out.Voice[SliderLexicalVariety] += 0.1
	}
	return out.Clamp()
}

// Scores are the six subjective evaluation dimensions, each 0-10.
type Scores struct {
	Clarity           float64 `json:"clarity"`
	Professionalism   float64 `json:"professionalism"`
	TechnicalAccuracy float64 `json:"technical_accuracy"`
	HumanLikeness     float64 `json:"human_likeness"`
	Engagement        float64 `json:"engagement"`
	JargonFree        float64 `json:"jargon_free"`
}

// Severity band deltas for subjective tuning.
const (
	severeBand   = 5.0
	moderateBand = 7.0

	largeDelta  = 0.15
	mediumDelta = 0.07
)

// delta picks the adjustment magnitude for a dimension score.
func delta(score float64) float64 {
	switch {
	case score < severeBand:
		return largeDelta
	case score < moderateBand:
		return mediumDelta
	default:
		return 0
	}
}

// Subjective maps evaluation scores to targeted parameter deltas. Each
// dimension has its own direction; note professionalism and human-likeness
// pull presence_penalty in opposite directions: stiff prose needs fresher
// wording, while prose that reads machine-made needs the penalty relaxed so
// natural repetition can return.
func Subjective(p Params, s Scores) Params {
	out := p.Clone()

	out.Temperature -= delta(s.Clarity)
	out.PresencePenalty += delta(s.Professionalism)
	out.PresencePenalty -= delta(s.HumanLikeness)
	out.Voice[SliderTechnicalDepth] += delta(s.TechnicalAccuracy)
	out.Voice[SliderTechnicalDepth] -= delta(s.JargonFree)
	out.Voice[SliderConversationalTone] += delta(s.Engagement)

	return out.Clamp()
}

// exploration step sizes
const (
	exploreTempStep   = 0.1
	exploreSliderStep = 0.1
)

// Explore perturbs the parameters with probability rate: temperature moves
// ±0.1 and one randomly chosen voice slider moves ±0.1. Returns the input
// unchanged when the roll fails.
func Explore(p Params, rng RandomSource, rate float64) Params {
	if rng.Float64() >= rate {
		return p
	}

	out := p.Clone()

	if rng.Float64() < 0.5 {
		out.Temperature += exploreTempStep
	} else {
		out.Temperature -= exploreTempStep
	}

	keys := make([]string, 0, len(out.Voice))
	for k := range out.Voice {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		k := keys[rng.Intn(len(keys))]
		if rng.Float64() < 0.5 {
			out.Voice[k] += exploreSliderStep
		} else {
			out.Voice[k] -= exploreSliderStep
		}
	}

	return out.Clamp()
}
