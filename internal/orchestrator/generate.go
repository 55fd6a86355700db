package orchestrator

import (
	"context"
	"fmt"

	"github.com/zbeam/zbeam/internal/config"
	"github.com/zbeam/zbeam/internal/detect"
	"github.com/zbeam/zbeam/internal/feedback"
	"github.com/zbeam/zbeam/internal/llm"
	"github.com/zbeam/zbeam/internal/prompt"
	"github.com/zbeam/zbeam/internal/store"
	"github.com/zbeam/zbeam/internal/tuner"
	"github.com/zbeam/zbeam/internal/voice"
)

const systemPrompt = "You are a technical copywriter for industrial laser-cleaning equipment. " +
	"Write factual, specific prose that sounds like an experienced human engineer."

// Generate runs the retry loop for one material and component type.
func (o *Orchestrator) Generate(ctx context.Context, material, componentType string) (*Result, error) {
	item, err := o.store.ItemData(material)
	if err != nil {
		return nil, err
	}
	spec, err := prompt.SpecFor(componentType)
	if err != nil {
		return nil, err
	}

	authorID := store.AuthorID(material, item, o.voices.PoolSize())
	profile, err := o.voices.Get(authorID)
	if err != nil {
		return nil, err
	}

	facts := store.FormatFacts(item)
	contextStr := store.BuildContext(item)
	wordCount := spec.MinWords + o.rng.Intn(spec.MaxWords-spec.MinWords+1)

	successes, total, err := o.attempts.SuccessRate(componentType, curriculumWindow)
	if err != nil {
		return nil, err
	}
	threshold, band := adaptiveThreshold(o.cfg.Generation.AcceptanceThreshold, successes, total)
	o.logger.Printf("[gen] %s/%s author=%d words=%d band=%s threshold=%.3f",
		material, componentType, authorID, wordCount, band, threshold)

	result := &Result{
		Material:      material,
		ComponentType: componentType,
		Threshold:     threshold,
		Band:          band,
	}

	maxAttempts := o.cfg.Generation.MaxAttempts
	extended := false
	var lastFailure *detect.Failure
	lastReason := ""

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		params := o.resolveParams(componentType, lastFailure)

		text, genErr := o.generateOnce(ctx, generateOnceInput{
			material:      material,
			componentType: componentType,
			wordCount:     wordCount,
			facts:         facts,
			context:       contextStr,
			profile:       profile,
			params:        params,
			attempt:       attempt,
			lastReason:    lastReason,
		})
		if genErr != nil {
			o.logger.Printf("[gen] attempt %d: api failure: %v", attempt, genErr)
			lastReason = genErr.Error()
			result.FailureReason = lastReason
			continue
		}

		detection, detErr := o.detector.Detect(ctx, text)
		if detErr != nil {
			o.logger.Printf("[gen] attempt %d: detector failure: %v", attempt, detErr)
			lastReason = detErr.Error()
			result.FailureReason = lastReason
			result.Text = text
			continue
		}

		readability := detect.CheckReadability(text)

		// Dual acceptance gate: the deployment bar (detector threshold and
		// readability) AND the learning target must both hold. Meeting only
		// the deployment bar is not success.
		gatePassed := detection.AIScore <= threshold &&
			readability.Readable &&
			detection.HumanScore >= o.cfg.Generation.LearningTarget

		// Extraction runs before the attempt is recorded. A draft that
		// passes the gate but yields no usable content is a failed attempt;
		// it must not feed the curriculum stats or the sweet-spot pool.
		var content any
		var exErr error
		if gatePassed {
			content, exErr = store.ExtractComponent(text, componentType)
		}
		accepted := gatePassed && exErr == nil

		if _, logErr := o.attempts.Record(feedback.Attempt{
			Material:      material,
			ComponentType: componentType,
			AttemptNum:    attempt,
			Success:       accepted,
			AIScore:       detection.AIScore,
			HumanScore:    detection.HumanScore,
			Readable:      readability.Readable,
			Params:        params,
		}); logErr != nil {
			o.logger.Printf("[gen] attempt %d: failed to record attempt: %v", attempt, logErr)
		}

		result.Text = text
		result.AIScore = detection.AIScore
		result.HumanScore = detection.HumanScore

		if accepted {
			if err := o.store.WriteComponent(material, componentType, content); err != nil {
				return nil, err
			}

			result.Success = true
			result.Content = content
			result.FailureReason = ""
			o.logger.Printf("[gen] accepted on attempt %d (ai=%.3f human=%.1f)",
				attempt, detection.AIScore, detection.HumanScore)
			return result, nil
		}

		if exErr != nil {
			o.logger.Printf("[gen] attempt %d: %v", attempt, exErr)
			lastReason = exErr.Error()
			result.FailureReason = lastReason
			continue
		}

		failure := detect.AnalyzeFailure(detection, readability.Readable, threshold)
		lastFailure = &failure
		lastReason = fmt.Sprintf("ai score %.2f vs threshold %.2f, human %.0f%% vs target %.0f%%",
			detection.AIScore, threshold, detection.HumanScore, o.cfg.Generation.LearningTarget)
		result.FailureReason = lastReason

		// A close miss earns one extra attempt, once, within the hard cap.
		if failure.Close && !extended && maxAttempts < config.AbsoluteMaxAttempts {
			maxAttempts++
			extended = true
			o.logger.Printf("[gen] close miss, extending attempt budget to %d", maxAttempts)
		}

		o.logger.Printf("[gen] attempt %d rejected (%s, kind=%s)", attempt, lastReason, failure.Kind)
	}

	return result, nil
}

// resolveParams builds the attempt's parameters in priority order: best
// historical parameters (pooled globally across materials) deep-merged over
// fresh baseline defaults, then failure-type deltas on retries, then a
// random exploration step.
func (o *Orchestrator) resolveParams(componentType string, lastFailure *detect.Failure) tuner.Params {
	params := tuner.Baseline(componentType)

	if best, err := o.spots.Best(componentType); err != nil {
		o.logger.Printf("[gen] sweet-spot lookup failed: %v", err)
	} else if best != nil {
		params = params.Merge(*best)
	}

	if lastFailure != nil {
		params = tuner.OnFailure(params, lastFailure.Kind)
	}

	return tuner.Explore(params, o.rng, o.cfg.Generation.ExplorationRate)
}

type generateOnceInput struct {
	material      string
	componentType string
	wordCount     int
	facts         string
	context       string
	profile       *voice.Profile
	params        tuner.Params
	attempt       int
	lastReason    string
}

// generateOnce builds the prompt for one attempt and calls the generation API.
func (o *Orchestrator) generateOnce(ctx context.Context, in generateOnceInput) (string, error) {
	p, err := prompt.BuildUnifiedPrompt(prompt.Input{
		Topic:            in.material,
		ComponentType:    in.componentType,
		WordCount:        in.wordCount,
		Facts:            in.facts,
		Context:          in.context,
		Voice:            in.profile,
		VoiceParams:      in.params.Voice,
		EnrichmentParams: map[string]float64{"imperfection_tolerance": in.params.ImperfectionTolerance},
		VariationSeed:    fmt.Sprintf("%06x", o.rng.Intn(1<<24)),
	})
	if err != nil {
		return "", err
	}

	if in.attempt > 1 {
		p = prompt.AdjustOnFailure(p, in.lastReason, in.attempt-1)
	}

	return o.client.Complete(ctx, llm.Request{
		Prompt:           p,
		SystemPrompt:     systemPrompt,
		MaxTokens:        in.params.MaxTokens,
		Temperature:      in.params.Temperature,
		FrequencyPenalty: in.params.FrequencyPenalty,
		PresencePenalty:  in.params.PresencePenalty,
	})
}
