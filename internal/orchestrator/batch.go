package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/zbeam/zbeam/internal/detect"
	"github.com/zbeam/zbeam/internal/feedback"
	"github.com/zbeam/zbeam/internal/llm"
	"github.com/zbeam/zbeam/internal/prompt"
	"github.com/zbeam/zbeam/internal/store"
)

// BatchGenerator amortizes the per-call detector cost across several short
// items: one prompt produces marker-delimited sections for N materials, the
// extracted texts are concatenated and scored with a single detector call,
// and that score is broadcast to every item in the batch.
type BatchGenerator struct {
	orch *Orchestrator
}

// NewBatchGenerator wraps an orchestrator for batch runs.
func NewBatchGenerator(o *Orchestrator) *BatchGenerator {
	return &BatchGenerator{orch: o}
}

// CalculateBatchSize returns the smallest batch whose combined output is
// expected to clear the detector's minimum text length, capped at maxSize.
func CalculateBatchSize(componentType string, detectorMinLength, maxSize int) (int, error) {
	spec, err := prompt.SpecFor(componentType)
	if err != nil {
		return 0, err
	}

	size := 1
	for size*spec.TargetChars < detectorMinLength && size < maxSize {
		size++
	}
	return size, nil
}

// SplitBatches partitions materials into sub-batches of at most size items.
// Seven materials with size four yield [4 3].
func SplitBatches(materials []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(materials); start += size {
		end := start + size
		if end > len(materials) {
			end = len(materials)
		}
		batches = append(batches, materials[start:end])
	}
	return batches
}

// ItemResult is one material's outcome within a batch run.
type ItemResult struct {
	Material      string  `json:"material"`
	Success       bool    `json:"success"`
	Content       any     `json:"content,omitempty"`
	Text          string  `json:"text,omitempty"`
	AIScore       float64 `json:"ai_score"`
	HumanScore    float64 `json:"human_score"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

// BatchResult summarizes a batch run across all sub-batches.
type BatchResult struct {
	ComponentType string       `json:"component_type"`
	SubBatches    int          `json:"sub_batches"`
	Succeeded     int          `json:"succeeded"`
	Failed        int          `json:"failed"`
	Threshold     float64      `json:"threshold"`
	Band          Band         `json:"band"`
	Items         []ItemResult `json:"items"`
}

// Generate runs batch generation for the materials. One material's failure
// never aborts the batch; every item gets an individual result.
func (b *BatchGenerator) Generate(ctx context.Context, materials []string, componentType string) (*BatchResult, error) {
	if len(materials) == 0 {
		return nil, fmt.Errorf("no materials given")
	}

	o := b.orch
	size, err := CalculateBatchSize(componentType, o.cfg.Detector.MinLength, o.cfg.Batch.MaxSize)
	if err != nil {
		return nil, err
	}

	successes, total, err := o.attempts.SuccessRate(componentType, curriculumWindow)
	if err != nil {
		return nil, err
	}
	threshold, band := adaptiveThreshold(o.cfg.Generation.AcceptanceThreshold, successes, total)

	batches := SplitBatches(materials, size)
	result := &BatchResult{
		ComponentType: componentType,
		SubBatches:    len(batches),
		Threshold:     threshold,
		Band:          band,
	}

	for _, batch := range batches {
		items := b.generateSubBatch(ctx, batch, componentType, threshold)
		for _, item := range items {
			if item.Success {
				result.Succeeded++
			} else {
				result.Failed++
			}
		}
		result.Items = append(result.Items, items...)
	}
	return result, nil
}

func (b *BatchGenerator) generateSubBatch(ctx context.Context, materials []string, componentType string, threshold float64) []ItemResult {
	o := b.orch
	items := make([]ItemResult, len(materials))
	for i, m := range materials {
		items[i] = ItemResult{Material: m}
	}

	batchPrompt, err := b.buildBatchPrompt(materials, componentType)
	if err != nil {
		failAll(items, err.Error())
		return items
	}

	params := o.resolveParams(componentType, nil)
	raw, err := o.client.Complete(ctx, llm.Request{
		Prompt:           batchPrompt,
		SystemPrompt:     systemPrompt,
		MaxTokens:        params.MaxTokens * len(materials),
		Temperature:      params.Temperature,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	})
	if err != nil {
		failAll(items, err.Error())
		return items
	}

	// Parse each material's section; missing sections fail individually.
	texts := make(map[string]string, len(materials))
	var combined strings.Builder
	for i := range items {
		text, ok := extractMarkedSection(raw, items[i].Material)
		if !ok {
			items[i].FailureReason = "no marked section in batch output"
			// An unparsed material is still a failed attempt; it enters the
			// learning history like any gate rejection.
			if _, logErr := o.attempts.Record(feedback.Attempt{
				Material:      items[i].Material,
				ComponentType: componentType,
				AttemptNum:    1,
				Success:       false,
				Readable:      false,
				Params:        params,
			}); logErr != nil {
				o.logger.Printf("[batch] failed to record attempt for %s: %v", items[i].Material, logErr)
			}
			continue
		}
		texts[items[i].Material] = text
		items[i].Text = text
		combined.WriteString(text)
		combined.WriteString("\n\n")
	}
	if len(texts) == 0 {
		return items
	}

	// One detector call for the whole sub-batch; the score is broadcast.
	detection, err := o.detector.Detect(ctx, combined.String())
	if err != nil {
		failAll(items, err.Error())
		return items
	}

	for i := range items {
		text, ok := texts[items[i].Material]
		if !ok {
			continue
		}

		items[i].AIScore = detection.AIScore
		items[i].HumanScore = detection.HumanScore

		readability := detect.CheckReadability(text)
		gatePassed := detection.AIScore <= threshold &&
			readability.Readable &&
			detection.HumanScore >= o.cfg.Generation.LearningTarget

		// As in the single-material loop, extraction must succeed before
		// the attempt counts as a success in the learning history.
		var content any
		var exErr error
		if gatePassed {
			content, exErr = store.ExtractComponent(text, componentType)
		}
		accepted := gatePassed && exErr == nil

		if _, logErr := o.attempts.Record(feedback.Attempt{
			Material:      items[i].Material,
			ComponentType: componentType,
			AttemptNum:    1,
			Success:       accepted,
			AIScore:       detection.AIScore,
			HumanScore:    detection.HumanScore,
			Readable:      readability.Readable,
			Params:        params,
		}); logErr != nil {
			o.logger.Printf("[batch] failed to record attempt for %s: %v", items[i].Material, logErr)
		}

		if exErr != nil {
			items[i].FailureReason = exErr.Error()
			continue
		}
		if !accepted {
			items[i].FailureReason = fmt.Sprintf("ai score %.2f vs threshold %.2f, human %.0f%% vs target %.0f%%",
				detection.AIScore, threshold, detection.HumanScore, o.cfg.Generation.LearningTarget)
			continue
		}

		if wErr := o.store.WriteComponent(items[i].Material, componentType, content); wErr != nil {
			items[i].FailureReason = wErr.Error()
			continue
		}
		items[i].Success = true
		items[i].Content = content
	}
	return items
}

// buildBatchPrompt composes one prompt covering every material, each wrapped
// in [MATERIAL: name] markers on output.
func (b *BatchGenerator) buildBatchPrompt(materials []string, componentType string) (string, error) {
	o := b.orch
	spec, err := prompt.SpecFor(componentType)
	if err != nil {
		return "", err
	}
	domain, err := prompt.DomainFor("")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write the %s for each of the %d materials below, for the %s domain.\n",
		componentType, len(materials), domain.Name)
	fmt.Fprintf(&sb, "Audience: %s.\n%s\n\n", domain.Audience, domain.Guidance)
	fmt.Fprintf(&sb, "Wrap each material's output in markers, exactly:\n")
	sb.WriteString("[MATERIAL: <name>]\n<content>\n[/MATERIAL: <name>]\n\n")
	fmt.Fprintf(&sb, "Per material: about %d words. %s\n\n", spec.DefaultWords, spec.FormatRule)

	for _, m := range materials {
		item, err := o.store.ItemData(m)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "=== %s ===\n%s\n", m, store.BuildContext(item))
		if facts := store.FormatFacts(item); facts != "" {
			sb.WriteString(facts + "\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "[variation:%06x]\n", o.rng.Intn(1<<24))
	return sb.String(), nil
}

// extractMarkedSection pulls one material's content from marker-delimited
// batch output.
func extractMarkedSection(raw, material string) (string, bool) {
	pattern := regexp.MustCompile(`(?s)\[MATERIAL:\s*` + regexp.QuoteMeta(material) + `\s*\](.*?)\[/MATERIAL:\s*` + regexp.QuoteMeta(material) + `\s*\]`)
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	text := strings.TrimSpace(m[1])
	if text == "" {
		return "", false
	}
	return text, true
}

func failAll(items []ItemResult, reason string) {
	for i := range items {
		if items[i].FailureReason == "" {
			items[i].FailureReason = reason
		}
	}
}
