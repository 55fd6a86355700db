package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zbeam/zbeam/internal/voice"
)

// Input carries everything BuildUnifiedPrompt needs. The builder has no side
// effects and is deterministic given identical inputs; VariationSeed is the
// only intentionally random element, injected purely to defeat upstream
// response caching.
type Input struct {
	Topic         string
	ComponentType string
	Domain        string
	WordCount     int
	Facts         string
	Context       string
	Voice         *voice.Profile

	// VoiceParams are 0-1 sliders (technical_depth, conversational_tone,
	// sentence_variability, ...) rendered as style guidance.
	VoiceParams map[string]float64

	// EnrichmentParams tune anti-detection guidance strength.
	EnrichmentParams map[string]float64

	VariationSeed string
}

// antiPatternRules steer output away from telltale AI-text patterns.
var antiPatternRules = []string{
	"Vary sentence openings; never start three sentences the same way.",
	"No tricolon lists (three parallel clauses joined by commas).",
	"Prefer concrete numbers and material names over vague intensifiers.",
	"Avoid the words 'delve', 'showcase', 'elevate', 'seamless', and 'cutting-edge'.",
	"Allow minor natural asymmetries: not every paragraph needs equal length.",
}

// BuildUnifiedPrompt composes the full generation prompt for one component.
func BuildUnifiedPrompt(in Input) (string, error) {
	spec, err := SpecFor(in.ComponentType)
	if err != nil {
		return "", err
	}
	domain, err := DomainFor(in.Domain)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Write the %s for %q in the %s domain.\n", in.ComponentType, in.Topic, domain.Name)
	fmt.Fprintf(&b, "Audience: %s.\n", domain.Audience)
	fmt.Fprintf(&b, "%s\n\n", domain.Guidance)

	if in.Context != "" {
		fmt.Fprintf(&b, "Material context: %s\n\n", in.Context)
	}
	if in.Facts != "" {
		fmt.Fprintf(&b, "Facts to draw on:\n%s\n\n", in.Facts)
	}

	if in.Voice != nil {
		fmt.Fprintf(&b, "Write in the voice of %s (%s).\n", in.Voice.Name, in.Voice.Country)
		for _, pattern := range in.Voice.SentencePatterns {
			fmt.Fprintf(&b, "- Sentence style: %s\n", pattern)
		}
		for _, v := range in.Voice.Vocabulary {
			fmt.Fprintf(&b, "- Vocabulary: %s\n", v)
		}
		for _, g := range in.Voice.GrammarNorms {
			fmt.Fprintf(&b, "- Grammar: %s\n", g)
		}

		target := SentenceTargetFor(in.WordCount, in.Voice.AvgWordsPerSentence, in.Voice.Distribution)
		fmt.Fprintf(&b, "Length: about %d words in %d-%d sentences (%s).\n",
			in.WordCount, target.Min, target.Max, target.Distribution)
	} else {
		fmt.Fprintf(&b, "Length: about %d words.\n", in.WordCount)
	}
	b.WriteString("\n")

	writeSliders(&b, "Style sliders (0 = minimal, 1 = maximal)", in.VoiceParams)
	writeSliders(&b, "Enrichment sliders", in.EnrichmentParams)

	b.WriteString("Avoid AI-text patterns:\n")
	for _, rule := range antiPatternRules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Format: %s\n", spec.FormatRule)

	if in.VariationSeed != "" {
		fmt.Fprintf(&b, "\n[variation:%s]\n", in.VariationSeed)
	}

	return b.String(), nil
}

func writeSliders(b *strings.Builder, label string, params map[string]float64) {
	if len(params) == 0 {
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString(label + ":\n")
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %.2f\n", k, params[k])
	}
	b.WriteString("\n")
}

// escalations are corrective instructions appended per retry attempt; the
// last entry applies to every attempt beyond the ladder.
var escalations = []string{
	"RETRY GUIDANCE: the previous draft read as machine-written (%s). Vary sentence length more and loosen the rhythm.",
	"RETRY GUIDANCE: still detected (%s). Restructure the opening entirely, merge or split sentences, and work in one unexpected but accurate detail.",
	"RETRY GUIDANCE: final attempt (%s). Maximum variation: break all previous patterns, change paragraph structure, and write as if drafting from scratch.",
}

// AdjustOnFailure appends escalating corrective instructions to a prompt for
// retry attempt n (1-based retry count).
func AdjustOnFailure(prompt, failureReason string, attempt int) string {
	if attempt < 1 {
		return prompt
	}
	idx := attempt - 1
	if idx >= len(escalations) {
		idx = len(escalations) - 1
	}
	return prompt + "\n" + fmt.Sprintf(escalations[idx], failureReason) + "\n"
}
