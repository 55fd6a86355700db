package prompt

import (
	"fmt"
	"math"

	"github.com/zbeam/zbeam/internal/voice"
)

// variationBand is the ± share applied around the base sentence count.
const variationBand = 0.25

// SentenceTarget is a sentence-count window plus a human-readable
// distribution line for the prompt.
type SentenceTarget struct {
	Min          int
	Max          int
	Distribution string
}

// SentenceTargetFor maps a word-count target and an author's sentence norms
// to a sentence-count window. base = wordCount / avgWordsPerSentence, with a
// ±25% band (floor on the low side, ceil on the high side). Bucket counts
// round from the distribution shares; when the base count is small the
// dominant bucket is floored at one sentence so the guidance never asks for
// zero of the author's main sentence length.
func SentenceTargetFor(wordCount int, avgWordsPerSentence float64, dist voice.Distribution) SentenceTarget {
	base := float64(wordCount) / avgWordsPerSentence

	min := int(math.Floor(base * (1 - variationBand)))
	if min < 1 {
		min = 1
	}
	max := int(math.Ceil(base * (1 + variationBand)))
	if max < min {
		max = min
	}

	short := int(math.Round(base * dist.Short))
	medium := int(math.Round(base * dist.Medium))
	long := int(math.Round(base * dist.Long))

	if short+medium+long == 0 {
		// Tiny targets still get one sentence of the dominant bucket.
		switch dominantBucket(dist) {
		case "short":
			short = 1
		case "long":
			long = 1
		default:
			medium = 1
		}
	}

	return SentenceTarget{
		Min:          min,
		Max:          max,
		Distribution: fmt.Sprintf("%d short, %d medium, %d long", short, medium, long),
	}
}

func dominantBucket(dist voice.Distribution) string {
	switch {
	case dist.Short >= dist.Medium && dist.Short >= dist.Long:
		return "short"
	case dist.Long > dist.Medium:
		return "long"
	default:
		return "medium"
	}
}
