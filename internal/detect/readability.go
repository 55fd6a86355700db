package detect

import (
	"strings"
	"unicode"
)

// Readability bounds. Text outside these bands reads as either choppy
// fragments or run-on machine prose.
const (
	minAvgWordsPerSentence = 5.0
	maxAvgWordsPerSentence = 35.0
)

// ReadabilityResult carries the readability gate decision.
type ReadabilityResult struct {
	Readable             bool
	Sentences            int
	AvgWordsPerSentence  float64
	SentenceLengthSpread int // longest minus shortest sentence, in words
}

// CheckReadability applies a sentence-structure heuristic: the text must
// contain at least one complete sentence whose average length falls in a
// human band. It is deliberately cheap; the detector carries the real signal.
func CheckReadability(text string) ReadabilityResult {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ReadabilityResult{Readable: false}
	}

	totalWords := 0
	shortest, longest := -1, 0
	for _, s := range sentences {
		n := len(strings.Fields(s))
		totalWords += n
		if shortest < 0 || n < shortest {
			shortest = n
		}
		if n > longest {
			longest = n
		}
	}

	avg := float64(totalWords) / float64(len(sentences))
	return ReadabilityResult{
		Readable:             avg >= minAvgWordsPerSentence && avg <= maxAvgWordsPerSentence,
		Sentences:            len(sentences),
		AvgWordsPerSentence:  avg,
		SentenceLengthSpread: longest - shortest,
	}
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); hasLetters(s) {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); hasLetters(s) {
		sentences = append(sentences, s)
	}
	return sentences
}

func hasLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
