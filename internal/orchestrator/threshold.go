package orchestrator

// Band is the curriculum stage for a component, derived from its trailing
// success history. Early stages loosen the acceptance bar so the system can
// accumulate a parameter-history base case; mature components are held to
// the configured threshold.
type Band string

const (
	BandLearning  Band = "learning"
	BandImproving Band = "improving"
	BandMature    Band = "mature"
)

// Curriculum band cutoffs.
const (
	learningRate    = 0.10
	learningSamples = 5
	improvingRate   = 0.30
	improvingSample = 15

	learningMultiplier  = 1.33
	improvingMultiplier = 1.10
)

// ThresholdFor reports the threshold and band in effect for a component with
// the given trailing history. The CLI uses it for stats output.
func ThresholdFor(base float64, successes, total int) (float64, Band) {
	return adaptiveThreshold(base, successes, total)
}

// adaptiveThreshold loosens the base AI-score threshold according to the
// trailing success rate. A higher threshold is more lenient (the AI score
// must fall at or below it).
func adaptiveThreshold(base float64, successes, total int) (float64, Band) {
	rate := 0.0
	if total > 0 {
		rate = float64(successes) / float64(total)
	}

	switch {
	case rate < learningRate || total < learningSamples:
		return base * learningMultiplier, BandLearning
	case rate < improvingRate || total < improvingSample:
		return base * improvingMultiplier, BandImproving
	default:
		return base, BandMature
	}
}
