package detect

// FailureKind classifies why an attempt missed the acceptance bar, which in
// turn selects the parameter adjustment for the retry.
type FailureKind string

const (
	// FailureUniform: the text scored far above the threshold or collapsed
	// structurally; the voice is too even and needs more freedom.
	FailureUniform FailureKind = "uniform"
	// FailureBorderline: a near miss; nudge gently rather than swing.
	FailureBorderline FailureKind = "borderline"
	// FailurePartial: a clear miss but not catastrophic; push specific
	// voice sliders.
	FailurePartial FailureKind = "partial"
)

// Margins above the threshold separating the failure bands.
const (
	borderlineMargin = 0.10
	uniformMargin    = 0.30

	// closeMargin marks misses near enough to justify one extra attempt.
	closeMargin = 0.05
)

// Failure describes one rejected attempt.
type Failure struct {
	Kind FailureKind

	// Close is true when the score missed the threshold by at most
	// closeMargin; the orchestrator may extend the attempt budget by one.
	Close bool

	// Readable carries the readability gate outcome for diagnostics.
	Readable bool
}

// AnalyzeFailure classifies a rejected detector result against the adaptive
// threshold in effect for this run.
func AnalyzeFailure(res Result, readable bool, threshold float64) Failure {
	excess := res.AIScore - threshold

	f := Failure{
		Close:    excess > 0 && excess <= closeMargin,
		Readable: readable,
	}

	switch {
	case !readable || excess >= uniformMargin || res.TooShort:
		f.Kind = FailureUniform
	case excess <= borderlineMargin:
		f.Kind = FailureBorderline
	default:
		f.Kind = FailurePartial
	}
	return f
}
