package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdaptiveThreshold(t *testing.T) {
	cases := []struct {
		name      string
		successes int
		total     int
		want      float64
		band      Band
	}{
		{"no history", 0, 0, 0.30 * 1.33, BandLearning},
		{"few samples regardless of rate", 4, 4, 0.30 * 1.33, BandLearning},
		{"low rate with history", 1, 20, 0.30 * 1.33, BandLearning},
		{"moderate rate", 4, 20, 0.30 * 1.10, BandImproving},
		{"high rate but thin history", 9, 10, 0.30 * 1.10, BandImproving},
		{"mature", 10, 20, 0.30, BandMature},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, band := adaptiveThreshold(0.30, tc.successes, tc.total)
			require.InDelta(t, tc.want, got, 1e-9)
			require.Equal(t, tc.band, band)
		})
	}
}
