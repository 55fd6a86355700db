package tuner

import "math/rand"

// RandomSource abstracts the randomness used for exploration so tests can
// inject a deterministic sequence instead of relying on global process state.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// NewSeeded returns a RandomSource backed by math/rand with a fixed seed.
func NewSeeded(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// Scripted replays fixed values; used in tests. Values repeat once exhausted.
type Scripted struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

// Float64 implements RandomSource.
func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

// Intn implements RandomSource.
func (s *Scripted) Intn(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)] % n
	s.ii++
	return v
}
