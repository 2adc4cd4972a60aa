package testutil

// ScriptedSampler replays fixed outcomes instead of drawing random ones.
// Deaths[i] is the i-th Bernoulli outcome and Durations[i] the i-th Gamma
// draw; once a script is exhausted its last value repeats (false / 0 when empty).
type ScriptedSampler struct {
	Deaths    []bool
	Durations []float64

	BernoulliCalls int
	GammaCalls     int
}

// Bernoulli ignores p and returns the next scripted outcome.
func (s *ScriptedSampler) Bernoulli(p float64) bool {
	s.BernoulliCalls++
	if len(s.Deaths) == 0 {
		return false
	}
	i := min(s.BernoulliCalls-1, len(s.Deaths)-1)
	return s.Deaths[i]
}

// Gamma ignores shape and scale and returns the next scripted duration.
func (s *ScriptedSampler) Gamma(shape, scale float64) float64 {
	s.GammaCalls++
	if len(s.Durations) == 0 {
		return 0
	}
	i := min(s.GammaCalls-1, len(s.Durations)-1)
	return s.Durations[i]
}
