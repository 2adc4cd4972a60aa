package sim

import (
	"testing"

	"github.com/hecon/cohort-sim/sim/internal/testutil"
)

// scriptedSource hands every patient its own ScriptedSampler built by newFor.
type scriptedSource struct {
	newFor   func(id int) *testutil.ScriptedSampler
	samplers map[int]*testutil.ScriptedSampler
}

func newScriptedSource(newFor func(id int) *testutil.ScriptedSampler) *scriptedSource {
	return &scriptedSource{newFor: newFor, samplers: make(map[int]*testutil.ScriptedSampler)}
}

func (s *scriptedSource) ForPatient(id int) Sampler {
	if sm, ok := s.samplers[id]; ok {
		return sm
	}
	sm := s.newFor(id)
	s.samplers[id] = sm
	return sm
}

// mustParams validates p, failing the test on error.
func mustParams(t *testing.T, p Parameters) *Parameters {
	t.Helper()
	params, err := NewParameters(p)
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	return params
}

// drive advances a single patient until it terminates, returning every
// settled event and the wake-up times it passed through.
func drive(t *testing.T, p *Patient, s Sampler) ([]float64, error) {
	t.Helper()
	now := 0.0
	wakes := []float64{now}
	for i := 0; i < 10000; i++ {
		step, err := p.Advance(now, s)
		if err != nil {
			return wakes, err
		}
		if step.Done {
			return wakes, nil
		}
		now += step.Delay
		wakes = append(wakes, now)
	}
	t.Fatal("patient did not terminate")
	return nil, nil
}
