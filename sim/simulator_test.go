package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hecon/cohort-sim/sim/internal/testutil"
	"github.com/hecon/cohort-sim/sim/trace"
)

func TestRun_Cardinality(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	records, err := Run(250, params, 123)
	require.NoError(t, err)
	require.Len(t, records, 250)
	for i, r := range records {
		assert.Equal(t, i, r.ID, "records must be in creation order")
	}
}

func TestRun_SameSeedIdenticalResults(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	a, err := Run(500, params, 42)
	require.NoError(t, err)
	b, err := Run(500, params, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_DifferentSeedsDiffer(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	a, err := Run(100, params, 1)
	require.NoError(t, err)
	b, err := Run(100, params, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRun_InvariantsHold(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	records, err := Run(1000, params, 7)
	require.NoError(t, err)

	for _, r := range records {
		assert.GreaterOrEqual(t, r.TotalCost, 0.0)
		assert.GreaterOrEqual(t, r.TotalTime, 0.0)
		assert.GreaterOrEqual(t, r.QALYs, 0.0)
		assert.LessOrEqual(t, r.CyclesCompleted, params.MaxTreatmentCycles)

		switch r.Phase {
		case PhaseDeadDuringTreatment:
			assert.False(t, r.Alive)
			assert.Less(t, r.CyclesCompleted, params.MaxTreatmentCycles)
			assert.Zero(t, r.FollowUpTime)
		case PhaseCompletedFollowUp:
			assert.Equal(t, params.MaxTreatmentCycles, r.CyclesCompleted)
			assert.GreaterOrEqual(t, r.TotalCost, params.FollowUpLumpsumCost)
		default:
			t.Errorf("patient %d ended in non-terminal phase %q", r.ID, r.Phase)
		}
	}
}

func TestRun_NeverDies(t *testing.T) {
	p := DefaultParameters()
	p.DeathProbability = 0
	params := mustParams(t, p)
	records, err := Run(200, params, 99)
	require.NoError(t, err)

	for _, r := range records {
		assert.Equal(t, PhaseCompletedFollowUp, r.Phase)
		assert.True(t, r.Alive)
		assert.Equal(t, params.MaxTreatmentCycles, r.CyclesCompleted)
		assert.InDelta(t, params.FollowUpHorizonDays, r.FollowUpTime, 1e-9)
		assert.GreaterOrEqual(t, r.TotalCost, float64(params.MaxTreatmentCycles)*params.InitialCycleCost+params.FollowUpLumpsumCost)
	}
}

func TestRun_AlwaysDies(t *testing.T) {
	p := DefaultParameters()
	p.DeathProbability = 1
	params := mustParams(t, p)
	records, err := Run(200, params, 99)
	require.NoError(t, err)

	for _, r := range records {
		assert.Equal(t, PhaseDeadDuringTreatment, r.Phase)
		assert.False(t, r.Alive)
		assert.Zero(t, r.CyclesCompleted)
		testutil.AssertFloat64Equal(t, "death cost", params.DailyCycleCost*r.TotalTime, r.TotalCost, 1e-12)
	}
}

func TestRun_RejectsBadConfig(t *testing.T) {
	params := mustParams(t, DefaultParameters())

	_, err := Run(0, params, 1)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = Run(10, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	bad := *params
	bad.DeathProbability = 2
	_, err = Run(10, &bad, 1)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestSimulator_TraceIsMonotonicPerPatient(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	tr := trace.NewPatientTrace()
	s, err := NewSimulator(SimConfig{NumPatients: 50, Params: params, Seed: 5, Trace: tr})
	require.NoError(t, err)
	records, err := s.Run()
	require.NoError(t, err)

	for _, r := range records {
		events := tr.ForPatient(r.ID)
		require.NotEmpty(t, events)
		prev := trace.PatientEvent{}
		lumpsums := 0
		for _, ev := range events {
			assert.GreaterOrEqual(t, ev.Clock, prev.Clock)
			assert.GreaterOrEqual(t, ev.TotalCost, prev.TotalCost)
			assert.GreaterOrEqual(t, ev.QALYs, prev.QALYs)
			if ev.Kind == trace.KindFollowUpEntered {
				lumpsums++
			}
			prev = ev
		}
		last := events[len(events)-1]
		assert.InDelta(t, r.TotalTime, last.Clock, 1e-9, "time accrues back to back from 0")
		assert.Equal(t, r.TotalCost, last.TotalCost)
		if r.Phase == PhaseCompletedFollowUp {
			assert.Equal(t, 1, lumpsums)
		} else {
			assert.Zero(t, lumpsums)
		}
	}
	assert.Greater(t, s.EventsProcessed(), len(records))
}

func TestSimulator_TraceDoesNotChangeResults(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	plain, err := Run(100, params, 8)
	require.NoError(t, err)

	s, err := NewSimulator(SimConfig{NumPatients: 100, Params: params, Seed: 8, Trace: trace.NewPatientTrace()})
	require.NoError(t, err)
	traced, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, plain, traced)
}

func TestSimulator_TiesBrokenByCreationOrder(t *testing.T) {
	p := DefaultParameters()
	p.MaxTreatmentCycles = 2
	p.FollowUpHorizonDays = 0
	params := mustParams(t, p)
	src := newScriptedSource(func(int) *testutil.ScriptedSampler {
		return &testutil.ScriptedSampler{Durations: []float64{10}}
	})
	tr := trace.NewPatientTrace()
	s, err := NewSimulator(SimConfig{NumPatients: 3, Params: params, Samplers: src, Trace: tr})
	require.NoError(t, err)
	_, err = s.Run()
	require.NoError(t, err)

	// Every patient completes a cycle at day 10, then at day 20.
	var at10 []int
	for _, ev := range tr.Events {
		if ev.Clock == 10 {
			at10 = append(at10, ev.PatientID)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, at10)
	assert.Equal(t, 20.0, s.Clock)
}

func TestSimulator_InjectedSamplerExactCost(t *testing.T) {
	p := DefaultParameters()
	p.MaxTreatmentCycles = 1
	params := mustParams(t, p)
	src := newScriptedSource(func(id int) *testutil.ScriptedSampler {
		if id == 1 {
			return &testutil.ScriptedSampler{Deaths: []bool{true}, Durations: []float64{4}}
		}
		return &testutil.ScriptedSampler{Deaths: []bool{false}, Durations: []float64{2}}
	})
	s, err := NewSimulator(SimConfig{NumPatients: 2, Params: params, Samplers: src})
	require.NoError(t, err)
	records, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, 5000+250*2.0+3500, records[0].TotalCost)
	assert.Equal(t, PhaseCompletedFollowUp, records[0].Phase)
	assert.Equal(t, 1000.0, records[1].TotalCost)
	assert.Equal(t, PhaseDeadDuringTreatment, records[1].Phase)
}

func TestSimulator_PatientFailureAbortsRun(t *testing.T) {
	params := mustParams(t, DefaultParameters())
	src := newScriptedSource(func(id int) *testutil.ScriptedSampler {
		if id == 2 {
			return &testutil.ScriptedSampler{Durations: []float64{5, -1}}
		}
		return &testutil.ScriptedSampler{Durations: []float64{5}}
	})
	s, err := NewSimulator(SimConfig{NumPatients: 4, Params: params, Samplers: src})
	require.NoError(t, err)

	records, err := s.Run()
	assert.Nil(t, records)
	var ie *InvariantError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, 2, ie.PatientID)
	assert.Equal(t, 5.0, ie.Clock)
}
