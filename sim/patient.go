// Defines the Patient state machine: treatment cycles, follow-up, and the
// cost / time / QALY accrual of each step.

package sim

import (
	"fmt"
	"math"

	"github.com/hecon/cohort-sim/sim/trace"
)

// Phase is a patient's position in the care pathway.
// Transitions: treatment → dead_during_treatment, or
// treatment → followup → completed_followup.
type Phase string

const (
	PhaseTreatment           Phase = "treatment"
	PhaseFollowUp            Phase = "followup"
	PhaseDeadDuringTreatment Phase = "dead_during_treatment"
	PhaseCompletedFollowUp   Phase = "completed_followup"
)

// Terminal reports whether no further events follow this phase.
func (ph Phase) Terminal() bool {
	return ph == PhaseDeadDuringTreatment || ph == PhaseCompletedFollowUp
}

// InvariantError reports a violated state-machine invariant. It is fatal to
// the run that produced it.
type InvariantError struct {
	PatientID int
	Phase     Phase
	Cycle     int
	Clock     float64
	Msg       string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("patient %d: %s (phase=%s cycle=%d clock=%.4f)", e.PatientID, e.Msg, e.Phase, e.Cycle, e.Clock)
}

// segment is the accrual drawn at the start of a delay and applied when the
// delay elapses.
type segment struct {
	kind     trace.EventKind
	duration float64
	cost     float64
	qaly     float64
	last     bool // final follow-up interval
}

// Patient is one simulated individual. It is mutated only through Advance,
// which the Simulator calls from the patient's own wake-up events.
type Patient struct {
	ID              int
	CyclesCompleted int
	Alive           bool
	Phase           Phase
	TotalCost       float64 // euro
	TotalTime       float64 // days
	QALYs           float64
	FollowUpTime    float64 // days spent in follow-up

	params        *Parameters
	pending       *segment
	followUpIndex int // follow-up intervals settled so far
}

// NewPatient creates a patient at the start of its first treatment cycle.
func NewPatient(id int, params *Parameters) *Patient {
	return &Patient{
		ID:     id,
		Alive:  true,
		Phase:  PhaseTreatment,
		params: params,
	}
}

// Step is the outcome of one Advance call.
type Step struct {
	Delay  float64              // time until the patient must be advanced again
	Done   bool                 // patient reached a terminal phase; Delay is meaningless
	Events []trace.PatientEvent // accruals settled during this call
}

// Advance settles the segment whose delay has just elapsed and, unless the
// patient has terminated, draws the next segment and returns its delay.
func (p *Patient) Advance(now float64, s Sampler) (Step, error) {
	var step Step
	if p.pending == nil && p.Phase.Terminal() {
		return step, p.invariant(now, "advanced after termination")
	}
	if p.pending != nil {
		step.Events = p.settle(now)
	}
	if p.Phase.Terminal() {
		step.Done = true
		return step, nil
	}
	seg, err := p.draw(now, s)
	if err != nil {
		return step, err
	}
	p.pending = seg
	step.Delay = seg.duration
	return step, nil
}

func (p *Patient) draw(now float64, s Sampler) (*segment, error) {
	prm := p.params
	switch p.Phase {
	case PhaseTreatment:
		if p.CyclesCompleted >= prm.MaxTreatmentCycles {
			return nil, p.invariant(now, "treatment cycle index exceeds maximum")
		}
		if s.Bernoulli(prm.DeathProbability) {
			d, err := p.duration(now, s.Gamma(prm.DeathGammaShape, prm.DeathGammaScale))
			if err != nil {
				return nil, err
			}
			return &segment{
				kind:     trace.KindDeath,
				duration: d,
				cost:     prm.DailyCycleCost * d,
				qaly:     p.qaly(d, prm.TreatmentQoLWeight),
			}, nil
		}
		d, err := p.duration(now, s.Gamma(prm.CycleGammaShape, prm.CycleGammaScale))
		if err != nil {
			return nil, err
		}
		return &segment{
			kind:     trace.KindCycleCompleted,
			duration: d,
			cost:     prm.InitialCycleCost + prm.DailyCycleCost*d,
			qaly:     p.qaly(d, prm.TreatmentQoLWeight),
		}, nil

	case PhaseFollowUp:
		n := prm.FollowUpIntervals()
		if p.followUpIndex >= n {
			return nil, p.invariant(now, "follow-up interval index exceeds horizon")
		}
		interval, last := prm.FollowUpIntervalDays, p.followUpIndex == n-1
		if last {
			interval = prm.FollowUpHorizonDays - float64(p.followUpIndex)*prm.FollowUpIntervalDays
		}
		if s.Bernoulli(prm.DeathProbability) {
			d, err := p.duration(now, s.Gamma(prm.DeathGammaShape, prm.DeathGammaScale))
			if err != nil {
				return nil, err
			}
			d = math.Min(d, interval)
			return &segment{kind: trace.KindDeath, duration: d, qaly: p.qaly(d, prm.FollowUpQoLWeight)}, nil
		}
		return &segment{
			kind:     trace.KindFollowUpInterval,
			duration: interval,
			qaly:     p.qaly(interval, prm.FollowUpQoLWeight),
			last:     last,
		}, nil
	}
	return nil, p.invariant(now, fmt.Sprintf("no transition from phase %q", p.Phase))
}

// settle applies the pending segment and performs the resulting transition.
func (p *Patient) settle(now float64) []trace.PatientEvent {
	seg := p.pending
	p.pending = nil

	p.TotalCost += seg.cost
	p.TotalTime += seg.duration
	p.QALYs += seg.qaly
	if p.Phase == PhaseFollowUp {
		p.FollowUpTime += seg.duration
		p.followUpIndex++
	}

	switch seg.kind {
	case trace.KindCycleCompleted:
		p.CyclesCompleted++
	case trace.KindDeath:
		p.Alive = false
		if p.Phase == PhaseTreatment {
			p.Phase = PhaseDeadDuringTreatment
		} else {
			p.Phase = PhaseCompletedFollowUp
		}
	}
	events := []trace.PatientEvent{p.event(now, seg.kind, seg.duration, seg.cost, seg.qaly)}

	if seg.kind == trace.KindCycleCompleted && p.CyclesCompleted == p.params.MaxTreatmentCycles {
		p.Phase = PhaseFollowUp
		p.TotalCost += p.params.FollowUpLumpsumCost
		events = append(events, p.event(now, trace.KindFollowUpEntered, 0, p.params.FollowUpLumpsumCost, 0))
		if p.params.FollowUpHorizonDays == 0 {
			seg.last = true
		}
	}
	if seg.last && p.Alive {
		p.Phase = PhaseCompletedFollowUp
		events = append(events, p.event(now, trace.KindFollowUpCompleted, 0, 0, 0))
	}
	return events
}

// duration rejects draws a Gamma distribution cannot produce.
func (p *Patient) duration(now, d float64) (float64, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, p.invariant(now, fmt.Sprintf("invalid duration draw %v", d))
	}
	return d, nil
}

func (p *Patient) qaly(days, weight float64) float64 {
	return days / p.params.DaysPerYear * weight
}

func (p *Patient) event(now float64, kind trace.EventKind, d, cost, qaly float64) trace.PatientEvent {
	return trace.PatientEvent{
		PatientID: p.ID,
		Clock:     now,
		Kind:      kind,
		Cycle:     p.CyclesCompleted,
		Phase:     string(p.Phase),
		Duration:  d,
		CostDelta: cost,
		QALYDelta: qaly,
		TotalCost: p.TotalCost,
		QALYs:     p.QALYs,
	}
}

func (p *Patient) invariant(now float64, msg string) error {
	return &InvariantError{PatientID: p.ID, Phase: p.Phase, Cycle: p.CyclesCompleted, Clock: now, Msg: msg}
}

// PatientRecord is the finalized, read-only view of a patient handed to callers.
type PatientRecord struct {
	ID              int     `yaml:"id"`
	Phase           Phase   `yaml:"phase"`
	Alive           bool    `yaml:"alive"`
	CyclesCompleted int     `yaml:"cycles_completed"`
	TotalCost       float64 `yaml:"total_cost"`
	TotalTime       float64 `yaml:"total_time"`
	QALYs           float64 `yaml:"qalys"`
	FollowUpTime    float64 `yaml:"followup_time"`
}

// Record snapshots the patient's totals.
func (p *Patient) Record() PatientRecord {
	return PatientRecord{
		ID:              p.ID,
		Phase:           p.Phase,
		Alive:           p.Alive,
		CyclesCompleted: p.CyclesCompleted,
		TotalCost:       p.TotalCost,
		TotalTime:       p.TotalTime,
		QALYs:           p.QALYs,
		FollowUpTime:    p.FollowUpTime,
	}
}

// DiedInFollowUp reports a death after all treatment cycles were survived.
func (r PatientRecord) DiedInFollowUp() bool {
	return !r.Alive && r.Phase == PhaseCompletedFollowUp
}
