// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hecon/cohort-sim/sim/trace"
)

// SimConfig groups everything a single run needs.
type SimConfig struct {
	NumPatients int
	Params      *Parameters
	Seed        int64
	// Samplers overrides the seeded PartitionedRNG (optional).
	Samplers SamplerSource
	// Trace receives every settled accrual when non-nil.
	Trace *trace.PatientTrace
}

// Simulator is the core object that holds simulation time, the patients, and the event loop.
type Simulator struct {
	Clock float64
	// EventQueue holds the pending patient wake-ups
	EventQueue EventQueue
	Params     *Parameters
	Patients   []*Patient
	Trace      *trace.PatientTrace

	samplers  SamplerSource
	nextSeq   uint64
	finalized []bool
	results   []PatientRecord
	remaining int
	processed int
}

// NewSimulator validates cfg and registers every patient's first wake-up at time 0.
func NewSimulator(cfg SimConfig) (*Simulator, error) {
	if cfg.NumPatients < 1 {
		return nil, fmt.Errorf("%w: number of patients must be >= 1, got %d", ErrInvalidParameters, cfg.NumPatients)
	}
	if cfg.Params == nil {
		return nil, fmt.Errorf("%w: parameters are required", ErrInvalidParameters)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	samplers := cfg.Samplers
	if samplers == nil {
		samplers = NewPartitionedRNG(SimulationKey(cfg.Seed))
	}

	s := &Simulator{
		EventQueue: make(EventQueue, 0, cfg.NumPatients),
		Params:     cfg.Params,
		Patients:   make([]*Patient, cfg.NumPatients),
		Trace:      cfg.Trace,
		samplers:   samplers,
		finalized:  make([]bool, cfg.NumPatients),
		results:    make([]PatientRecord, cfg.NumPatients),
		remaining:  cfg.NumPatients,
	}
	for i := range s.Patients {
		s.Patients[i] = NewPatient(i, cfg.Params)
		s.schedulePatient(0, s.Patients[i])
	}
	return s, nil
}

// Schedule pushes an event onto the queue. Callers own sequence numbering.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

func (sim *Simulator) schedulePatient(at float64, p *Patient) {
	sim.nextSeq++
	sim.Schedule(&PatientWakeEvent{baseEvent: baseEvent{time: at, seq: sim.nextSeq}, Patient: p})
}

// Run drains the event queue and returns one record per patient, ordered by id.
// Any failing event aborts the run; no partial results are returned.
func (sim *Simulator) Run() ([]PatientRecord, error) {
	logrus.Infof("Starting simulation with %d patients", len(sim.Patients))
	for sim.EventQueue.Len() > 0 {
		ev := sim.EventQueue.PopNext()
		if ev.Timestamp() < sim.Clock {
			return nil, fmt.Errorf("event at %.4f days scheduled behind clock %.4f", ev.Timestamp(), sim.Clock)
		}
		sim.Clock = ev.Timestamp()
		logrus.Tracef("[day %10.3f] Executing %T", sim.Clock, ev)
		if err := ev.Execute(sim); err != nil {
			return nil, fmt.Errorf("simulation aborted at %.4f days: %w", sim.Clock, err)
		}
		sim.processed++
	}
	if sim.remaining != 0 {
		return nil, fmt.Errorf("event queue drained with %d patients unfinished", sim.remaining)
	}
	logrus.Infof("[day %10.3f] Simulation ended after %d events", sim.Clock, sim.processed)
	return sim.results, nil
}

// EventsProcessed returns the number of events executed so far.
func (sim *Simulator) EventsProcessed() int {
	return sim.processed
}

func (sim *Simulator) record(ev trace.PatientEvent) {
	if sim.Trace != nil {
		sim.Trace.Record(ev)
	}
}

// finalize hands a terminated patient's totals over to the result slice.
func (sim *Simulator) finalize(p *Patient) error {
	if sim.finalized[p.ID] {
		return p.invariant(sim.Clock, "finalized twice")
	}
	logrus.Debugf("[day %10.3f] Patient %d finished: %s, cycles=%d, cost=%.2f, qalys=%.4f",
		sim.Clock, p.ID, p.Phase, p.CyclesCompleted, p.TotalCost, p.QALYs)
	sim.results[p.ID] = p.Record()
	sim.finalized[p.ID] = true
	sim.remaining--
	return nil
}

// Run simulates numPatients patients starting at time 0 with the given
// parameters and seed. The same inputs always produce identical records.
func Run(numPatients int, params *Parameters, seed int64) ([]PatientRecord, error) {
	s, err := NewSimulator(SimConfig{NumPatients: numPatients, Params: params, Seed: seed})
	if err != nil {
		return nil, err
	}
	return s.Run()
}
