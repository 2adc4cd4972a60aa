package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in simulated days), a sequence number assigned
// by the Simulator when scheduled, and an Execute method that advances
// simulation state.
type Event interface {
	Timestamp() float64
	Seq() uint64
	Execute(*Simulator) error
}

// baseEvent provides the ordering fields common to every event.
type baseEvent struct {
	time float64
	seq  uint64
}

func (e *baseEvent) Timestamp() float64 { return e.time }
func (e *baseEvent) Seq() uint64        { return e.seq }

// PatientWakeEvent resumes a patient's process after its current delay.
// The first wake of every patient happens at time 0.
type PatientWakeEvent struct {
	baseEvent
	Patient *Patient
}

// Execute settles the elapsed segment and schedules the patient's next wake,
// or finalizes the patient if it has terminated.
func (e *PatientWakeEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< Wake: patient %d (%s, cycle %d) at %.3f days", e.Patient.ID, e.Patient.Phase, e.Patient.CyclesCompleted, e.time)
	step, err := e.Patient.Advance(e.time, sim.samplers.ForPatient(e.Patient.ID))
	if err != nil {
		return err
	}
	for _, ev := range step.Events {
		sim.record(ev)
	}
	if step.Done {
		return sim.finalize(e.Patient)
	}
	sim.schedulePatient(e.time+step.Delay, e.Patient)
	return nil
}
