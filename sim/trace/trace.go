package trace

// PatientTrace collects event records across all patients of one run,
// in the order the simulator processed them.
type PatientTrace struct {
	Events []PatientEvent `yaml:"events"`
}

// NewPatientTrace creates a PatientTrace ready for recording.
func NewPatientTrace() *PatientTrace {
	return &PatientTrace{Events: make([]PatientEvent, 0)}
}

// Record appends an event record.
func (pt *PatientTrace) Record(ev PatientEvent) {
	pt.Events = append(pt.Events, ev)
}

// ForPatient returns the events of one patient in processing order.
func (pt *PatientTrace) ForPatient(id int) []PatientEvent {
	var out []PatientEvent
	for _, ev := range pt.Events {
		if ev.PatientID == id {
			out = append(out, ev)
		}
	}
	return out
}
