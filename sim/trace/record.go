// Package trace provides per-patient event logs for downstream aggregation.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// EventKind names the state-machine transition a record describes.
type EventKind string

const (
	KindCycleCompleted    EventKind = "cycle_completed"
	KindDeath             EventKind = "death"
	KindFollowUpEntered   EventKind = "followup_entered"
	KindFollowUpInterval  EventKind = "followup_interval"
	KindFollowUpCompleted EventKind = "followup_completed"
)

// PatientEvent captures one accrual step of a single patient.
type PatientEvent struct {
	PatientID int       `yaml:"patient_id"`
	Clock     float64   `yaml:"clock"` // simulated days
	Kind      EventKind `yaml:"kind"`
	Cycle     int       `yaml:"cycle"` // cycles completed after this event
	Phase     string    `yaml:"phase"` // phase after this event
	Duration  float64   `yaml:"duration"`
	CostDelta float64   `yaml:"cost_delta"`
	QALYDelta float64   `yaml:"qaly_delta"`
	TotalCost float64   `yaml:"total_cost"`
	QALYs     float64   `yaml:"qalys"`
}
