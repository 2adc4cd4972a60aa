// Package sim provides the discrete-event simulation engine for the cohort
// health-economic model.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - patient.go: Patient state machine (treatment → dead, or treatment → followup → completed)
//   - event.go: the wake-up event that resumes a patient after each delay
//   - simulator.go: the event loop and result collection
//
// # Model
//
// Every patient starts at time 0. Each treatment cycle is either a death,
// after a short Gamma-distributed delay, or a full cycle with a longer
// Gamma-distributed duration. Survivors of MaxTreatmentCycles cycles enter
// follow-up, pay a lumpsum once, and are checked for death at a fixed cadence
// until the follow-up horizon. Costs and QALYs accrue when each delay elapses.
//
// # Determinism
//
// Each patient draws from its own PartitionedRNG stream (see rng.go), and the
// event queue breaks timestamp ties by scheduling order, so a run is fully
// determined by its seed and Parameters.
package sim
