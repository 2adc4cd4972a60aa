package trace

// TraceSummary aggregates statistics from a PatientTrace.
type TraceSummary struct {
	TotalEvents int
	Patients    int
	KindCounts  map[EventKind]int
	LastClock   float64
	TotalCost   float64
	TotalQALYs  float64
}

// Summarize computes aggregate statistics from a PatientTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(pt *PatientTrace) *TraceSummary {
	summary := &TraceSummary{KindCounts: make(map[EventKind]int)}
	if pt == nil {
		return summary
	}

	seen := make(map[int]bool)
	for _, ev := range pt.Events {
		summary.TotalEvents++
		summary.KindCounts[ev.Kind]++
		summary.TotalCost += ev.CostDelta
		summary.TotalQALYs += ev.QALYDelta
		if ev.Clock > summary.LastClock {
			summary.LastClock = ev.Clock
		}
		seen[ev.PatientID] = true
	}
	summary.Patients = len(seen)
	return summary
}
