package sim

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes one per-patient outcome across a cohort.
type Distribution struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
	Min    float64 `yaml:"min"`
	P50    float64 `yaml:"p50"`
	P90    float64 `yaml:"p90"`
	Max    float64 `yaml:"max"`
}

// CohortSummary aggregates the records of one or more runs.
type CohortSummary struct {
	Patients            int          `yaml:"patients"`
	DeadDuringTreatment int          `yaml:"dead_during_treatment"`
	CompletedFollowUp   int          `yaml:"completed_followup"`
	DiedInFollowUp      int          `yaml:"died_in_followup"`
	MeanCycles          float64      `yaml:"mean_cycles"`
	Cost                Distribution `yaml:"cost"`
	QALYs               Distribution `yaml:"qalys"`
	Time                Distribution `yaml:"time"`
}

// Summarize computes cohort statistics. Safe for an empty slice.
func Summarize(records []PatientRecord) CohortSummary {
	s := CohortSummary{Patients: len(records)}
	if len(records) == 0 {
		return s
	}
	cost := make([]float64, len(records))
	qalys := make([]float64, len(records))
	days := make([]float64, len(records))
	cycles := 0
	for i, r := range records {
		switch {
		case r.Phase == PhaseDeadDuringTreatment:
			s.DeadDuringTreatment++
		case r.DiedInFollowUp():
			s.DiedInFollowUp++
			s.CompletedFollowUp++
		case r.Phase == PhaseCompletedFollowUp:
			s.CompletedFollowUp++
		}
		cycles += r.CyclesCompleted
		cost[i], qalys[i], days[i] = r.TotalCost, r.QALYs, r.TotalTime
	}
	s.MeanCycles = float64(cycles) / float64(len(records))
	s.Cost = describe(cost)
	s.QALYs = describe(qalys)
	s.Time = describe(days)
	return s
}

// SummarizeBatch pools the records of every run.
func SummarizeBatch(runs []RunResult) CohortSummary {
	var all []PatientRecord
	for _, r := range runs {
		all = append(all, r.Patients...)
	}
	return Summarize(all)
}

func describe(x []float64) Distribution {
	sort.Float64s(x)
	d := Distribution{Min: x[0], Max: x[len(x)-1]}
	if len(x) > 1 {
		d.Mean, d.StdDev = stat.MeanStdDev(x, nil)
	} else {
		d.Mean = x[0]
	}
	d.P50 = stat.Quantile(0.5, stat.Empirical, x, nil)
	d.P90 = stat.Quantile(0.9, stat.Empirical, x, nil)
	return d
}

// Print writes a human-readable report of the summary.
func (s CohortSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Cohort Summary ===")
	fmt.Fprintf(w, "Patients                : %d\n", s.Patients)
	fmt.Fprintf(w, "Died during treatment   : %d\n", s.DeadDuringTreatment)
	fmt.Fprintf(w, "Completed follow-up     : %d (%d died in follow-up)\n", s.CompletedFollowUp, s.DiedInFollowUp)
	if s.Patients == 0 {
		return
	}
	fmt.Fprintf(w, "Mean cycles completed   : %.3f\n", s.MeanCycles)
	fmt.Fprintf(w, "Cost (euro)             : mean %.2f, sd %.2f, p50 %.2f, p90 %.2f\n", s.Cost.Mean, s.Cost.StdDev, s.Cost.P50, s.Cost.P90)
	fmt.Fprintf(w, "QALYs                   : mean %.4f, sd %.4f, p50 %.4f, p90 %.4f\n", s.QALYs.Mean, s.QALYs.StdDev, s.QALYs.P50, s.QALYs.P90)
	fmt.Fprintf(w, "Time (days)             : mean %.2f, sd %.2f, min %.2f, max %.2f\n", s.Time.Mean, s.Time.StdDev, s.Time.Min, s.Time.Max)
}
