package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameters is wrapped by every configuration error returned from
// NewParameters, NewSimulator and RunBatch.
var ErrInvalidParameters = errors.New("invalid parameters")

// Parameters holds the model constants shared by every patient in a run.
// Construct with NewParameters; the returned pointer must be treated as
// read-only for the lifetime of every simulation that uses it.
type Parameters struct {
	DeathProbability   float64 // per-cycle (and per follow-up interval) death probability, [0,1]
	MaxTreatmentCycles int     // cycles a survivor receives before follow-up

	CycleGammaShape float64 // full-cycle duration ~ Gamma(shape, scale), days
	CycleGammaScale float64
	DeathGammaShape float64 // time-to-death within a cycle ~ Gamma(shape, scale), days
	DeathGammaScale float64

	InitialCycleCost    float64 // euro, charged once per completed cycle
	DailyCycleCost      float64 // euro per treatment day
	FollowUpLumpsumCost float64 // euro, charged once on entering follow-up

	TreatmentQoLWeight float64 // utility per year during treatment
	FollowUpQoLWeight  float64 // utility per year during follow-up

	FollowUpIntervalDays float64 // cadence of follow-up death checks
	FollowUpHorizonDays  float64 // total follow-up length for survivors
	DaysPerYear          float64
}

// DefaultParameters returns the reference parameterization.
func DefaultParameters() Parameters {
	return Parameters{
		DeathProbability:     0.15,
		MaxTreatmentCycles:   5,
		CycleGammaShape:      3,
		CycleGammaScale:      10,
		DeathGammaShape:      1.5,
		DeathGammaScale:      3,
		InitialCycleCost:     5000,
		DailyCycleCost:       250,
		FollowUpLumpsumCost:  3500,
		TreatmentQoLWeight:   0.7,
		FollowUpQoLWeight:    0.8,
		FollowUpIntervalDays: 30,
		FollowUpHorizonDays:  365.25,
		DaysPerYear:          365.25,
	}
}

// NewParameters validates p and returns a pointer to a private copy of it.
func NewParameters(p Parameters) (*Parameters, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	frozen := p
	return &frozen, nil
}

// Validate reports the first out-of-range field. Probabilities of exactly 0
// or 1 and Gamma scales of 0 are accepted.
func (p *Parameters) Validate() error {
	if err := checkUnit("death probability", p.DeathProbability); err != nil {
		return err
	}
	if p.MaxTreatmentCycles < 1 {
		return invalidf("max treatment cycles must be >= 1, got %d", p.MaxTreatmentCycles)
	}
	if err := checkGamma("cycle", p.CycleGammaShape, p.CycleGammaScale); err != nil {
		return err
	}
	if err := checkGamma("death", p.DeathGammaShape, p.DeathGammaScale); err != nil {
		return err
	}
	costs := []struct {
		name string
		v    float64
	}{
		{"initial cycle cost", p.InitialCycleCost},
		{"daily cycle cost", p.DailyCycleCost},
		{"follow-up lumpsum cost", p.FollowUpLumpsumCost},
	}
	for _, c := range costs {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < 0 {
			return invalidf("%s must be a finite non-negative value, got %v", c.name, c.v)
		}
	}
	if err := checkUnit("treatment QoL weight", p.TreatmentQoLWeight); err != nil {
		return err
	}
	if err := checkUnit("follow-up QoL weight", p.FollowUpQoLWeight); err != nil {
		return err
	}
	if !(p.FollowUpIntervalDays > 0) || math.IsInf(p.FollowUpIntervalDays, 0) {
		return invalidf("follow-up interval must be positive and finite, got %v", p.FollowUpIntervalDays)
	}
	if math.IsNaN(p.FollowUpHorizonDays) || math.IsInf(p.FollowUpHorizonDays, 0) || p.FollowUpHorizonDays < 0 {
		return invalidf("follow-up horizon must be finite and non-negative, got %v", p.FollowUpHorizonDays)
	}
	if !(p.DaysPerYear > 0) || math.IsInf(p.DaysPerYear, 0) {
		return invalidf("days per year must be positive and finite, got %v", p.DaysPerYear)
	}
	return nil
}

// FollowUpIntervals returns how many death checks a follow-up survivor passes through.
// A horizon within rounding error of a whole number of intervals is not given
// an extra, near-empty interval.
func (p *Parameters) FollowUpIntervals() int {
	n := p.FollowUpHorizonDays / p.FollowUpIntervalDays
	if r := math.Round(n); math.Abs(n-r) < 1e-9 {
		return int(r)
	}
	return int(math.Ceil(n))
}

func checkUnit(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return invalidf("%s must be in [0,1], got %v", name, v)
	}
	return nil
}

func checkGamma(name string, shape, scale float64) error {
	if !(shape > 0) || math.IsInf(shape, 0) {
		return invalidf("%s gamma shape must be positive and finite, got %v", name, shape)
	}
	if !(scale >= 0) || math.IsInf(scale, 0) {
		return invalidf("%s gamma scale must be finite and non-negative, got %v", name, scale)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, fmt.Sprintf(format, args...))
}
