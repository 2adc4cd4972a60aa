package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/hecon/cohort-sim/sim"
)

// ParametersFile is the YAML form of sim.Parameters.
// Nil pointer fields mean "not set in YAML" — they do not override defaults.
type ParametersFile struct {
	DeathProbability     *float64 `yaml:"death_probability"`
	MaxTreatmentCycles   *int     `yaml:"max_treatment_cycles"`
	CycleGammaShape      *float64 `yaml:"cycle_gamma_shape"`
	CycleGammaScale      *float64 `yaml:"cycle_gamma_scale"`
	DeathGammaShape      *float64 `yaml:"death_gamma_shape"`
	DeathGammaScale      *float64 `yaml:"death_gamma_scale"`
	InitialCycleCost     *float64 `yaml:"initial_cycle_cost"`
	DailyCycleCost       *float64 `yaml:"daily_cycle_cost"`
	FollowUpLumpsumCost  *float64 `yaml:"followup_lumpsum_cost"`
	TreatmentQoLWeight   *float64 `yaml:"treatment_qol_weight"`
	FollowUpQoLWeight    *float64 `yaml:"followup_qol_weight"`
	FollowUpIntervalDays *float64 `yaml:"followup_interval_days"`
	FollowUpHorizonDays  *float64 `yaml:"followup_horizon_days"`
	DaysPerYear          *float64 `yaml:"days_per_year"`
}

// LoadParametersFile reads and parses a YAML parameter file.
// Unknown keys are rejected so that typos cannot silently fall back to defaults.
func LoadParametersFile(path string) (*ParametersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameters: %w", err)
	}
	var pf ParametersFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pf); err != nil {
		return nil, fmt.Errorf("parsing parameters: %w", err)
	}
	return &pf, nil
}

// Apply overlays every field set in the file onto base.
func (pf *ParametersFile) Apply(base sim.Parameters) sim.Parameters {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&base.DeathProbability, pf.DeathProbability)
	if pf.MaxTreatmentCycles != nil {
		base.MaxTreatmentCycles = *pf.MaxTreatmentCycles
	}
	setF(&base.CycleGammaShape, pf.CycleGammaShape)
	setF(&base.CycleGammaScale, pf.CycleGammaScale)
	setF(&base.DeathGammaShape, pf.DeathGammaShape)
	setF(&base.DeathGammaScale, pf.DeathGammaScale)
	setF(&base.InitialCycleCost, pf.InitialCycleCost)
	setF(&base.DailyCycleCost, pf.DailyCycleCost)
	setF(&base.FollowUpLumpsumCost, pf.FollowUpLumpsumCost)
	setF(&base.TreatmentQoLWeight, pf.TreatmentQoLWeight)
	setF(&base.FollowUpQoLWeight, pf.FollowUpQoLWeight)
	setF(&base.FollowUpIntervalDays, pf.FollowUpIntervalDays)
	setF(&base.FollowUpHorizonDays, pf.FollowUpHorizonDays)
	setF(&base.DaysPerYear, pf.DaysPerYear)
	return base
}

// ParametersFileFrom returns a fully-populated file for p, used by `defaults`.
func ParametersFileFrom(p sim.Parameters) *ParametersFile {
	return &ParametersFile{
		DeathProbability:     &p.DeathProbability,
		MaxTreatmentCycles:   &p.MaxTreatmentCycles,
		CycleGammaShape:      &p.CycleGammaShape,
		CycleGammaScale:      &p.CycleGammaScale,
		DeathGammaShape:      &p.DeathGammaShape,
		DeathGammaScale:      &p.DeathGammaScale,
		InitialCycleCost:     &p.InitialCycleCost,
		DailyCycleCost:       &p.DailyCycleCost,
		FollowUpLumpsumCost:  &p.FollowUpLumpsumCost,
		TreatmentQoLWeight:   &p.TreatmentQoLWeight,
		FollowUpQoLWeight:    &p.FollowUpQoLWeight,
		FollowUpIntervalDays: &p.FollowUpIntervalDays,
		FollowUpHorizonDays:  &p.FollowUpHorizonDays,
		DaysPerYear:          &p.DaysPerYear,
	}
}

// writeYAML marshals v to path.
func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
