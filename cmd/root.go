package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/hecon/cohort-sim/sim"
	"github.com/hecon/cohort-sim/sim/trace"
)

var (
	// CLI flags for the run
	seed        int64  // Seed for the first run; run i uses seed+i
	numPatients int    // Patients per run
	numRuns     int    // Independent runs
	logLevel    string // Log verbosity level
	paramsPath  string // YAML parameter file (optional)
	resultsPath string // YAML per-patient results output (optional)
	tracePath   string // YAML per-patient event log output (optional, single run only)

	// Parameter overrides; only applied when the flag is set explicitly
	deathProbability   float64
	maxTreatmentCycles int
	followUpHorizon    float64
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cohort-sim",
	Short: "Discrete-event simulator for health-economic patient cohorts",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cohort simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		params, err := resolveParameters(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runSimulation(os.Stdout, params); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// defaultsCmd prints the default parameter file
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default parameters as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := yaml.NewEncoder(os.Stdout).Encode(ParametersFileFrom(sim.DefaultParameters())); err != nil {
			logrus.Fatalf("encoding defaults: %v", err)
		}
	},
}

// resolveParameters layers defaults, the YAML file, then explicitly-set flags.
func resolveParameters(cmd *cobra.Command) (*sim.Parameters, error) {
	p := sim.DefaultParameters()
	if paramsPath != "" {
		pf, err := LoadParametersFile(paramsPath)
		if err != nil {
			return nil, err
		}
		p = pf.Apply(p)
	}
	// Flags win over the file only when the user set them (defaults must not clobber YAML).
	if cmd.Flags().Changed("death-prob") {
		p.DeathProbability = deathProbability
	}
	if cmd.Flags().Changed("max-cycles") {
		p.MaxTreatmentCycles = maxTreatmentCycles
	}
	if cmd.Flags().Changed("followup-horizon") {
		p.FollowUpHorizonDays = followUpHorizon
	}
	return sim.NewParameters(p)
}

// runSimulation performs the configured runs and writes the report to out.
func runSimulation(out io.Writer, params *sim.Parameters) error {
	if numRuns < 1 {
		return fmt.Errorf("%w: --runs must be >= 1, got %d", sim.ErrInvalidParameters, numRuns)
	}
	if tracePath != "" && numRuns != 1 {
		return fmt.Errorf("--trace requires --runs 1, got %d", numRuns)
	}
	logrus.Infof("Starting %d run(s) of %d patients, seed=%d, params=%+v", numRuns, numPatients, seed, *params)
	startTime := time.Now()

	var runs []sim.RunResult
	if tracePath != "" {
		tr := trace.NewPatientTrace()
		s, err := sim.NewSimulator(sim.SimConfig{NumPatients: numPatients, Params: params, Seed: seed, Trace: tr})
		if err != nil {
			return err
		}
		records, err := s.Run()
		if err != nil {
			return err
		}
		runs = []sim.RunResult{{Run: 0, Seed: seed, Patients: records}}
		if err := writeYAML(tracePath, tr); err != nil {
			return err
		}
		ts := trace.Summarize(tr)
		logrus.Infof("Wrote %d events for %d patients to %s", ts.TotalEvents, ts.Patients, tracePath)
	} else {
		var err error
		runs, err = sim.RunBatch(numRuns, numPatients, params, sim.SeedsFrom(seed, numRuns))
		if err != nil {
			return err
		}
	}

	sim.SummarizeBatch(runs).Print(out)
	fmt.Fprintf(out, "Wall time               : %s\n", time.Since(startTime).Round(time.Millisecond))

	if resultsPath != "" {
		if err := writeYAML(resultsPath, runs); err != nil {
			return err
		}
		logrus.Infof("Wrote results to %s", resultsPath)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 123, "Seed for the first run (run i uses seed+i)")
	runCmd.Flags().IntVar(&numPatients, "patients", 10000, "Number of patients per run")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "Number of independent runs")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&paramsPath, "params", "", "YAML parameter file; unset keys keep their defaults")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "Write per-patient results of every run to this YAML file")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "Write the per-patient event log to this YAML file (single run only)")

	defaults := sim.DefaultParameters()
	runCmd.Flags().Float64Var(&deathProbability, "death-prob", defaults.DeathProbability, "Death probability per cycle and per follow-up interval")
	runCmd.Flags().IntVar(&maxTreatmentCycles, "max-cycles", defaults.MaxTreatmentCycles, "Maximum treatment cycles per patient")
	runCmd.Flags().Float64Var(&followUpHorizon, "followup-horizon", defaults.FollowUpHorizonDays, "Follow-up length in days")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
