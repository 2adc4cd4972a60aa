package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RunResult holds the records of one run of a batch.
type RunResult struct {
	Run      int             `yaml:"run"`
	Seed     int64           `yaml:"seed"`
	Patients []PatientRecord `yaml:"patients"`
}

// SeedsFrom returns n consecutive seeds starting at base, or nil when n < 1.
func SeedsFrom(base int64, n int) []int64 {
	if n < 1 {
		return nil
	}
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = base + int64(i)
	}
	return seeds
}

// RunBatch performs numRuns independent runs of numPatients patients, run i
// using seeds[i]. Each run is reproducible on its own from its seed.
func RunBatch(numRuns, numPatients int, params *Parameters, seeds []int64) ([]RunResult, error) {
	if numRuns < 1 {
		return nil, fmt.Errorf("%w: number of runs must be >= 1, got %d", ErrInvalidParameters, numRuns)
	}
	if len(seeds) != numRuns {
		return nil, fmt.Errorf("%w: got %d seeds for %d runs", ErrInvalidParameters, len(seeds), numRuns)
	}
	results := make([]RunResult, 0, numRuns)
	for i, seed := range seeds {
		logrus.Infof("Run %d of %d (seed=%d)", i+1, numRuns, seed)
		records, err := Run(numPatients, params, seed)
		if err != nil {
			return nil, fmt.Errorf("run %d (seed %d): %w", i, seed, err)
		}
		results = append(results, RunResult{Run: i, Seed: seed, Patients: records})
	}
	return results, nil
}
