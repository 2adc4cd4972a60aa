package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler is the stochastic source consumed by a patient's state machine.
type Sampler interface {
	// Bernoulli returns true with probability p.
	Bernoulli(p float64) bool
	// Gamma returns a draw from Gamma(shape, scale). A scale of 0 yields 0.
	Gamma(shape, scale float64) float64
}

// SamplerSource hands each patient its own Sampler. Implementations must
// return the same Sampler for repeated calls with the same id.
type SamplerSource interface {
	ForPatient(id int) Sampler
}

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical parameters
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// SubsystemPatient returns the subsystem name for patient N.
func SubsystemPatient(id int) string {
	return fmt.Sprintf("patient_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated random streams per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName), fed to a PCG
// generator. Each patient draws from its own subsystem, so a patient's
// trajectory does not depend on how the scheduler interleaves it with others.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*Stream
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*Stream),
	}
}

// ForSubsystem returns the deterministically-seeded stream for the named subsystem.
// The same subsystem name always returns the same *Stream instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *Stream {
	if s, ok := p.subsystems[name]; ok {
		return s
	}
	derived := uint64(int64(p.key) ^ fnv1a64(name))
	s := newStream(rand.New(rand.NewPCG(uint64(p.key), derived)))
	p.subsystems[name] = s
	return s
}

// ForPatient implements SamplerSource.
func (p *PartitionedRNG) ForPatient(id int) Sampler {
	return p.ForSubsystem(SubsystemPatient(id))
}

// Stream is a Sampler backed by a single PCG generator.
type Stream struct {
	rng *rand.Rand
}

func newStream(rng *rand.Rand) *Stream {
	return &Stream{rng: rng}
}

// Bernoulli draws a 0/1 outcome. p <= 0 never succeeds and p >= 1 always does,
// without consuming a draw.
func (s *Stream) Bernoulli(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return distuv.Bernoulli{P: p, Src: s.rng}.Rand() == 1
}

// Gamma draws from Gamma(shape, scale). gonum parameterizes by rate, so the
// scale is inverted; a zero scale is the degenerate point mass at 0.
func (s *Stream) Gamma(shape, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: s.rng}.Rand()
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
