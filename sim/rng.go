package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// SimulationKey uniquely identifies a reproducible inference run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results, whatever the worker count.
type SimulationKey int64

// NewSimulationKey wraps a run seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemPrior is the RNG subsystem for prior draws.
	// Uses master seed directly so a prior can be regenerated from --seed alone.
	SubsystemPrior = "prior"

	// SubsystemSimulate is the RNG subsystem for the standalone simulate command.
	SubsystemSimulate = "simulate"
)

// SubsystemTrial returns the subsystem name for ABC trial idx.
func SubsystemTrial(idx int) string {
	return fmt.Sprintf("trial_%d", idx)
}

// PartitionedRNG hands out one independent random stream per named
// subsystem. The prior stream is seeded with the run seed itself; every other
// stream with seed XOR fnv1a64(name). ForSubsystem caches streams and must
// stay on one goroutine. SeedFor is pure and safe to call from workers.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG returns a PartitionedRNG with no streams created yet.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	rng := NewRand(p.SeedFor(name))
	p.streams[name] = rng
	return rng
}

// SeedFor returns the derived seed for a subsystem without caching anything.
func (p *PartitionedRNG) SeedFor(name string) int64 {
	if name == SubsystemPrior {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

// TrialSeed returns the seed of ABC trial idx.
func (p *PartitionedRNG) TrialSeed(idx int) int64 {
	return p.SeedFor(SubsystemTrial(idx))
}

// Key returns the run key.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// NewSource returns the PCG source used for every RNG in the engine.
// gonum's distuv types take a math/rand/v2 Source directly.
func NewSource(seed int64) *rand.PCG {
	return rand.NewPCG(uint64(seed), uint64(fnv1a64("popgen-abc")))
}

// NewRand wraps NewSource(seed).
func NewRand(seed int64) *rand.Rand {
	return rand.New(NewSource(seed))
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
