package params

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/popgen-abc/popgen-abc/sim"
)

// Defaults applied when a parameter is absent.
const (
	DefaultRepeats        = 10000
	DefaultAcceptanceRate = 0.01
	DefaultBatches        = 10
)

// BuildExperiment reads every recognised parameter into a validated
// ExperimentConfig. Optional groups stay nil when none of their keys are
// present; a group with only some keys present is a ConfigurationError.
func BuildExperiment(p *Params) (*sim.ExperimentConfig, error) {
	b := builder{p: p}
	cfg := &sim.ExperimentConfig{}

	cfg.PopulationSize = b.int("population_size", 0)
	if p.Has("initial_frequencies") {
		cfg.InitialFrequencies = b.floats("initial_frequencies")
	}
	cfg.Generations = int(b.int("generations", 0))
	if p.Has("fitness") {
		cfg.Fitness = b.floats("fitness")
	}
	if p.Has("mutation_rates") {
		cfg.MutationRates = b.matrix("mutation_rates")
	}

	if b.group("min_fitness", "max_fitness") {
		cfg.FitnessRange = &sim.Bounds{Min: b.floats("min_fitness"), Max: b.floats("max_fitness")}
	}
	if b.group("min_mutation_rate", "max_mutation_rate") {
		cfg.MutationRange = &sim.Range{Min: b.float("min_mutation_rate", 0), Max: b.float("max_mutation_rate", 0)}
	}
	if b.group("min_population_size", "max_population_size") {
		cfg.PopulationSizeRange = &sim.Range{Min: b.float("min_population_size", 0), Max: b.float("max_population_size", 0)}
	}
	if b.group("bottleneck_size", "bottleneck_interval") {
		cfg.Bottleneck = &sim.Bottleneck{Size: b.int("bottleneck_size", 0), Interval: int(b.int("bottleneck_interval", 0))}
	}
	if b.group("carrying_capacity", "growth_rate") {
		cfg.Growth = &sim.LogisticGrowth{CarryingCapacity: b.float("carrying_capacity", 0), Rate: b.float("growth_rate", 0)}
	}

	cfg.SamplingDepth = b.int("sampling_depth", 0)
	cfg.GenerationShift = int(b.int("generation_shift", 0))
	cfg.Seed = b.int("seed", 0)

	cfg.Prior = sim.PriorSpec{
		Family:         p.StringOr("prior_distribution", "uniform"),
		Mu:             b.float("lognormal_mu", 0),
		Sigma:          b.float("lognormal_sigma", 0),
		LethalFraction: b.float("lethal_fraction", 0),
	}

	cfg.ABC = sim.ABCSettings{
		Repeats:        int(b.int("repeats", DefaultRepeats)),
		AcceptanceRate: b.float("acceptance_rate", DefaultAcceptanceRate),
		SimsToKeep:     int(b.int("sims_to_keep", 0)),
		Metric:         sim.DistanceMetric(p.StringOr("distance_metric", string(sim.MetricL1))),
		Scaling:        sim.Scaling(p.StringOr("scaling", string(sim.ScalingNone))),
		Batches:        int(b.int("batches", DefaultBatches)),
		Workers:        int(b.int("workers", 0)),
	}
	if p.Has("rejection_threshold") {
		t := b.float("rejection_threshold", 0)
		cfg.ABC.RejectionThreshold = &t
	}

	if b.err != nil {
		return nil, b.err
	}
	for _, name := range p.Unused() {
		logrus.Warnf("ignoring unknown parameter %q", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// builder keeps the first error so BuildExperiment reads linearly.
type builder struct {
	p   *Params
	err error
}

func (b *builder) int(name string, def int64) int64 {
	if b.err != nil {
		return def
	}
	v, err := b.p.IntOr(name, def)
	b.err = err
	return v
}

func (b *builder) float(name string, def float64) float64 {
	if b.err != nil {
		return def
	}
	v, err := b.p.FloatOr(name, def)
	b.err = err
	return v
}

func (b *builder) floats(name string) []float64 {
	if b.err != nil {
		return nil
	}
	v, err := b.p.Floats(name)
	b.err = err
	return v
}

// matrix reads a square matrix given row-major as n² values.
func (b *builder) matrix(name string) [][]float64 {
	flat := b.floats(name)
	if b.err != nil {
		return nil
	}
	n := int(math.Round(math.Sqrt(float64(len(flat)))))
	if n*n != len(flat) || n == 0 {
		b.err = sim.Errorf(sim.KindValidation, "params", "%q has %d values, want a square count", name, len(flat))
		return nil
	}
	m := make([][]float64, n)
	for j := range m {
		m[j] = flat[j*n : (j+1)*n]
	}
	return m
}

// group reports whether all of names are set, and records an error if only some are.
func (b *builder) group(names ...string) bool {
	set := 0
	for _, n := range names {
		if b.p.Has(n) {
			set++
		}
	}
	if set > 0 && set < len(names) && b.err == nil {
		b.err = sim.Errorf(sim.KindConfiguration, "params", "parameters %v must be set together", names)
	}
	return set == len(names)
}
