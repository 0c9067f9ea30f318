package sim

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Factor is the parameter an inference run estimates.
type Factor int

const (
	FactorFitness Factor = iota + 1
	FactorMutationRate
	FactorPopulationSize
)

func (f Factor) String() string {
	switch f {
	case FactorFitness:
		return "fitness"
	case FactorMutationRate:
		return "mutation-rate"
	case FactorPopulationSize:
		return "population-size"
	default:
		return fmt.Sprintf("factor(%d)", int(f))
	}
}

// Range is a scalar [Min, Max] range. Mutation-rate and population-size
// ranges are log10-scaled.
type Range struct {
	Min float64
	Max float64 `validate:"gtefield=Min"`
}

// PriorSpec names the prior family and its parameters.
type PriorSpec struct {
	Family         string  `validate:"omitempty,oneof=uniform fitness_composite smoothed_composite lognormal"`
	Mu             float64 // lognormal mean of ln(X)
	Sigma          float64 `validate:"gte=0"`
	LethalFraction float64 `validate:"gte=0,lte=1"`
}

// ABCSettings controls the rejection sampler.
type ABCSettings struct {
	Repeats            int      `validate:"gte=0"`
	AcceptanceRate     float64  `validate:"gte=0,lte=1"`
	SimsToKeep         int      `validate:"gte=0"`
	RejectionThreshold *float64 `validate:"omitempty,gte=0"`
	Metric             DistanceMetric
	Scaling            Scaling
	Batches            int `validate:"gte=0"` // 0 means a single batch
	Workers            int `validate:"gte=0"` // 0 means GOMAXPROCS
}

// ExperimentConfig is the fixed configuration shared by every trial of a run.
// Optional groups are pointers; a nil group was not configured.
type ExperimentConfig struct {
	PopulationSize int64 `validate:"gte=0"` // 0 only when the population size is inferred

	// Simulation-only settings; inference derives these from the observed data.
	InitialFrequencies []float64
	Generations        int `validate:"gte=0"`

	Fitness       []float64 `validate:"omitempty,dive,gte=0"`
	MutationRates [][]float64

	FitnessRange        *Bounds
	MutationRange       *Range
	PopulationSizeRange *Range

	Bottleneck *Bottleneck
	Growth     *LogisticGrowth

	SamplingDepth   int64 `validate:"gte=0"`
	GenerationShift int   `validate:"gte=0"`
	Seed            int64

	Prior PriorSpec
	ABC   ABCSettings
}

var experimentValidate = validator.New()

// Validate runs struct-tag validation followed by cross-field checks.
func (c *ExperimentConfig) Validate() error {
	const op = "experiment"
	if err := experimentValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Errorf(KindValidation, op, "%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return WrapError(KindValidation, op, err)
	}
	if b := c.FitnessRange; b != nil {
		if len(b.Min) != len(b.Max) {
			return Errorf(KindValidation, op, "min_fitness has %d values, max_fitness has %d", len(b.Min), len(b.Max))
		}
		for i := range b.Min {
			if b.Min[i] < 0 {
				return Errorf(KindValidation, op, "min_fitness for allele %d must be non-negative, got %g", i, b.Min[i])
			}
			if b.Min[i] > b.Max[i] {
				return Errorf(KindValidation, op, "fitness range for allele %d is inverted: [%g, %g]", i, b.Min[i], b.Max[i])
			}
		}
	}
	if r := c.PopulationSizeRange; r != nil && r.Min < 0 {
		return Errorf(KindValidation, op, "min_population_size is log10 and must be >= 0 so every draw has N >= 1, got %g", r.Min)
	}
	if c.MutationRates != nil {
		if err := ValidateMutationMatrix(c.MutationRates, len(c.MutationRates)); err != nil {
			return err
		}
	}
	if c.InitialFrequencies != nil {
		if err := ValidateFrequencies(c.InitialFrequencies, len(c.InitialFrequencies)); err != nil {
			return err
		}
	}
	if err := validateDemography(op, c.Bottleneck, c.Growth); err != nil {
		return err
	}
	if c.ABC.Metric != "" && !IsValidMetric(string(c.ABC.Metric)) {
		return Errorf(KindConfiguration, op, "unknown distance metric %q; valid: l1, l2", c.ABC.Metric)
	}
	if !IsValidScaling(string(c.ABC.Scaling)) {
		return Errorf(KindConfiguration, op, "unknown scaling %q; valid: none, sd, mad", c.ABC.Scaling)
	}
	if c.Fitness != nil && c.MutationRates != nil && len(c.MutationRates) != len(c.Fitness) {
		return Errorf(KindValidation, op, "fitness has %d alleles but mutation_rates has %d rows", len(c.Fitness), len(c.MutationRates))
	}
	return nil
}

// CanInferFitness reports whether per-allele fitness bounds and a population size are configured.
func (c *ExperimentConfig) CanInferFitness() bool {
	return c.FitnessRange != nil && c.PopulationSize > 0
}

// CanInferMutationRate reports whether a log10 mutation-rate range and a population size are configured.
func (c *ExperimentConfig) CanInferMutationRate() bool {
	return c.MutationRange != nil && c.PopulationSize > 0
}

// CanInferPopulationSize reports whether a log10 population-size range is configured.
func (c *ExperimentConfig) CanInferPopulationSize() bool { return c.PopulationSizeRange != nil }

// CanInfer dispatches on factor.
func (c *ExperimentConfig) CanInfer(f Factor) bool {
	switch f {
	case FactorFitness:
		return c.CanInferFitness()
	case FactorMutationRate:
		return c.CanInferMutationRate()
	case FactorPopulationSize:
		return c.CanInferPopulationSize()
	default:
		return false
	}
}

// CanSimulate reports whether a standalone forward simulation is fully specified.
func (c *ExperimentConfig) CanSimulate() bool {
	return c.InitialFrequencies != nil && c.Fitness != nil && c.Generations > 0 && c.PopulationSize > 0
}

// SimulationConfig builds the base per-trial configuration for a locus
// with the given initial frequencies and generation span. Factor-specific
// fields are filled in by the caller. Missing fitness defaults to neutral and
// missing mutation rates default to none.
func (c *ExperimentConfig) SimulationConfig(initial []float64, generations int) SimulationConfig {
	n := len(initial)
	cfg := SimulationConfig{
		PopulationSize:     c.PopulationSize,
		AlleleCount:        n,
		Fitness:            cloneSlice(c.Fitness),
		MutationRates:      cloneMatrix(c.MutationRates),
		Bottleneck:         c.Bottleneck,
		Growth:             c.Growth,
		SamplingDepth:      c.SamplingDepth,
		GenerationShift:    c.GenerationShift,
		Generations:        generations,
		InitialFrequencies: cloneSlice(initial),
		Seed:               c.Seed,
	}
	if cfg.Fitness == nil {
		cfg.Fitness = make([]float64, n)
		for i := range cfg.Fitness {
			cfg.Fitness[i] = 1
		}
	}
	if cfg.MutationRates == nil {
		cfg.MutationRates = IdentityMutation(n)
	}
	if c.FitnessRange != nil {
		cfg.FitnessBounds = &Bounds{Min: cloneSlice(c.FitnessRange.Min), Max: cloneSlice(c.FitnessRange.Max)}
	}
	return cfg
}
