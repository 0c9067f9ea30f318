package sim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// StochasticTolerance bounds how far a frequency row or mutation row may sum away from 1.
const StochasticTolerance = 1e-6

// Bounds is a per-allele [Min, Max] range.
type Bounds struct {
	Min []float64
	Max []float64
}

// Bottleneck forces the population through Size individuals every Interval generations.
type Bottleneck struct {
	Size     int64
	Interval int
}

// LogisticGrowth grows the population from its founding size towards CarryingCapacity at Rate.
type LogisticGrowth struct {
	CarryingCapacity float64
	Rate             float64
}

// SimulationConfig fully parameterises one PopulationSimulator.
// Built once per trial from the experiment settings plus one prior sample.
type SimulationConfig struct {
	PopulationSize int64 // N
	FoundingSize   int64 // N0, base of logistic growth; defaults to PopulationSize
	AlleleCount    int

	// MutationRates[j][i] is the probability that allele j mutates into allele i.
	// Rows must sum to 1.
	MutationRates [][]float64
	Fitness       []float64
	FitnessBounds *Bounds

	Bottleneck *Bottleneck
	Growth     *LogisticGrowth

	SamplingDepth   int64 // 0 disables sub-sampling
	GenerationShift int
	Generations     int // number of generations evolved after generation 0

	InitialFrequencies []float64
	Seed               int64
}

// Validate checks the invariants Configure relies on.
func (c *SimulationConfig) Validate() error {
	const op = "configure"
	if c.PopulationSize <= 0 {
		return Errorf(KindValidation, op, "population size must be positive, got %d", c.PopulationSize)
	}
	if c.FoundingSize < 0 {
		return Errorf(KindValidation, op, "founding size must be non-negative, got %d", c.FoundingSize)
	}
	if c.AlleleCount < 1 {
		return Errorf(KindValidation, op, "allele count must be positive, got %d", c.AlleleCount)
	}
	if c.Generations < 0 {
		return Errorf(KindValidation, op, "generations must be non-negative, got %d", c.Generations)
	}
	if c.GenerationShift < 0 {
		return Errorf(KindValidation, op, "generation shift must be non-negative, got %d", c.GenerationShift)
	}
	if c.SamplingDepth < 0 {
		return Errorf(KindValidation, op, "sampling depth must be non-negative, got %d", c.SamplingDepth)
	}
	if c.Fitness != nil {
		if len(c.Fitness) != c.AlleleCount {
			return Errorf(KindValidation, op, "fitness has %d values for %d alleles", len(c.Fitness), c.AlleleCount)
		}
		for i, w := range c.Fitness {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return Errorf(KindValidation, op, "fitness[%d] must be a finite non-negative number, got %g", i, w)
			}
		}
	}
	if c.MutationRates != nil {
		if err := ValidateMutationMatrix(c.MutationRates, c.AlleleCount); err != nil {
			return err
		}
	}
	if c.InitialFrequencies != nil {
		if err := ValidateFrequencies(c.InitialFrequencies, c.AlleleCount); err != nil {
			return err
		}
	}
	if b := c.FitnessBounds; b != nil {
		if len(b.Min) != c.AlleleCount || len(b.Max) != c.AlleleCount {
			return Errorf(KindValidation, op, "fitness bounds have %d/%d values for %d alleles", len(b.Min), len(b.Max), c.AlleleCount)
		}
		for i := range b.Min {
			if b.Min[i] > b.Max[i] {
				return Errorf(KindValidation, op, "fitness bounds for allele %d are inverted: [%g, %g]", i, b.Min[i], b.Max[i])
			}
		}
	}
	return validateDemography(op, c.Bottleneck, c.Growth)
}

// validateDemography checks the optional bottleneck and growth groups.
func validateDemography(op string, b *Bottleneck, g *LogisticGrowth) error {
	if b != nil && (b.Size <= 0 || b.Interval <= 0) {
		return Errorf(KindValidation, op, "bottleneck size and interval must be positive, got size=%d interval=%d", b.Size, b.Interval)
	}
	if g != nil && (g.CarryingCapacity <= 0 || math.IsNaN(g.Rate) || math.IsInf(g.Rate, 0)) {
		return Errorf(KindValidation, op, "logistic growth needs a positive carrying capacity and finite rate, got K=%g r=%g", g.CarryingCapacity, g.Rate)
	}
	return nil
}

// ValidateMutationMatrix checks shape and row-stochasticity.
func ValidateMutationMatrix(m [][]float64, alleles int) error {
	const op = "mutation matrix"
	if len(m) != alleles {
		return Errorf(KindValidation, op, "has %d rows for %d alleles", len(m), alleles)
	}
	for j, row := range m {
		if len(row) != alleles {
			return Errorf(KindValidation, op, "row %d has %d columns for %d alleles", j, len(row), alleles)
		}
		for i, v := range row {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return Errorf(KindValidation, op, "entry (%d,%d) must be a probability, got %g", j, i, v)
			}
		}
		if s := floats.Sum(row); math.Abs(s-1) > StochasticTolerance {
			return Errorf(KindValidation, op, "row %d sums to %g, want 1", j, s)
		}
	}
	return nil
}

// ValidateFrequencies checks that f is a probability vector over alleles.
func ValidateFrequencies(f []float64, alleles int) error {
	const op = "frequencies"
	if len(f) != alleles {
		return Errorf(KindValidation, op, "have %d values for %d alleles", len(f), alleles)
	}
	for i, v := range f {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Errorf(KindValidation, op, "value %d must be in [0,1], got %g", i, v)
		}
	}
	if s := floats.Sum(f); math.Abs(s-1) > StochasticTolerance {
		return Errorf(KindValidation, op, "sum to %g, want 1", s)
	}
	return nil
}

// IdentityMutation returns the no-mutation matrix for n alleles.
func IdentityMutation(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// UniformMutation returns a matrix where every allele mutates to each other allele at rate u.
func UniformMutation(n int, u float64) [][]float64 {
	m := make([][]float64, n)
	for j := range m {
		m[j] = make([]float64, n)
		for i := range m[j] {
			if i == j {
				m[j][i] = 1 - u*float64(n-1)
			} else {
				m[j][i] = u
			}
		}
	}
	return m
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

func cloneSlice(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}
