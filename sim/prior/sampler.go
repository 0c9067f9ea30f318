// Package prior draws candidate parameter vectors for ABC trials.
package prior

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/popgen-abc/popgen-abc/sim"
)

// Family names.
const (
	FamilyUniform           = "uniform"
	FamilyFitnessComposite  = "fitness_composite"
	FamilySmoothedComposite = "smoothed_composite"
	FamilyLogNormal         = "lognormal"
)

var validFamilies = map[string]bool{
	FamilyUniform: true, FamilyFitnessComposite: true, FamilySmoothedComposite: true, FamilyLogNormal: true, "": true,
}

// IsValidFamily reports whether name is a recognised prior family ("" means uniform).
func IsValidFamily(name string) bool { return validFamilies[name] }

// maxAttempts bounds every reject-and-resample loop.
const maxAttempts = 100000

// Sampler draws one scalar inside [lo, hi]. Implementations are only called
// with lo < hi; the degenerate cases are handled by PriorSampler.
type Sampler interface {
	Draw(rng *rand.Rand, lo, hi float64) (float64, error)
}

// UniformSampler draws from Uniform(lo, hi).
type UniformSampler struct{}

func (UniformSampler) Draw(rng *rand.Rand, lo, hi float64) (float64, error) {
	return distuv.Uniform{Min: lo, Max: hi, Src: rng}.Rand(), nil
}

// CompositeSampler draws from the fixed 40-bin fitness distribution. When
// Smoothed is set the value is spread uniformly inside the chosen bin.
type CompositeSampler struct {
	Smoothed bool
}

func (s CompositeSampler) Draw(rng *rand.Rand, lo, hi float64) (float64, error) {
	if !s.reachable(lo, hi) {
		return 0, sim.Errorf(sim.KindValidation, "prior", "range [%g, %g] contains no composite fitness bin", lo, hi)
	}
	for range maxAttempts {
		i := compositeBin(rng.Float64())
		v := compositeValues[i]
		if s.Smoothed {
			v += rng.Float64() * (compositeUpper(i) - v)
		}
		if v >= lo && v <= hi {
			return v, nil
		}
	}
	return 0, sim.Errorf(sim.KindValidation, "prior", "no composite draw landed in [%g, %g] after %d attempts", lo, hi, maxAttempts)
}

func (s CompositeSampler) reachable(lo, hi float64) bool {
	for i, v := range compositeValues {
		if compositeWeights[i] <= 0 {
			continue
		}
		if s.Smoothed {
			if v <= hi && compositeUpper(i) > lo {
				return true
			}
		} else if v >= lo && v <= hi {
			return true
		}
	}
	return false
}

// LogNormalSampler returns exactly 0 with probability LethalFraction and
// otherwise draws LogNormal(Mu, Sigma) until the value lands in range.
type LogNormalSampler struct {
	Mu, Sigma      float64
	LethalFraction float64
}

func (s LogNormalSampler) Draw(rng *rand.Rand, lo, hi float64) (float64, error) {
	if s.LethalFraction > 0 && rng.Float64() < s.LethalFraction {
		return 0, nil
	}
	if hi <= 0 {
		return 0, sim.Errorf(sim.KindValidation, "prior", "lognormal support is positive, range is [%g, %g]", lo, hi)
	}
	d := distuv.LogNormal{Mu: s.Mu, Sigma: s.Sigma, Src: rng}
	for range maxAttempts {
		if v := d.Rand(); v >= lo && v <= hi {
			return v, nil
		}
	}
	return 0, sim.Errorf(sim.KindValidation, "prior", "no lognormal draw landed in [%g, %g] after %d attempts", lo, hi, maxAttempts)
}

// NewSampler creates a Sampler from a PriorSpec.
func NewSampler(spec sim.PriorSpec) (Sampler, error) {
	switch spec.Family {
	case FamilyUniform, "":
		return UniformSampler{}, nil
	case FamilyFitnessComposite:
		return CompositeSampler{}, nil
	case FamilySmoothedComposite:
		return CompositeSampler{Smoothed: true}, nil
	case FamilyLogNormal:
		if spec.Sigma <= 0 {
			return nil, sim.Errorf(sim.KindConfiguration, "prior", "lognormal prior requires a positive sigma, got %g", spec.Sigma)
		}
		if spec.LethalFraction < 0 || spec.LethalFraction > 1 {
			return nil, sim.Errorf(sim.KindValidation, "prior", "lethal fraction must be in [0,1], got %g", spec.LethalFraction)
		}
		return LogNormalSampler{Mu: spec.Mu, Sigma: spec.Sigma, LethalFraction: spec.LethalFraction}, nil
	default:
		return nil, sim.Errorf(sim.KindConfiguration, "prior", "unknown prior family %q; valid: uniform, fitness_composite, smoothed_composite, lognormal", spec.Family)
	}
}

// PriorSampler binds a Sampler to one range per parameter.
// Not safe for concurrent use: it owns a single RNG stream.
type PriorSampler struct {
	sampler Sampler
	bounds  []sim.Range
	rng     *rand.Rand
}

// New validates bounds and returns a PriorSampler drawing from rng.
func New(spec sim.PriorSpec, bounds []sim.Range, rng *rand.Rand) (*PriorSampler, error) {
	s, err := NewSampler(spec)
	if err != nil {
		return nil, err
	}
	for i, b := range bounds {
		if b.Min > b.Max {
			return nil, sim.Errorf(sim.KindValidation, "prior", "parameter %d has min %g > max %g", i, b.Min, b.Max)
		}
	}
	return &PriorSampler{sampler: s, bounds: append([]sim.Range(nil), bounds...), rng: rng}, nil
}

// Dim is the number of bounded parameters per draw.
func (p *PriorSampler) Dim() int { return len(p.bounds) }

// SampleOne draws a single value in [lo, hi]. lo == hi returns lo without
// consuming randomness; lo > hi is a ValidationError.
func (p *PriorSampler) SampleOne(lo, hi float64) (float64, error) {
	switch {
	case lo > hi:
		return 0, sim.Errorf(sim.KindValidation, "prior", "min %g > max %g", lo, hi)
	case lo == hi:
		return lo, nil
	}
	return p.sampler.Draw(p.rng, lo, hi)
}

// Sample returns n vectors, each with one value per bounded parameter.
func (p *PriorSampler) Sample(n int) ([][]float64, error) {
	if n < 0 {
		return nil, sim.Errorf(sim.KindValidation, "prior", "sample count must be non-negative, got %d", n)
	}
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, len(p.bounds))
		for j, b := range p.bounds {
			v, err := p.SampleOne(b.Min, b.Max)
			if err != nil {
				return nil, err
			}
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}
