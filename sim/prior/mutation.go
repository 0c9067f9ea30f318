package prior

import (
	"math"

	"github.com/popgen-abc/popgen-abc/sim"
)

// NormalizeMutationSample rewrites the diagonal of a flattened, log10-scaled
// alleles×alleles mutation sample so that each row sums to exactly 1 once
// exponentiated: diagonal = log10(1 - Σ off-diagonal rates).
func NormalizeMutationSample(sample []float64, alleles int) error {
	if len(sample) != alleles*alleles {
		return sim.Errorf(sim.KindValidation, "mutation prior", "sample has %d values for %d alleles", len(sample), alleles)
	}
	for j := 0; j < alleles; j++ {
		off := 0.0
		for i := 0; i < alleles; i++ {
			if i != j {
				off += math.Pow(10, sample[j*alleles+i])
			}
		}
		stay := 1 - off
		if stay <= 0 {
			return sim.Errorf(sim.KindValidation, "mutation prior", "row %d off-diagonal rates sum to %g, leaving no mass on the diagonal", j, off)
		}
		sample[j*alleles+j] = math.Log10(stay)
	}
	return nil
}

// MutationMatrix exponentiates a flattened log10 sample into a row-major matrix.
func MutationMatrix(sample []float64, alleles int) ([][]float64, error) {
	if len(sample) != alleles*alleles {
		return nil, sim.Errorf(sim.KindValidation, "mutation prior", "sample has %d values for %d alleles", len(sample), alleles)
	}
	m := make([][]float64, alleles)
	for j := range m {
		m[j] = make([]float64, alleles)
		for i := range m[j] {
			m[j][i] = math.Pow(10, sample[j*alleles+i])
		}
	}
	return m, nil
}

// MutationBounds expands a scalar log10 range to one range per matrix cell.
func MutationBounds(r sim.Range, alleles int) []sim.Range {
	out := make([]sim.Range, alleles*alleles)
	for i := range out {
		out[i] = r
	}
	return out
}
