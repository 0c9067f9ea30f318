package sim

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Trajectory is a generation × allele matrix of frequencies.
// Row 0 holds the initial frequencies.
type Trajectory struct {
	m *mat.Dense
}

// NewTrajectory allocates a zeroed trajectory with generations rows.
func NewTrajectory(generations, alleles int) *Trajectory {
	return &Trajectory{m: mat.NewDense(generations, alleles, nil)}
}

// TrajectoryFromRows builds a trajectory from row slices. Rows are copied.
func TrajectoryFromRows(rows [][]float64) *Trajectory {
	if len(rows) == 0 {
		return &Trajectory{m: &mat.Dense{}}
	}
	t := NewTrajectory(len(rows), len(rows[0]))
	for g, row := range rows {
		t.m.SetRow(g, row)
	}
	return t
}

// TrajectoryFromMatrix wraps an existing matrix without copying.
func TrajectoryFromMatrix(m *mat.Dense) *Trajectory {
	return &Trajectory{m: m}
}

// Generations returns the number of rows.
func (t *Trajectory) Generations() int {
	if t.m.IsEmpty() {
		return 0
	}
	r, _ := t.m.Dims()
	return r
}

// Alleles returns the number of columns.
func (t *Trajectory) Alleles() int {
	if t.m.IsEmpty() {
		return 0
	}
	_, c := t.m.Dims()
	return c
}

// At returns the frequency of allele a at row g.
func (t *Trajectory) At(g, a int) float64 { return t.m.At(g, a) }

// Row returns a view of row g. Callers must not retain it across Reset.
func (t *Trajectory) Row(g int) []float64 { return t.m.RawRowView(g) }

// SetRow copies freqs into row g.
func (t *Trajectory) SetRow(g int, freqs []float64) { t.m.SetRow(g, freqs) }

// Matrix exposes the underlying dense matrix.
func (t *Trajectory) Matrix() *mat.Dense { return t.m }

// Zero clears every cell.
func (t *Trajectory) Zero() { t.m.Zero() }

// Rows returns the generation rows listed in idx as a new trajectory.
// Out-of-range indices are an IndexError.
func (t *Trajectory) Rows(idx []int) (*Trajectory, error) {
	if len(idx) == 0 || t.Alleles() == 0 {
		return &Trajectory{m: &mat.Dense{}}, nil
	}
	out := NewTrajectory(len(idx), t.Alleles())
	n := t.Generations()
	for k, g := range idx {
		if g < 0 || g >= n {
			return nil, Errorf(KindIndex, "trajectory rows", "generation row %d outside [0,%d)", g, n)
		}
		out.m.SetRow(k, t.m.RawRowView(g))
	}
	return out, nil
}

// Clone returns a deep copy.
func (t *Trajectory) Clone() *Trajectory {
	return &Trajectory{m: mat.DenseCopyOf(t.m)}
}

// Validate checks that every cell is in [0,1] and every row sums to 1.
func (t *Trajectory) Validate() error {
	for g := 0; g < t.Generations(); g++ {
		row := t.m.RawRowView(g)
		for a, v := range row {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return Errorf(KindValidation, "trajectory", "generation %d allele %d has frequency %g", g, a, v)
			}
		}
		if s := floats.Sum(row); math.Abs(s-1) > StochasticTolerance {
			return Errorf(KindValidation, "trajectory", "generation %d sums to %g", g, s)
		}
	}
	return nil
}
