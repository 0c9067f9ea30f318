// Package observed loads observed allele-frequency time series.
//
// A dataset file is tab-delimited, one record per line:
//
//	generation	allele	frequency	[position]
//
// Lines starting with '#' are comments and a first line whose generation
// field is not a number is treated as a header. Records without a position
// belong to position 0. Within a position, records must be sorted by
// generation and every generation must list every allele.
package observed

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/popgen-abc/popgen-abc/sim"
)

// rowTolerance is how far an observed generation may sum away from 1 before
// it is rejected; rows within tolerance are renormalised.
const rowTolerance = 0.01

// Record is one (generation, allele, frequency) observation.
type Record struct {
	Generation int
	Allele     int
	Frequency  float64
	Position   int64
}

// Locus is the time series observed at one genomic position.
type Locus struct {
	Position    int64
	generations []int
	freqs       *mat.Dense // len(generations) × alleles
}

// Dataset is every locus in a file, in order of first appearance.
type Dataset struct {
	Loci []*Locus
}

// Load reads and validates a dataset file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sim.WrapError(sim.KindData, "observed data", fmt.Errorf("opening %s: %w", path, err))
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses a dataset from r.
func Read(r io.Reader) (*Dataset, error) {
	records, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	return FromRecords(records)
}

func parseRecords(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []Record
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, sim.WrapError(sim.KindData, "observed data", err)
		}
		line, _ := reader.FieldPos(0)
		if len(row) == 1 {
			row = strings.Fields(row[0])
		}
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		if first {
			first = false
			if _, err := strconv.Atoi(strings.TrimSpace(row[0])); err != nil {
				continue // header
			}
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, sim.Errorf(sim.KindData, "observed data", "line %d: %v", line, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, sim.Errorf(sim.KindData, "observed data", "no records")
	}
	return records, nil
}

func parseRecord(row []string) (Record, error) {
	if len(row) < 3 {
		return Record{}, fmt.Errorf("expected at least 3 columns, got %d", len(row))
	}
	gen, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return Record{}, fmt.Errorf("generation %q: %w", row[0], err)
	}
	allele, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return Record{}, fmt.Errorf("allele %q: %w", row[1], err)
	}
	freq, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("frequency %q: %w", row[2], err)
	}
	rec := Record{Generation: gen, Allele: allele, Frequency: freq}
	if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
		pos, err := strconv.ParseInt(strings.TrimSpace(row[3]), 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("position %q: %w", row[3], err)
		}
		rec.Position = pos
	}
	return rec, nil
}

// FromRecords groups records by position and validates each locus.
func FromRecords(records []Record) (*Dataset, error) {
	var order []int64
	byPos := make(map[int64][]Record)
	for _, r := range records {
		if _, ok := byPos[r.Position]; !ok {
			order = append(order, r.Position)
		}
		byPos[r.Position] = append(byPos[r.Position], r)
	}
	ds := &Dataset{Loci: make([]*Locus, 0, len(order))}
	for _, pos := range order {
		locus, err := newLocus(pos, byPos[pos])
		if err != nil {
			return nil, err
		}
		ds.Loci = append(ds.Loci, locus)
	}
	return ds, nil
}

func newLocus(pos int64, records []Record) (*Locus, error) {
	fail := func(format string, args ...any) error {
		return sim.Errorf(sim.KindData, "observed data", "position %d: %s", pos, fmt.Sprintf(format, args...))
	}
	alleles := 0
	var gens []int
	for i, r := range records {
		if r.Allele < 0 {
			return nil, fail("negative allele index %d", r.Allele)
		}
		if math.IsNaN(r.Frequency) || r.Frequency < 0 || r.Frequency > 1 {
			return nil, fail("generation %d allele %d frequency %g outside [0,1]", r.Generation, r.Allele, r.Frequency)
		}
		if r.Allele+1 > alleles {
			alleles = r.Allele + 1
		}
		if i > 0 && r.Generation < records[i-1].Generation {
			return nil, fail("records are not sorted by generation (%d after %d)", r.Generation, records[i-1].Generation)
		}
		if len(gens) == 0 || gens[len(gens)-1] != r.Generation {
			gens = append(gens, r.Generation)
		}
	}
	if alleles < 2 {
		return nil, fail("at least 2 alleles are required, got %d", alleles)
	}

	freqs := mat.NewDense(len(gens), alleles, nil)
	seen := make([][]bool, len(gens))
	for i := range seen {
		seen[i] = make([]bool, alleles)
	}
	row := 0
	for _, r := range records {
		for gens[row] != r.Generation {
			row++
		}
		if seen[row][r.Allele] {
			return nil, fail("generation %d lists allele %d twice", r.Generation, r.Allele)
		}
		seen[row][r.Allele] = true
		freqs.Set(row, r.Allele, r.Frequency)
	}
	for g := range gens {
		for a := 0; a < alleles; a++ {
			if !seen[g][a] {
				return nil, fail("generation %d is missing allele %d", gens[g], a)
			}
		}
		v := freqs.RawRowView(g)
		s := floats.Sum(v)
		if math.Abs(s-1) > rowTolerance {
			return nil, fail("generation %d frequencies sum to %g", gens[g], s)
		}
		floats.Scale(1/s, v)
	}
	return &Locus{Position: pos, generations: gens, freqs: freqs}, nil
}

// Alleles returns the number of alleles at the locus.
func (l *Locus) Alleles() int {
	_, c := l.freqs.Dims()
	return c
}

// FirstGeneration returns the earliest observed generation.
func (l *Locus) FirstGeneration() int { return l.generations[0] }

// LastGeneration returns the latest observed generation.
func (l *Locus) LastGeneration() int { return l.generations[len(l.generations)-1] }

// Generations returns the unique observed generations in order.
func (l *Locus) Generations() []int { return append([]int(nil), l.generations...) }

// Span is the number of generations between the first and last observation.
func (l *Locus) Span() int { return l.LastGeneration() - l.FirstGeneration() }

// Frequencies returns the observed generation × allele matrix.
func (l *Locus) Frequencies() *sim.Trajectory {
	return sim.TrajectoryFromMatrix(mat.DenseCopyOf(l.freqs))
}

// InitialFrequencies returns the frequencies at the first generation.
func (l *Locus) InitialFrequencies() []float64 {
	return append([]float64(nil), l.freqs.RawRowView(0)...)
}

// WildType returns the allele with the highest frequency at the first
// generation; ties go to the lowest index.
func (l *Locus) WildType() int {
	return floats.MaxIdx(l.freqs.RawRowView(0))
}

// RowIndices maps every observed generation to its simulated trajectory row
// given a generation shift.
func (l *Locus) RowIndices(shift int) []int {
	out := make([]int, len(l.generations))
	for i, g := range l.generations {
		out[i] = g - l.FirstGeneration() + shift
	}
	return out
}

// Locus returns the locus at pos.
func (d *Dataset) Locus(pos int64) (*Locus, error) {
	for _, l := range d.Loci {
		if l.Position == pos {
			return l, nil
		}
	}
	return nil, sim.Errorf(sim.KindData, "observed data", "no locus at position %d", pos)
}
