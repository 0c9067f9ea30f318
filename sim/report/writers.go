// Package report writes inference and simulation outputs.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/popgen-abc/popgen-abc/sim"
)

// ParameterNames labels the columns of a prior row for factor.
func ParameterNames(factor sim.Factor, dim int) []string {
	names := make([]string, dim)
	switch factor {
	case sim.FactorFitness:
		for i := range names {
			names[i] = fmt.Sprintf("fitness_%d", i)
		}
	case sim.FactorMutationRate:
		alleles := 0
		for alleles*alleles < dim {
			alleles++
		}
		for i := range names {
			names[i] = fmt.Sprintf("log10_mu_%d_%d", i/alleles, i%alleles)
		}
	case sim.FactorPopulationSize:
		for i := range names {
			names[i] = "log10_population_size"
		}
	default:
		for i := range names {
			names[i] = fmt.Sprintf("param_%d", i)
		}
	}
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, "\t")
}

// WritePosteriorHeader writes the column header of a posterior file.
func WritePosteriorHeader(w io.Writer, factor sim.Factor, dim int) error {
	cols := append([]string{"position", "rank", "trial", "distance"}, ParameterNames(factor, dim)...)
	_, err := fmt.Fprintln(w, strings.Join(cols, "\t"))
	return err
}

// WritePosterior writes one row per accepted result, in rank order. Several
// loci can share one file below a single header.
func WritePosterior(w io.Writer, position int64, accepted []*sim.SimulationResult) error {
	for rank, r := range accepted {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
			position, rank+1, r.Trial, formatFloat(r.Distance), joinFloats(r.Sample)); err != nil {
			return err
		}
	}
	return nil
}

// WritePrior writes the prior matrix, one trial per row.
func WritePrior(w io.Writer, factor sim.Factor, prior [][]float64) error {
	dim := 0
	if len(prior) > 0 {
		dim = len(prior[0])
	}
	cols := append([]string{"trial"}, ParameterNames(factor, dim)...)
	if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
		return err
	}
	for i, row := range prior {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", i, joinFloats(row)); err != nil {
			return err
		}
	}
	return nil
}

// WriteTrajectory writes a generation × allele trajectory with the
// generation number in the first column.
func WriteTrajectory(w io.Writer, t *sim.Trajectory) error {
	cols := []string{"generation"}
	for a := 0; a < t.Alleles(); a++ {
		cols = append(cols, fmt.Sprintf("allele_%d", a))
	}
	if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
		return err
	}
	for g := 0; g < t.Generations(); g++ {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", g, joinFloats(t.Row(g))); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile creates path and hands a buffered writer to fn.
func WriteFile(path string, fn func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()
	writer := bufio.NewWriter(file)
	if err := fn(writer); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}
