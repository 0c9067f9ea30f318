// Package testutil provides shared test fixtures for the popgen-abc packages.
// It imports nothing from sim/ so the sim package tests can use it too.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// DatasetTSV renders an observed dataset with the same frequencies at every
// listed generation, all at position pos.
func DatasetTSV(pos int64, generations []int, freqs []float64) string {
	var b strings.Builder
	b.WriteString("generation\tallele\tfrequency\tposition\n")
	for _, g := range generations {
		for a, f := range freqs {
			fmt.Fprintf(&b, "%d\t%d\t%g\t%d\n", g, a, f, pos)
		}
	}
	return b.String()
}

// SeriesTSV renders an observed dataset from explicit per-generation rows.
func SeriesTSV(pos int64, generations []int, rows [][]float64) string {
	var b strings.Builder
	for i, g := range generations {
		for a, f := range rows[i] {
			fmt.Fprintf(&b, "%d\t%d\t%g\t%d\n", g, a, f, pos)
		}
	}
	return b.String()
}

// Generations returns first, first+step, ... up to and including last.
func Generations(first, last, step int) []int {
	var out []int
	for g := first; g <= last; g += step {
		out = append(out, g)
	}
	return out
}

// ParamsText renders a `name value` parameter file with keys in sorted order.
func ParamsText(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %s\n", k, values[k])
	}
	return b.String()
}

// WriteFile writes content to name inside a per-test temp directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
