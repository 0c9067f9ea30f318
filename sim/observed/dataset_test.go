package observed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-abc/popgen-abc/internal/testutil"
	"github.com/popgen-abc/popgen-abc/sim"
)

func TestRead_HeaderCommentsAndPositions(t *testing.T) {
	// GIVEN two loci interleaved by first appearance, a header and comments
	input := strings.Join([]string{
		"generation\tallele\tfrequency\tposition",
		"# sampled every 10 generations",
		"0\t0\t0.9\t200",
		"0\t1\t0.1\t200",
		"0\t0\t0.5\t100",
		"0\t1\t0.3\t100",
		"0\t2\t0.2\t100",
		"10\t0\t0.8\t200",
		"10\t1\t0.2\t200",
		"20\t0\t0.6\t200",
		"20\t1\t0.4\t200",
		"",
	}, "\n")

	// WHEN the dataset is read
	ds, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	// THEN loci keep the order of first appearance
	require.Len(t, ds.Loci, 2)
	first, second := ds.Loci[0], ds.Loci[1]
	assert.Equal(t, int64(200), first.Position)
	assert.Equal(t, int64(100), second.Position)

	assert.Equal(t, 2, first.Alleles())
	assert.Equal(t, []int{0, 10, 20}, first.Generations())
	assert.Equal(t, 0, first.FirstGeneration())
	assert.Equal(t, 20, first.LastGeneration())
	assert.Equal(t, 20, first.Span())
	assert.InDeltaSlice(t, []float64{0.9, 0.1}, first.InitialFrequencies(), 1e-12)
	assert.Equal(t, 0, first.WildType())

	assert.Equal(t, 3, second.Alleles())
	assert.Equal(t, 0, second.Span())
}

func TestRead_NoPositionColumn_DefaultsToZero(t *testing.T) {
	ds, err := Read(strings.NewReader("5\t0\t0.25\n5\t1\t0.75\n7\t0\t0.5\n7\t1\t0.5\n"))
	require.NoError(t, err)
	require.Len(t, ds.Loci, 1)
	l := ds.Loci[0]
	assert.Equal(t, int64(0), l.Position)
	assert.Equal(t, 1, l.WildType())
	assert.Equal(t, []int{0, 2}, l.RowIndices(0))
	assert.Equal(t, []int{3, 5}, l.RowIndices(3))
}

func TestRead_WhitespaceSeparated(t *testing.T) {
	ds, err := Read(strings.NewReader("0 0 0.5 3\n0 1 0.5 3\n4 0 0.7 3\n4 1 0.3 3\n"))
	require.NoError(t, err)
	require.Len(t, ds.Loci, 1)
	assert.Equal(t, int64(3), ds.Loci[0].Position)
	assert.Equal(t, 4, ds.Loci[0].Span())
}

func TestRead_RenormalisesWithinTolerance(t *testing.T) {
	ds, err := Read(strings.NewReader("0\t0\t0.502\n0\t1\t0.502\n1\t0\t0.5\n1\t1\t0.5\n"))
	require.NoError(t, err)
	traj := ds.Loci[0].Frequencies()
	row := traj.Row(0)
	assert.InDelta(t, 0.5, row[0], 1e-12)
	assert.InDelta(t, 0.5, row[1], 1e-12)
}

func TestRead_WildTypeTieGoesToLowestIndex(t *testing.T) {
	ds, err := Read(strings.NewReader("0\t0\t0.4\n0\t1\t0.4\n0\t2\t0.2\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Loci[0].WildType())
}

func TestRead_MalformedData_DataError(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unsorted generations", "5\t0\t0.5\n5\t1\t0.5\n2\t0\t0.5\n2\t1\t0.5\n"},
		{"duplicate allele", "0\t0\t0.5\n0\t0\t0.5\n0\t1\t0.0\n"},
		{"missing allele", "0\t0\t0.5\n0\t1\t0.5\n1\t0\t1.0\n"},
		{"row does not sum to one", "0\t0\t0.5\n0\t1\t0.3\n"},
		{"frequency above one", "0\t0\t1.5\n0\t1\t-0.5\n"},
		{"negative allele", "0\t-1\t0.5\n0\t1\t0.5\n"},
		{"single allele", "0\t0\t1\n1\t0\t1\n"},
		{"bad frequency", "0\t0\tabc\n0\t1\t0.5\n"},
		{"bad position", "0\t0\t0.5\tx\n0\t1\t0.5\tx\n"},
		{"too few columns", "0\t0\t0.5\n0\t1\n"},
		{"only a header", "generation\tallele\tfrequency\n"},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, sim.ErrData), "got %v", err)
		})
	}
}

func TestLoad_FileFixture(t *testing.T) {
	path := testutil.WriteFile(t, "obs.tsv",
		testutil.DatasetTSV(42, testutil.Generations(0, 30, 10), []float64{0.6, 0.4}))
	ds, err := Load(path)
	require.NoError(t, err)
	l, err := ds.Locus(42)
	require.NoError(t, err)
	assert.Equal(t, 30, l.Span())
	assert.Equal(t, 4, l.Frequencies().Generations())

	_, err = ds.Locus(7)
	assert.True(t, errors.Is(err, sim.ErrData))
}

func TestLoad_MissingFile_DataError(t *testing.T) {
	_, err := Load("/nonexistent/observed.tsv")
	assert.True(t, errors.Is(err, sim.ErrData))
}

func TestFrequencies_IsACopy(t *testing.T) {
	ds, err := Read(strings.NewReader("0\t0\t0.5\n0\t1\t0.5\n"))
	require.NoError(t, err)
	l := ds.Loci[0]
	init := l.InitialFrequencies()
	init[0] = 9
	assert.Equal(t, 0.5, l.InitialFrequencies()[0])
}

func TestRead_ErrorReportsFileLine(t *testing.T) {
	// GIVEN a bad record preceded by a header and comment lines
	input := strings.Join([]string{
		"generation\tallele\tfrequency",
		"# first comment",
		"# second comment",
		"0\t0\t0.5",
		"0\t1\tabc",
		"",
	}, "\n")

	// WHEN the dataset is read
	_, err := Read(strings.NewReader(input))

	// THEN the error names the line in the file, comments included
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrData))
	assert.Contains(t, err.Error(), "line 5:")
}
