package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestUniformMutation_RowsSumToOne(t *testing.T) {
	for n := 1; n <= 5; n++ {
		m := UniformMutation(n, 1e-3)
		require.NoError(t, ValidateMutationMatrix(m, n))
		for _, row := range m {
			assert.InDelta(t, 1, floats.Sum(row), 1e-12)
		}
	}
}

func TestIdentityMutation(t *testing.T) {
	assert.Equal(t, [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, IdentityMutation(3))
}

func TestValidateMutationMatrix(t *testing.T) {
	tests := []struct {
		name    string
		m       [][]float64
		alleles int
		ok      bool
	}{
		{"identity", IdentityMutation(2), 2, true},
		{"within tolerance", [][]float64{{0.9999999, 0.0000001}, {0.5, 0.5000001}}, 2, true},
		{"row sum off", [][]float64{{0.9, 0.05}, {0, 1}}, 2, false},
		{"negative entry", [][]float64{{1.1, -0.1}, {0, 1}}, 2, false},
		{"too few rows", [][]float64{{1, 0}}, 2, false},
		{"ragged row", [][]float64{{1, 0}, {1}}, 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMutationMatrix(tc.m, tc.alleles)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidateFrequencies(t *testing.T) {
	assert.NoError(t, ValidateFrequencies([]float64{0.25, 0.75}, 2))
	assert.Error(t, ValidateFrequencies([]float64{0.25, 0.7}, 2))
	assert.Error(t, ValidateFrequencies([]float64{1.5, -0.5}, 2))
	assert.Error(t, ValidateFrequencies([]float64{1}, 2))
}

func TestConfigure_CopiesCallerSlices(t *testing.T) {
	cfg := SimulationConfig{
		PopulationSize:     10,
		AlleleCount:        2,
		MutationRates:      IdentityMutation(2),
		Fitness:            []float64{1, 1},
		Generations:        1,
		InitialFrequencies: []float64{0.5, 0.5},
	}
	p := NewPopulationSimulator()
	require.NoError(t, p.Configure(cfg))
	cfg.Fitness[0] = 99
	cfg.MutationRates[0][0] = 99
	assert.Equal(t, []float64{1, 1}, p.Config().Fitness)
	assert.Equal(t, 1.0, p.Config().MutationRates[0][0])
	assert.Equal(t, int64(10), p.Config().FoundingSize)
}
