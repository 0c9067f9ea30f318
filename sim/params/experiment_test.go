package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-abc/popgen-abc/sim"
)

func TestBuildExperiment_Defaults(t *testing.T) {
	cfg, err := BuildExperiment(New(map[string]string{"population_size": "500"}))
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.PopulationSize)
	assert.Equal(t, DefaultRepeats, cfg.ABC.Repeats)
	assert.Equal(t, DefaultAcceptanceRate, cfg.ABC.AcceptanceRate)
	assert.Equal(t, DefaultBatches, cfg.ABC.Batches)
	assert.Equal(t, sim.MetricL1, cfg.ABC.Metric)
	assert.Equal(t, sim.ScalingNone, cfg.ABC.Scaling)
	assert.Equal(t, "uniform", cfg.Prior.Family)
	assert.Nil(t, cfg.ABC.RejectionThreshold)
	assert.Nil(t, cfg.FitnessRange)
	assert.Nil(t, cfg.Bottleneck)
	assert.Nil(t, cfg.Growth)
}

func TestBuildExperiment_AllGroups(t *testing.T) {
	p := New(map[string]string{
		"population_size":     "1e4",
		"initial_frequencies": "0.5 0.5",
		"generations":         "100",
		"fitness":             "1 0.9",
		"mutation_rates":      "0.99 0.01 0.02 0.98",
		"min_fitness":         "0.5 0.5",
		"max_fitness":         "1.5 1.5",
		"min_mutation_rate":   "-8",
		"max_mutation_rate":   "-4",
		"min_population_size": "2",
		"max_population_size": "4",
		"bottleneck_size":     "50",
		"bottleneck_interval": "20",
		"carrying_capacity":   "20000",
		"growth_rate":         "0.1",
		"sampling_depth":      "100",
		"generation_shift":    "5",
		"seed":                "99",
		"prior_distribution":  "lognormal",
		"lognormal_sigma":     "0.2",
		"lethal_fraction":     "0.1",
		"repeats":             "200",
		"sims_to_keep":        "10",
		"rejection_threshold": "0.3",
		"distance_metric":     "l2",
		"scaling":             "mad",
		"batches":             "4",
		"workers":             "2",
	})
	cfg, err := BuildExperiment(p)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0.99, 0.01}, {0.02, 0.98}}, cfg.MutationRates)
	assert.Equal(t, &sim.Bounds{Min: []float64{0.5, 0.5}, Max: []float64{1.5, 1.5}}, cfg.FitnessRange)
	assert.Equal(t, &sim.Range{Min: -8, Max: -4}, cfg.MutationRange)
	assert.Equal(t, &sim.Range{Min: 2, Max: 4}, cfg.PopulationSizeRange)
	assert.Equal(t, &sim.Bottleneck{Size: 50, Interval: 20}, cfg.Bottleneck)
	assert.Equal(t, &sim.LogisticGrowth{CarryingCapacity: 20000, Rate: 0.1}, cfg.Growth)
	assert.Equal(t, int64(100), cfg.SamplingDepth)
	assert.Equal(t, 5, cfg.GenerationShift)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, sim.PriorSpec{Family: "lognormal", Sigma: 0.2, LethalFraction: 0.1}, cfg.Prior)
	require.NotNil(t, cfg.ABC.RejectionThreshold)
	assert.Equal(t, 0.3, *cfg.ABC.RejectionThreshold)
	assert.Equal(t, sim.MetricL2, cfg.ABC.Metric)
	assert.Equal(t, sim.ScalingMAD, cfg.ABC.Scaling)
	assert.Equal(t, 4, cfg.ABC.Batches)
	assert.Equal(t, 2, cfg.ABC.Workers)
	assert.Empty(t, p.Unused())
}

func TestBuildExperiment_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   error
	}{
		{"partial fitness range", map[string]string{"min_fitness": "0.5 0.5"}, sim.ErrConfiguration},
		{"partial growth", map[string]string{"growth_rate": "0.1"}, sim.ErrConfiguration},
		{"non-square mutation matrix", map[string]string{"mutation_rates": "0.5 0.5 1"}, sim.ErrValidation},
		{"non-integer repeats", map[string]string{"repeats": "12.5"}, sim.ErrValidation},
		{"negative repeats", map[string]string{"repeats": "-1"}, sim.ErrValidation},
		{"inverted fitness range", map[string]string{"min_fitness": "1 2", "max_fitness": "0.5 2"}, sim.ErrValidation},
		{"unknown metric", map[string]string{"distance_metric": "cosine"}, sim.ErrConfiguration},
		{"acceptance rate above one", map[string]string{"acceptance_rate": "1.5"}, sim.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildExperiment(New(tc.values))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}
