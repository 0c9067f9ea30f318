package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExperiment() *ExperimentConfig {
	return &ExperimentConfig{
		PopulationSize: 1000,
		FitnessRange:   &Bounds{Min: []float64{0.5, 0.5}, Max: []float64{1.5, 1.5}},
		Prior:          PriorSpec{Family: "uniform"},
		ABC:            ABCSettings{Repeats: 100, AcceptanceRate: 0.1, Metric: MetricL1, Scaling: ScalingNone},
	}
}

func TestExperimentConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExperimentConfig)
		kind   error
	}{
		{"valid", func(*ExperimentConfig) {}, nil},
		{"negative population", func(c *ExperimentConfig) { c.PopulationSize = -1 }, ErrValidation},
		{"acceptance rate above 1", func(c *ExperimentConfig) { c.ABC.AcceptanceRate = 1.5 }, ErrValidation},
		{"negative threshold", func(c *ExperimentConfig) { v := -1.0; c.ABC.RejectionThreshold = &v }, ErrValidation},
		{"inverted mutation range", func(c *ExperimentConfig) { c.MutationRange = &Range{Min: -3, Max: -6} }, ErrValidation},
		{"unknown prior family", func(c *ExperimentConfig) { c.Prior.Family = "beta" }, ErrValidation},
		{"lethal fraction above 1", func(c *ExperimentConfig) { c.Prior.LethalFraction = 2 }, ErrValidation},
		{"negative fitness", func(c *ExperimentConfig) { c.Fitness = []float64{1, -1} }, ErrValidation},
		{"fitness range length", func(c *ExperimentConfig) { c.FitnessRange.Max = []float64{1} }, ErrValidation},
		{"fitness range inverted", func(c *ExperimentConfig) { c.FitnessRange.Min[1] = 2 }, ErrValidation},
		{"negative min fitness", func(c *ExperimentConfig) { c.FitnessRange.Min[0] = -0.1 }, ErrValidation},
		{"population size range below one", func(c *ExperimentConfig) { c.PopulationSizeRange = &Range{Min: -1, Max: 3} }, ErrValidation},
		{"population size range from one", func(c *ExperimentConfig) { c.PopulationSizeRange = &Range{Min: 0, Max: 3} }, nil},
		{"mutation rows not stochastic", func(c *ExperimentConfig) { c.MutationRates = [][]float64{{0.5, 0.2}, {0.1, 0.9}} }, ErrValidation},
		{"initial frequencies off one", func(c *ExperimentConfig) { c.InitialFrequencies = []float64{0.5, 0.4} }, ErrValidation},
		{"bottleneck without size", func(c *ExperimentConfig) { c.Bottleneck = &Bottleneck{Interval: 10} }, ErrValidation},
		{"bottleneck without interval", func(c *ExperimentConfig) { c.Bottleneck = &Bottleneck{Size: 10} }, ErrValidation},
		{"growth without capacity", func(c *ExperimentConfig) { c.Growth = &LogisticGrowth{Rate: 0.1} }, ErrValidation},
		{"complete demography", func(c *ExperimentConfig) {
			c.Bottleneck = &Bottleneck{Size: 10, Interval: 5}
			c.Growth = &LogisticGrowth{CarryingCapacity: 5000, Rate: 0.2}
		}, nil},
		{"unknown metric", func(c *ExperimentConfig) { c.ABC.Metric = "cosine" }, ErrConfiguration},
		{"unknown scaling", func(c *ExperimentConfig) { c.ABC.Scaling = "iqr" }, ErrConfiguration},
		{"fitness and mutation disagree", func(c *ExperimentConfig) {
			c.Fitness = []float64{1, 1}
			c.MutationRates = IdentityMutation(3)
		}, ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validExperiment()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.kind == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestExperimentConfig_Capabilities(t *testing.T) {
	cfg := &ExperimentConfig{}
	assert.False(t, cfg.CanInferFitness())
	assert.False(t, cfg.CanInferMutationRate())
	assert.False(t, cfg.CanInferPopulationSize())
	assert.False(t, cfg.CanSimulate())

	cfg.PopulationSizeRange = &Range{Min: 2, Max: 5}
	assert.True(t, cfg.CanInfer(FactorPopulationSize))

	cfg.FitnessRange = &Bounds{Min: []float64{1}, Max: []float64{1}}
	cfg.MutationRange = &Range{Min: -8, Max: -4}
	assert.False(t, cfg.CanInfer(FactorFitness), "fitness needs a population size")
	assert.False(t, cfg.CanInfer(FactorMutationRate), "mutation needs a population size")

	cfg.PopulationSize = 100
	assert.True(t, cfg.CanInfer(FactorFitness))
	assert.True(t, cfg.CanInfer(FactorMutationRate))
	assert.False(t, cfg.CanInfer(Factor(0)))

	cfg.InitialFrequencies = []float64{0.5, 0.5}
	cfg.Fitness = []float64{1, 1}
	cfg.Generations = 10
	assert.True(t, cfg.CanSimulate())
}

func TestExperimentConfig_SimulationConfigDefaults(t *testing.T) {
	cfg := validExperiment()
	cfg.GenerationShift = 2
	sc := cfg.SimulationConfig([]float64{0.25, 0.75}, 30)

	assert.Equal(t, 2, sc.AlleleCount)
	assert.Equal(t, []float64{1, 1}, sc.Fitness)
	assert.Equal(t, IdentityMutation(2), sc.MutationRates)
	assert.Equal(t, 30, sc.Generations)
	assert.Equal(t, 2, sc.GenerationShift)
	require.NotNil(t, sc.FitnessBounds)
	assert.Equal(t, []float64{0.5, 0.5}, sc.FitnessBounds.Min)

	// the base config does not alias the experiment's slices
	sc.FitnessBounds.Min[0] = 9
	assert.Equal(t, 0.5, cfg.FitnessRange.Min[0])
}

func TestFactor_String(t *testing.T) {
	assert.Equal(t, "fitness", FactorFitness.String())
	assert.Equal(t, "mutation-rate", FactorMutationRate.String())
	assert.Equal(t, "population-size", FactorPopulationSize.String())
	assert.Equal(t, "factor(9)", Factor(9).String())
}
