package sim

import (
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// PopulationSimulator owns one allele-frequency trajectory and advances it
// generation by generation under a fixed SimulationConfig.
//
// A simulator is created per trial and discarded once its result has been
// extracted; it is not safe for concurrent use.
type PopulationSimulator struct {
	config     SimulationConfig
	configured bool

	src *rand.PCG

	trajectory *Trajectory
	sampled    *Trajectory // nil unless SamplingDepth > 0

	generation int     // last generation written
	popSize    float64 // current N, changes under logistic growth
	growthBase float64 // N0 of the current growth curve
	growthTime float64 // t of the current growth curve

	// scratch rows reused across generations
	adjusted      []float64
	deterministic []float64
	drift         []float64
}

// NewPopulationSimulator returns an unconfigured simulator.
func NewPopulationSimulator() *PopulationSimulator {
	return &PopulationSimulator{}
}

// Configure validates config and prepares a fresh trajectory seeded from the
// initial frequencies. The config is copied; callers may reuse their slices.
func (p *PopulationSimulator) Configure(config SimulationConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	p.config = config
	p.config.MutationRates = cloneMatrix(config.MutationRates)
	p.config.Fitness = cloneSlice(config.Fitness)
	p.config.InitialFrequencies = cloneSlice(config.InitialFrequencies)
	if p.config.FoundingSize == 0 {
		p.config.FoundingSize = p.config.PopulationSize
	}

	n := p.config.AlleleCount
	rows := p.TotalGenerations() + 1
	p.trajectory = NewTrajectory(rows, n)
	p.sampled = nil
	if p.config.SamplingDepth > 0 {
		p.sampled = NewTrajectory(rows, n)
	}
	p.adjusted = make([]float64, n)
	p.deterministic = make([]float64, n)
	p.drift = make([]float64, n)
	p.configured = true
	p.Reset()
	return nil
}

// Reset re-zeros the trajectory, reseeds generation 0 from the initial
// frequencies and rewinds the RNG to the configured seed. No config is
// reallocated.
func (p *PopulationSimulator) Reset() {
	if !p.configured {
		return
	}
	p.src = NewSource(p.config.Seed)
	p.generation = 0
	p.growthTime = 0
	p.growthBase = float64(p.config.FoundingSize)
	p.popSize = float64(p.config.PopulationSize)
	if p.config.Growth != nil {
		p.popSize = p.growthBase
	}
	p.trajectory.Zero()
	if p.sampled != nil {
		p.sampled.Zero()
	}
	if p.config.InitialFrequencies != nil {
		p.trajectory.SetRow(0, p.config.InitialFrequencies)
		if p.sampled != nil {
			p.sampled.SetRow(0, p.config.InitialFrequencies)
		}
	}
}

// TotalGenerations is the number of generations evolved after generation 0.
func (p *PopulationSimulator) TotalGenerations() int {
	return p.config.Generations + p.config.GenerationShift
}

// Generation returns the last generation written.
func (p *PopulationSimulator) Generation() int { return p.generation }

// PopulationSize returns the current (possibly growing) population size.
func (p *PopulationSimulator) PopulationSize() float64 { return p.popSize }

// Config returns the simulator's copy of its configuration.
func (p *PopulationSimulator) Config() SimulationConfig { return p.config }

// Trajectory returns the simulated trajectory.
func (p *PopulationSimulator) Trajectory() *Trajectory { return p.trajectory }

// Sampled returns the sub-sampled trajectory, or nil when sampling is off.
func (p *PopulationSimulator) Sampled() *Trajectory { return p.sampled }

func (p *PopulationSimulator) checkReady() error {
	const op = "evolve"
	switch {
	case !p.configured:
		return Errorf(KindConfiguration, op, "simulator is not configured")
	case p.config.Fitness == nil:
		return Errorf(KindConfiguration, op, "fitness values are required")
	case p.config.MutationRates == nil:
		return Errorf(KindConfiguration, op, "mutation rates are required")
	case p.config.InitialFrequencies == nil:
		return Errorf(KindConfiguration, op, "initial frequencies are required")
	}
	return nil
}

// EvolveAllGenerations runs every remaining generation.
func (p *PopulationSimulator) EvolveAllGenerations() error {
	if err := p.checkReady(); err != nil {
		return err
	}
	for p.generation < p.TotalGenerations() {
		if err := p.EvolveOneGeneration(); err != nil {
			return err
		}
	}
	return nil
}

// EvolveOneGeneration computes row g from row g-1.
func (p *PopulationSimulator) EvolveOneGeneration() error {
	if err := p.checkReady(); err != nil {
		return err
	}
	if p.generation >= p.TotalGenerations() {
		return Errorf(KindIndex, "evolve", "generation %d is the last configured generation", p.generation)
	}
	g := p.generation + 1
	prev := p.trajectory.Row(g - 1)

	// 1. selection
	meanFitness := floats.Dot(p.config.Fitness, prev)
	if meanFitness <= 0 || math.IsNaN(meanFitness) {
		return Errorf(KindValidation, "evolve", "mean fitness is %g at generation %d", meanFitness, g)
	}
	for i, w := range p.config.Fitness {
		p.adjusted[i] = w / meanFitness
	}

	// 2. mutation inflow
	for i := range p.deterministic {
		sum := 0.0
		for j, f := range prev {
			sum += p.config.MutationRates[j][i] * f * p.adjusted[j]
		}
		p.deterministic[i] = sum
	}
	normalize(p.deterministic)

	// 3. logistic growth
	if gr := p.config.Growth; gr != nil {
		k, n0 := gr.CarryingCapacity, p.growthBase
		p.popSize = k * n0 / (n0 + math.Exp(-gr.Rate*p.growthTime)*(k-n0))
		p.growthTime++
	}

	// 4. drift
	row := p.drift
	p.binomialRow(row, p.popSize, p.deterministic)

	// 5. sub-sampling
	if p.sampled != nil {
		obs := make([]float64, len(row))
		p.binomialRow(obs, float64(p.config.SamplingDepth), p.deterministic)
		p.sampled.SetRow(g, obs)
	}

	// 6. bottleneck
	if b := p.config.Bottleneck; b != nil && g%b.Interval == 0 {
		p.binomialRow(row, float64(b.Size), p.deterministic)
		p.growthBase = float64(b.Size)
		p.growthTime = 0
		logrus.Debugf("[gen %05d] bottleneck to %d individuals", g, b.Size)
	}

	// 7. write
	p.trajectory.SetRow(g, row)
	p.generation = g
	return nil
}

// binomialRow draws Binomial(n, probs[i]) per allele into dst and divides by
// the realised total. A zero total keeps the expectation probs.
func (p *PopulationSimulator) binomialRow(dst []float64, n float64, probs []float64) {
	n = math.Max(1, math.Round(n))
	total := 0.0
	for i, q := range probs {
		var x float64
		switch {
		case q <= 0:
			x = 0
		case q >= 1:
			x = n
		default:
			x = distuv.Binomial{N: n, P: q, Src: p.src}.Rand()
		}
		dst[i] = x
		total += x
	}
	if total == 0 {
		copy(dst, probs)
		return
	}
	floats.Scale(1/total, dst)
}

// normalize rescales v to sum to 1 in place. An all-zero vector is left unchanged.
func normalize(v []float64) {
	if s := floats.Sum(v); s > 0 {
		floats.Scale(1/s, v)
	}
}
