// Package abc runs approximate Bayesian computation by rejection: draw
// parameters from a prior, simulate one trajectory per draw, and keep the
// draws whose trajectories land closest to the observed data.
package abc

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/popgen-abc/popgen-abc/sim"
	"github.com/popgen-abc/popgen-abc/sim/observed"
	"github.com/popgen-abc/popgen-abc/sim/prior"
	"github.com/popgen-abc/popgen-abc/sim/trace"
)

// Options are per-run overrides that do not belong in the parameter file.
type Options struct {
	// Prior, when non-nil, is reused instead of drawing a fresh matrix.
	// Rows must have the factor's dimensionality.
	Prior [][]float64
	// Workers overrides the configured worker count when positive.
	Workers int
	// Trace, when non-nil and enabled, receives one record per trial.
	Trace *trace.SimulationTrace
}

// Controller infers one factor at one locus.
// Not safe for concurrent use.
type Controller struct {
	cfg    *sim.ExperimentConfig
	locus  *observed.Locus
	factor sim.Factor
	rng    *sim.PartitionedRNG

	repeats     int
	dim         int
	alleles     int
	acceptCount int
	threshold   *float64
	workers     int

	prior    [][]float64
	base     sim.SimulationConfig
	rows     []int
	actual   *sim.Trajectory
	wildType int
	trace    *trace.SimulationTrace

	results []*sim.SimulationResult
	ran     bool
}

// NewController validates that cfg can infer factor, then draws (or adopts)
// the prior matrix. No simulation work happens here.
func NewController(cfg *sim.ExperimentConfig, locus *observed.Locus, factor sim.Factor, opts Options) (*Controller, error) {
	const op = "abc"
	if cfg == nil || locus == nil {
		return nil, sim.Errorf(sim.KindConfiguration, op, "experiment config and locus are required")
	}
	if err := checkFactor(cfg, factor); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		locus:     locus,
		factor:    factor,
		rng:       sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
		repeats:   cfg.ABC.Repeats,
		alleles:   locus.Alleles(),
		threshold: cfg.ABC.RejectionThreshold,
		rows:      locus.RowIndices(cfg.GenerationShift),
		actual:    locus.Frequencies(),
		wildType:  locus.WildType(),
		trace:     opts.Trace,
	}
	c.base = cfg.SimulationConfig(locus.InitialFrequencies(), locus.Span())
	if cfg.Fitness != nil && len(cfg.Fitness) != c.alleles {
		return nil, sim.Errorf(sim.KindValidation, op, "fitness has %d values but locus %d has %d alleles", len(cfg.Fitness), locus.Position, c.alleles)
	}
	if cfg.MutationRates != nil && len(cfg.MutationRates) != c.alleles {
		return nil, sim.Errorf(sim.KindValidation, op, "mutation_rates has %d rows but locus %d has %d alleles", len(cfg.MutationRates), locus.Position, c.alleles)
	}

	c.workers = cfg.ABC.Workers
	if opts.Workers > 0 {
		c.workers = opts.Workers
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}

	c.acceptCount = acceptanceCount(cfg.ABC)

	bounds, err := c.bounds()
	if err != nil {
		return nil, err
	}
	c.dim = len(bounds)

	if opts.Prior != nil {
		for i, row := range opts.Prior {
			if len(row) != c.dim {
				return nil, sim.Errorf(sim.KindValidation, op, "supplied prior row %d has %d values, want %d", i, len(row), c.dim)
			}
		}
		c.prior = opts.Prior
	} else if c.prior, err = DrawPrior(cfg, c.alleles, factor, c.rng); err != nil {
		return nil, err
	}
	if err := c.checkTrials(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkTrials validates the configuration of every trial before any of them
// runs, so a bad prior row or base setting fails construction.
func (c *Controller) checkTrials() error {
	for i := range c.prior {
		cfg, err := c.TrialConfig(i)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("trial %d: %w", i, err)
		}
	}
	return nil
}

// DrawPrior draws the repeats × dim prior matrix for factor. Mutation-rate
// rows are normalised so each exponentiated matrix row sums to 1. The matrix
// can be shared by controllers at several loci with the same allele count.
func DrawPrior(cfg *sim.ExperimentConfig, alleles int, factor sim.Factor, rng *sim.PartitionedRNG) ([][]float64, error) {
	if err := checkFactor(cfg, factor); err != nil {
		return nil, err
	}
	bounds, err := factorBounds(cfg, alleles, factor)
	if err != nil {
		return nil, err
	}
	sampler, err := prior.New(cfg.Prior, bounds, rng.ForSubsystem(sim.SubsystemPrior))
	if err != nil {
		return nil, err
	}
	draws, err := sampler.Sample(cfg.ABC.Repeats)
	if err != nil {
		return nil, err
	}
	if factor == sim.FactorMutationRate {
		for i, row := range draws {
			if err := prior.NormalizeMutationSample(row, alleles); err != nil {
				return nil, fmt.Errorf("prior draw %d: %w", i, err)
			}
		}
	}
	logrus.Debugf("drew %d %s prior samples of dimension %d", len(draws), factor, len(bounds))
	return draws, nil
}

func checkFactor(cfg *sim.ExperimentConfig, factor sim.Factor) error {
	const op = "abc"
	if cfg.CanInfer(factor) {
		return nil
	}
	switch factor {
	case sim.FactorFitness:
		if cfg.FitnessRange == nil {
			return sim.Errorf(sim.KindConfiguration, op, "inferring fitness requires min_fitness and max_fitness")
		}
	case sim.FactorMutationRate:
		if cfg.MutationRange == nil {
			return sim.Errorf(sim.KindConfiguration, op, "inferring mutation rates requires min_mutation_rate and max_mutation_rate")
		}
	case sim.FactorPopulationSize:
		return sim.Errorf(sim.KindConfiguration, op, "inferring population size requires min_population_size and max_population_size")
	default:
		return sim.Errorf(sim.KindConfiguration, op, "unknown factor %s", factor)
	}
	return sim.Errorf(sim.KindPrecondition, op, "inferring %s requires a positive population_size", factor)
}

func factorBounds(cfg *sim.ExperimentConfig, alleles int, factor sim.Factor) ([]sim.Range, error) {
	switch factor {
	case sim.FactorFitness:
		r := cfg.FitnessRange
		if len(r.Min) != alleles {
			return nil, sim.Errorf(sim.KindValidation, "abc", "fitness bounds have %d values for %d alleles", len(r.Min), alleles)
		}
		out := make([]sim.Range, alleles)
		for i := range out {
			out[i] = sim.Range{Min: r.Min[i], Max: r.Max[i]}
		}
		return out, nil
	case sim.FactorMutationRate:
		return prior.MutationBounds(*cfg.MutationRange, alleles), nil
	default:
		return []sim.Range{*cfg.PopulationSizeRange}, nil
	}
}

func (c *Controller) bounds() ([]sim.Range, error) {
	return factorBounds(c.cfg, c.alleles, c.factor)
}

// acceptanceCount resolves the construction-time acceptance count. An
// explicit sims_to_keep wins over the acceptance rate; a rejection threshold
// replaces both once distances are known.
func acceptanceCount(s sim.ABCSettings) int {
	n := int(s.AcceptanceRate * float64(s.Repeats))
	if s.SimsToKeep > 0 {
		n = s.SimsToKeep
	}
	if n == 0 && s.AcceptanceRate > 0 && s.Repeats > 0 {
		n = 1
	}
	return min(n, s.Repeats)
}

// Prior returns the prior matrix, one row per trial.
func (c *Controller) Prior() [][]float64 { return c.prior }

// Factor returns the inferred factor.
func (c *Controller) Factor() sim.Factor { return c.factor }

// Locus returns the observed locus.
func (c *Controller) Locus() *observed.Locus { return c.locus }

// Repeats returns the number of trials.
func (c *Controller) Repeats() int { return c.repeats }

// Dim returns the number of parameters per prior row.
func (c *Controller) Dim() int { return c.dim }

// Results returns every result sorted by ascending distance. Empty before
// RunInference.
func (c *Controller) Results() []*sim.SimulationResult { return c.results }

// RunInference runs every trial in numBatches batches, computes distances and
// sorts the results. Batches only structure progress reporting; trials
// inside a batch run on the worker pool. Any trial error aborts the run.
func (c *Controller) RunInference(ctx context.Context, numBatches int) error {
	c.results = nil
	c.ran = false
	if numBatches <= 0 {
		numBatches = 1
	}
	if c.repeats > 0 && numBatches > c.repeats {
		numBatches = c.repeats
	}

	label := c.factor.String()
	logrus.Infof("inferring %s at position %d: %d trials in %d batches on %d workers",
		label, c.locus.Position, c.repeats, numBatches, c.workers)

	slots := make([]*sim.SimulationResult, c.repeats)
	chunk := c.repeats / numBatches
	start := time.Now()
	for b := 0; b < numBatches; b++ {
		lo := b * chunk
		hi := lo + chunk
		if b == numBatches-1 {
			hi = c.repeats
		}
		batchStart := time.Now()
		if err := c.runBatch(ctx, slots, lo, hi); err != nil {
			return err
		}
		batchSecs := time.Since(batchStart).Seconds()
		elapsed := time.Since(start).Seconds()

		rate := 0.0
		if elapsed > 0 {
			rate = float64(hi) / elapsed
		}
		eta := 0.0
		if rate > 0 {
			eta = float64(c.repeats-hi) / rate
		}
		trialsTotal.WithLabelValues(label).Add(float64(hi - lo))
		batchDuration.WithLabelValues(label).Observe(batchSecs)
		trialsPerSecond.WithLabelValues(label).Set(rate)
		etaSeconds.WithLabelValues(label).Set(eta)
		if c.tracing() {
			c.trace.RecordBatch(trace.BatchRecord{Index: b, Start: lo, End: hi, Seconds: batchSecs})
		}
		logrus.Debugf("batch %d/%d: trials [%d, %d) in %.2fs, %.1f sims/s, eta %.0fs",
			b+1, numBatches, lo, hi, batchSecs, rate, eta)
	}

	if err := c.computeDistances(slots); err != nil {
		return err
	}
	sort.Slice(slots, func(i, j int) bool { return less(slots[i], slots[j]) })
	c.results = slots
	c.ran = true

	accepted := c.AcceptedCount()
	acceptedTrials.WithLabelValues(label).Set(float64(accepted))
	if c.tracing() {
		for rank, r := range slots {
			c.trace.RecordAcceptance(trace.AcceptanceRecord{
				Trial:    r.Trial,
				Locus:    c.locus.Position,
				Distance: r.Distance,
				Accepted: rank < accepted,
				Rank:     rank + 1,
			})
		}
	}
	logrus.Infof("finished %d %s trials at position %d in %.1fs, accepted %d",
		c.repeats, label, c.locus.Position, time.Since(start).Seconds(), accepted)
	return nil
}

func (c *Controller) tracing() bool {
	return c.trace != nil && c.trace.Config.Enabled()
}

// runBatch runs trials [lo, hi) into slots.
func (c *Controller) runBatch(ctx context.Context, slots []*sim.SimulationResult, lo, hi int) error {
	if lo < 0 || hi < lo || hi > len(c.prior) || hi > len(slots) {
		return sim.Errorf(sim.KindIndex, "abc", "batch [%d, %d) outside prior of %d rows", lo, hi, len(c.prior))
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := lo; i < hi; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.runTrial(i)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			slots[i] = res
			return nil
		})
	}
	return g.Wait()
}

// TrialConfig builds the simulator configuration of trial idx.
func (c *Controller) TrialConfig(idx int) (sim.SimulationConfig, error) {
	if idx < 0 || idx >= len(c.prior) {
		return sim.SimulationConfig{}, sim.Errorf(sim.KindIndex, "abc", "trial %d outside prior of %d rows", idx, len(c.prior))
	}
	cfg := c.base
	cfg.Seed = c.rng.TrialSeed(idx)
	sample := c.prior[idx]
	switch c.factor {
	case sim.FactorFitness:
		cfg.Fitness = sample
	case sim.FactorMutationRate:
		m, err := prior.MutationMatrix(sample, c.alleles)
		if err != nil {
			return cfg, err
		}
		cfg.MutationRates = m
	case sim.FactorPopulationSize:
		cfg.PopulationSize = int64(math.Round(math.Pow(10, sample[0])))
		cfg.FoundingSize = 0
	}
	return cfg, nil
}

func (c *Controller) runTrial(idx int) (*sim.SimulationResult, error) {
	cfg, err := c.TrialConfig(idx)
	if err != nil {
		return nil, err
	}
	p := sim.NewPopulationSimulator()
	if err := p.Configure(cfg); err != nil {
		return nil, err
	}
	if err := p.EvolveAllGenerations(); err != nil {
		return nil, err
	}
	return sim.ExtractResult(p, idx, c.prior[idx], c.wildType, c.rows)
}

func (c *Controller) computeDistances(results []*sim.SimulationResult) error {
	metric := c.cfg.ABC.Metric
	scaling := c.cfg.ABC.Scaling
	if metric == sim.MetricL2 && scaling != "" && scaling != sim.ScalingNone {
		logrus.Warnf("scaling %q is not supported with the l2 metric; ignoring it", scaling)
		scaling = sim.ScalingNone
	}
	trajectories := make([]*sim.Trajectory, len(results))
	for i, r := range results {
		trajectories[i] = r.Trajectory
	}
	scale, err := sim.ScaleVector(scaling, trajectories)
	if err != nil {
		return err
	}
	if scale != nil {
		logrus.Debugf("per-allele %s scale: %v", scaling, scale)
	}
	for _, r := range results {
		d, err := sim.Distance(metric, c.actual, r.Trajectory, scale)
		if err != nil {
			return fmt.Errorf("trial %d: %w", r.Trial, err)
		}
		r.Distance = d
	}
	return nil
}

// AcceptedCount is the size of the accepted set. With a rejection threshold
// it counts the results strictly below the threshold; otherwise it is the
// construction-time count bounded by the number of results.
func (c *Controller) AcceptedCount() int {
	if !c.ran {
		return 0
	}
	if c.threshold != nil {
		t := *c.threshold
		return sort.Search(len(c.results), func(i int) bool { return c.results[i].Distance >= t })
	}
	return min(c.acceptCount, len(c.results))
}

// Threshold is the realised rejection threshold: the configured one, or the
// largest accepted distance. Zero when nothing was accepted.
func (c *Controller) Threshold() float64 {
	if c.threshold != nil {
		return *c.threshold
	}
	n := c.AcceptedCount()
	if n == 0 {
		return 0
	}
	return c.results[n-1].Distance
}

// GetAccepted returns the accepted set in ascending distance order.
func (c *Controller) GetAccepted() []*sim.SimulationResult {
	n := c.AcceptedCount()
	if n == 0 {
		return nil
	}
	work := append([]*sim.SimulationResult(nil), c.results...)
	selectSmallest(work, n)
	out := work[:n:n]
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// less orders results by distance, then by trial so ties are deterministic.
func less(a, b *sim.SimulationResult) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Trial < b.Trial
}

// selectSmallest partially orders rs so its first k entries are the k
// smallest under less (Hoare quickselect, median-of-three pivot).
func selectSmallest(rs []*sim.SimulationResult, k int) {
	lo, hi := 0, len(rs)-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if less(rs[mid], rs[lo]) {
			rs[mid], rs[lo] = rs[lo], rs[mid]
		}
		if less(rs[hi], rs[lo]) {
			rs[hi], rs[lo] = rs[lo], rs[hi]
		}
		if less(rs[hi], rs[mid]) {
			rs[hi], rs[mid] = rs[mid], rs[hi]
		}
		pivot := rs[mid]
		i, j := lo, hi
		for i <= j {
			for less(rs[i], pivot) {
				i++
			}
			for less(pivot, rs[j]) {
				j--
			}
			if i <= j {
				rs[i], rs[j] = rs[j], rs[i]
				i++
				j--
			}
		}
		switch {
		case k-1 <= j:
			hi = j
		case k-1 >= i:
			lo = i
		default:
			return
		}
	}
}
