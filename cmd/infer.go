package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/popgen-abc/popgen-abc/sim"
	"github.com/popgen-abc/popgen-abc/sim/abc"
	"github.com/popgen-abc/popgen-abc/sim/observed"
	"github.com/popgen-abc/popgen-abc/sim/report"
	"github.com/popgen-abc/popgen-abc/sim/trace"
)

func newInferCmd(use, short string, factor sim.Factor, opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <config> <observed-data> <posterior-out> <summary-out> [<prior-out>]",
		Short: short,
		Args:  cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadExperiment(cmd, args[0], opts)
			if err != nil {
				return err
			}
			ds, err := observed.Load(args[1])
			if err != nil {
				return err
			}
			job := inferJob{
				cfg:     cfg,
				dataset: ds,
				factor:  factor,
				trace:   trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(opts.traceLevel)}),
			}
			if err := job.run(cmd.Context()); err != nil {
				return err
			}
			if err := job.write(args[2], args[3], args[4:]); err != nil {
				return err
			}
			for _, s := range job.summaries {
				s.Print(cmd.OutOrStdout())
			}
			if job.trace.Config.Enabled() {
				printTraceSummary(cmd.OutOrStdout(), trace.Summarize(job.trace))
			}
			if opts.metricsFile != "" {
				if err := abc.WriteMetrics(opts.metricsFile); err != nil {
					return err
				}
				logrus.Infof("wrote metrics to %s", opts.metricsFile)
			}
			return nil
		},
	}
}

// inferJob runs one factor over every locus of a dataset with a single
// shared prior matrix.
type inferJob struct {
	cfg     *sim.ExperimentConfig
	dataset *observed.Dataset
	factor  sim.Factor
	trace   *trace.SimulationTrace

	prior     [][]float64
	accepted  map[int64][]*sim.SimulationResult
	summaries []*report.Summary
}

func (j *inferJob) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(j.cfg.Seed))
	prior, err := abc.DrawPrior(j.cfg, j.dataset.Loci[0].Alleles(), j.factor, rng)
	if err != nil {
		return err
	}
	j.prior = prior
	j.accepted = make(map[int64][]*sim.SimulationResult, len(j.dataset.Loci))
	runID := report.NewRunID()

	for _, locus := range j.dataset.Loci {
		c, err := abc.NewController(j.cfg, locus, j.factor, abc.Options{Prior: prior, Trace: j.trace})
		if err != nil {
			return err
		}
		if err := c.RunInference(ctx, j.cfg.ABC.Batches); err != nil {
			return err
		}
		accepted := c.GetAccepted()
		j.accepted[locus.Position] = accepted
		j.summaries = append(j.summaries, report.Summarize(report.RunInfo{
			RunID:     runID,
			Factor:    j.factor,
			Position:  locus.Position,
			Seed:      j.cfg.Seed,
			Repeats:   c.Repeats(),
			Threshold: c.Threshold(),
			Metric:    j.cfg.ABC.Metric,
			Scaling:   j.cfg.ABC.Scaling,
		}, prior, accepted))
	}
	return nil
}

func (j *inferJob) write(posteriorPath, summaryPath string, priorPath []string) error {
	err := report.WriteFile(posteriorPath, func(w io.Writer) error {
		dim := 0
		if len(j.prior) > 0 {
			dim = len(j.prior[0])
		}
		if err := report.WritePosteriorHeader(w, j.factor, dim); err != nil {
			return err
		}
		for _, locus := range j.dataset.Loci {
			if err := report.WritePosterior(w, locus.Position, j.accepted[locus.Position]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := report.WriteFile(summaryPath, func(w io.Writer) error {
		return report.WriteSummaries(w, j.summaries)
	}); err != nil {
		return err
	}
	if len(priorPath) > 0 {
		return report.WriteFile(priorPath[0], func(w io.Writer) error {
			return report.WritePrior(w, j.factor, j.prior)
		})
	}
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	_, _ = fmt.Fprintln(w, "=== Decision Trace ===")
	_, _ = fmt.Fprintf(w, "Decisions            : %d\n", s.TotalDecisions)
	_, _ = fmt.Fprintf(w, "Accepted / Rejected  : %d / %d\n", s.AcceptedCount, s.RejectedCount)
	_, _ = fmt.Fprintf(w, "Mean Distance        : %.6g\n", s.MeanDistance)
	_, _ = fmt.Fprintf(w, "Max Accepted Distance: %.6g\n", s.MaxAcceptedDistance)
	_, _ = fmt.Fprintf(w, "Throughput           : %.1f sims/s\n", s.TrialsPerSecond)
}
