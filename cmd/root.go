package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/popgen-abc/popgen-abc/sim"
	"github.com/popgen-abc/popgen-abc/sim/params"
	"github.com/popgen-abc/popgen-abc/sim/trace"
)

// runOptions are the flags shared by every run subcommand.
type runOptions struct {
	logLevel    string // Log verbosity level
	seed        int64  // Overrides the seed parameter when set
	workers     int    // Overrides the workers parameter when set
	batches     int    // Overrides the batches parameter when set
	metricsFile string // Prometheus textfile written after an inference
	traceLevel  string // Decision trace verbosity
}

// rootCmd is the base command for the CLI
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "popgen-abc",
		Short:         "Approximate Bayesian computation for allele-frequency time series",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	opts := &runOptions{}
	run := &cobra.Command{
		Use:   "run",
		Short: "Run an inference or a forward simulation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			logrus.SetLevel(level)
			if !trace.IsValidTraceLevel(opts.traceLevel) {
				return fmt.Errorf("invalid trace level %q; valid: none, decisions", opts.traceLevel)
			}
			return nil
		},
	}
	run.PersistentFlags().StringVar(&opts.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	run.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "Seed for all random draws; overrides the seed parameter")
	run.PersistentFlags().IntVar(&opts.workers, "workers", 0, "Concurrent trials; overrides the workers parameter")
	run.PersistentFlags().IntVar(&opts.batches, "batches", 0, "Progress batches per inference; overrides the batches parameter")
	run.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	run.PersistentFlags().StringVar(&opts.traceLevel, "trace", "none", "Decision trace level (none, decisions)")

	run.AddCommand(
		newInferCmd("infer-fitness", "Infer per-allele fitness", sim.FactorFitness, opts),
		newInferCmd("infer-mutation", "Infer the mutation-rate matrix", sim.FactorMutationRate, opts),
		newInferCmd("infer-popsize", "Infer the effective population size", sim.FactorPopulationSize, opts),
		newSimulateCmd(opts),
	)
	root.AddCommand(run)
	return root
}

// loadExperiment reads a parameter file and applies the flag overrides.
// A zero seed is replaced by the wall clock.
func loadExperiment(cmd *cobra.Command, path string, opts *runOptions) (*sim.ExperimentConfig, error) {
	p, err := params.Load(path)
	if err != nil {
		return nil, err
	}
	cfg, err := params.BuildExperiment(p)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = opts.seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		logrus.Infof("no seed given, using %d", cfg.Seed)
	}
	if cmd.Flags().Changed("workers") {
		cfg.ABC.Workers = opts.workers
	}
	if cmd.Flags().Changed("batches") {
		cfg.ABC.Batches = opts.batches
	}
	return cfg, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
