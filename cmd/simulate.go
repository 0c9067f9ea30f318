package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/popgen-abc/popgen-abc/sim"
	"github.com/popgen-abc/popgen-abc/sim/report"
)

func newSimulateCmd(opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <config> <output>",
		Short: "Run one forward simulation and write its trajectory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadExperiment(cmd, args[0], opts)
			if err != nil {
				return err
			}
			traj, err := simulate(cfg)
			if err != nil {
				return err
			}
			return report.WriteFile(args[1], func(w io.Writer) error {
				return report.WriteTrajectory(w, traj)
			})
		},
	}
}

// simulate evolves the configured population once. When sub-sampling is
// configured the sampled trajectory is returned, since that is what an
// experiment would observe.
func simulate(cfg *sim.ExperimentConfig) (*sim.Trajectory, error) {
	if !cfg.CanSimulate() {
		return nil, sim.Errorf(sim.KindPrecondition, "simulate",
			"simulate requires population_size, initial_frequencies, fitness and generations")
	}
	sc := cfg.SimulationConfig(cfg.InitialFrequencies, cfg.Generations)
	sc.Seed = sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).SeedFor(sim.SubsystemSimulate)

	p := sim.NewPopulationSimulator()
	if err := p.Configure(sc); err != nil {
		return nil, err
	}
	total := p.TotalGenerations()
	step := max(total/10, 1)
	logrus.Infof("simulating %d generations of %d alleles, N=%d", total, sc.AlleleCount, sc.PopulationSize)
	for p.Generation() < total {
		if err := p.EvolveOneGeneration(); err != nil {
			return nil, err
		}
		if p.Generation()%step == 0 {
			logrus.Debugf("generation %d/%d: N=%.0f freqs=%v", p.Generation(), total, p.PopulationSize(), p.Trajectory().Row(p.Generation()))
		}
	}
	if s := p.Sampled(); s != nil {
		return s, nil
	}
	return p.Trajectory(), nil
}
