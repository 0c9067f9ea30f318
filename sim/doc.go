// Package sim provides the forward population-genetics model used by the
// ABC inference engine.
//
// # Reading Guide
//
// Start with these files to understand a single trial:
//   - experiment.go: ExperimentConfig, the fixed settings shared by every trial
//   - config.go: SimulationConfig, one fully specified trial
//   - population.go: Wright-Fisher evolution with selection, mutation, drift,
//     bottlenecks, logistic growth and sub-sampling
//   - distance.go: distances between observed and simulated trajectories
//
// # Architecture
//
// The sim package holds the model and its value types; the rest of the
// pipeline lives in sub-packages:
//   - sim/prior/: parameter priors (uniform, composite fitness, lognormal)
//   - sim/observed/: observed allele-frequency datasets
//   - sim/params/: parameter-file loading into ExperimentConfig
//   - sim/abc/: the rejection-sampling controller
//   - sim/report/: posterior, prior and summary writers
//   - sim/trace/: acceptance decision tracing
//
// Randomness flows from a single seed through PartitionedRNG so a run is
// reproducible regardless of worker count.
package sim
