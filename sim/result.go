package sim

// UnsetDistance marks a SimulationResult whose distance has not been computed.
const UnsetDistance = -1.0

// SimulationResult is what survives a trial once its simulator is discarded.
type SimulationResult struct {
	Trial          int
	Sample         []float64 // the prior sample that produced this trial
	WildType       int
	PopulationSize int64
	MutationRates  [][]float64
	// Trajectory holds only the generations present in the observed dataset.
	Trajectory *Trajectory
	Distance   float64
}

// ExtractResult builds a SimulationResult from an evolved simulator, keeping
// only the trajectory rows listed in rows. When the simulator sub-samples,
// the sampled trajectory is kept instead of the true one since that is what
// the observed data measures.
func ExtractResult(p *PopulationSimulator, trial int, sample []float64, wildType int, rows []int) (*SimulationResult, error) {
	src := p.Trajectory()
	if s := p.Sampled(); s != nil {
		src = s
	}
	traj, err := src.Rows(rows)
	if err != nil {
		return nil, err
	}
	cfg := p.Config()
	return &SimulationResult{
		Trial:          trial,
		Sample:         sample,
		WildType:       wildType,
		PopulationSize: cfg.PopulationSize,
		MutationRates:  cfg.MutationRates,
		Trajectory:     traj,
		Distance:       UnsetDistance,
	}, nil
}
