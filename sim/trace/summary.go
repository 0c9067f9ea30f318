package trace

import "math"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions      int
	AcceptedCount       int
	RejectedCount       int
	MaxAcceptedDistance float64
	MinRejectedDistance float64 // +Inf when nothing was rejected
	MeanDistance        float64
	TotalSeconds        float64
	TrialsPerSecond     float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{MinRejectedDistance: math.Inf(1)}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Acceptances)
	total := 0.0
	for _, a := range st.Acceptances {
		total += a.Distance
		if a.Accepted {
			summary.AcceptedCount++
			summary.MaxAcceptedDistance = math.Max(summary.MaxAcceptedDistance, a.Distance)
		} else {
			summary.RejectedCount++
			summary.MinRejectedDistance = math.Min(summary.MinRejectedDistance, a.Distance)
		}
	}
	if summary.TotalDecisions > 0 {
		summary.MeanDistance = total / float64(summary.TotalDecisions)
	}

	trials := 0
	for _, b := range st.Batches {
		summary.TotalSeconds += b.Seconds
		trials += b.End - b.Start
	}
	if summary.TotalSeconds > 0 {
		summary.TrialsPerSecond = float64(trials) / summary.TotalSeconds
	}

	return summary
}
