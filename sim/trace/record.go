// Package trace provides decision-trace recording for ABC rejection runs.
// It has no dependencies on sim/ or sim/abc/ and stores plain data types.
package trace

// AcceptanceRecord captures the rejection decision for a single trial.
type AcceptanceRecord struct {
	Trial    int
	Locus    int64
	Distance float64
	Accepted bool
	Rank     int // 1-based position in the sorted collection
}

// BatchRecord captures the timing of one batch of trials.
type BatchRecord struct {
	Index      int
	Start, End int // trial index range [Start, End)
	Seconds    float64
}
