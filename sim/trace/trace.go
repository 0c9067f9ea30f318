package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every trial's acceptance decision and batch timings.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// SimulationTrace collects decision records during an inference run.
type SimulationTrace struct {
	Config      TraceConfig
	Acceptances []AcceptanceRecord
	Batches     []BatchRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Acceptances: make([]AcceptanceRecord, 0),
		Batches:     make([]BatchRecord, 0),
	}
}

// RecordAcceptance appends an acceptance decision record.
func (st *SimulationTrace) RecordAcceptance(record AcceptanceRecord) {
	st.Acceptances = append(st.Acceptances, record)
}

// RecordBatch appends a batch timing record.
func (st *SimulationTrace) RecordBatch(record BatchRecord) {
	st.Batches = append(st.Batches, record)
}
