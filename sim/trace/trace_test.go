package trace

import (
	"testing"
)

func TestSimulationTrace_RecordAcceptance_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN an acceptance record is recorded
	st.RecordAcceptance(AcceptanceRecord{Trial: 7, Distance: 0.25, Accepted: true, Rank: 1})

	// THEN the trace contains one record with correct data
	if len(st.Acceptances) != 1 {
		t.Fatalf("expected 1 acceptance, got %d", len(st.Acceptances))
	}
	if st.Acceptances[0].Trial != 7 {
		t.Errorf("expected trial 7, got %d", st.Acceptances[0].Trial)
	}
	if !st.Acceptances[0].Accepted {
		t.Error("expected accepted=true")
	}
}

func TestSimulationTrace_RecordBatch_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a batch record is recorded
	st.RecordBatch(BatchRecord{Index: 0, Start: 0, End: 100, Seconds: 0.5})

	// THEN the trace contains the batch
	if len(st.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(st.Batches))
	}
	if st.Batches[0].End != 100 {
		t.Errorf("expected end 100, got %d", st.Batches[0].End)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"detailed", false},
		{"DECISIONS", false},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tc.level); got != tc.want {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.want)
			}
		})
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	if (TraceConfig{}).Enabled() {
		t.Error("zero config should not be enabled")
	}
	if (TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("none should not be enabled")
	}
	if !(TraceConfig{Level: TraceLevelDecisions}).Enabled() {
		t.Error("decisions should be enabled")
	}
}
