package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/popgen-abc/popgen-abc/sim"
)

// Stats summarises one sample of a parameter.
type Stats struct {
	N      int     `yaml:"n"`
	Mean   float64 `yaml:"mean"`
	Median float64 `yaml:"median"`
	SD     float64 `yaml:"sd"`
	Q025   float64 `yaml:"q025"`
	Q975   float64 `yaml:"q975"`
}

// ParameterSummary compares the prior and posterior of one parameter.
type ParameterSummary struct {
	Name      string        `yaml:"name"`
	Prior     Stats         `yaml:"prior"`
	Posterior Stats         `yaml:"posterior"`
	Levene    *LeveneResult `yaml:"levene,omitempty"`
}

// Summary is the per-locus inference summary.
type Summary struct {
	RunID      string             `yaml:"run_id"`
	Factor     string             `yaml:"factor"`
	Position   int64              `yaml:"position"`
	Seed       int64              `yaml:"seed"`
	Repeats    int                `yaml:"repeats"`
	Accepted   int                `yaml:"accepted"`
	Threshold  float64            `yaml:"threshold"`
	Metric     string             `yaml:"metric"`
	Scaling    string             `yaml:"scaling,omitempty"`
	Parameters []ParameterSummary `yaml:"parameters"`
}

// RunInfo identifies an inference run in its summary.
type RunInfo struct {
	RunID     string
	Factor    sim.Factor
	Position  int64
	Seed      int64
	Repeats   int
	Threshold float64
	Metric    sim.DistanceMetric
	Scaling   sim.Scaling
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Summarize compares every parameter column of prior with the same column
// of the accepted samples. Levene's test is skipped for a parameter when
// either side is too small for it.
func Summarize(info RunInfo, prior [][]float64, accepted []*sim.SimulationResult) *Summary {
	if info.RunID == "" {
		info.RunID = NewRunID()
	}
	metric := info.Metric
	if metric == "" {
		metric = sim.MetricL1
	}
	s := &Summary{
		RunID:     info.RunID,
		Factor:    info.Factor.String(),
		Position:  info.Position,
		Seed:      info.Seed,
		Repeats:   info.Repeats,
		Accepted:  len(accepted),
		Threshold: info.Threshold,
		Metric:    string(metric),
		Scaling:   string(info.Scaling),
	}
	dim := 0
	if len(prior) > 0 {
		dim = len(prior[0])
	}
	names := ParameterNames(info.Factor, dim)
	for j := 0; j < dim; j++ {
		priorCol := make([]float64, len(prior))
		for i, row := range prior {
			priorCol[i] = row[j]
		}
		postCol := make([]float64, len(accepted))
		for i, r := range accepted {
			postCol[i] = r.Sample[j]
		}
		ps := ParameterSummary{Name: names[j], Prior: Describe(priorCol), Posterior: Describe(postCol)}
		if lev, err := Levene(priorCol, postCol); err == nil {
			ps.Levene = &lev
		}
		s.Parameters = append(s.Parameters, ps)
	}
	return s
}

// Describe computes summary statistics of xs. Empty input yields zeros and
// the standard deviation of a single value is 0.
func Describe(xs []float64) Stats {
	st := Stats{N: len(xs)}
	if len(xs) == 0 {
		return st
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	st.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		st.SD = stat.StdDev(sorted, nil)
	}
	st.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	st.Q025 = stat.Quantile(0.025, stat.Empirical, sorted, nil)
	st.Q975 = stat.Quantile(0.975, stat.Empirical, sorted, nil)
	return st
}

// summaryFile is the YAML document written for one command invocation.
type summaryFile struct {
	Generated time.Time  `yaml:"generated"`
	Loci      []*Summary `yaml:"loci"`
}

// WriteSummaries encodes every locus summary as one YAML document.
func WriteSummaries(w io.Writer, summaries []*Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(summaryFile{Generated: time.Now().UTC(), Loci: summaries}); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return enc.Close()
}

// ReadSummaries decodes a file written by WriteSummaries.
func ReadSummaries(r io.Reader) ([]*Summary, error) {
	var f summaryFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return f.Loci, nil
}

// Print displays a summary in human-readable form.
func (s *Summary) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "=== Inference Summary (%s, position %d) ===\n", s.Factor, s.Position)
	_, _ = fmt.Fprintf(w, "Run ID               : %s\n", s.RunID)
	_, _ = fmt.Fprintf(w, "Trials               : %d\n", s.Repeats)
	_, _ = fmt.Fprintf(w, "Accepted             : %d\n", s.Accepted)
	_, _ = fmt.Fprintf(w, "Threshold            : %.6g (%s)\n", s.Threshold, s.Metric)
	for _, p := range s.Parameters {
		_, _ = fmt.Fprintf(w, "%-21s: posterior %.4g [%.4g, %.4g], prior %.4g [%.4g, %.4g]",
			p.Name, p.Posterior.Median, p.Posterior.Q025, p.Posterior.Q975,
			p.Prior.Median, p.Prior.Q025, p.Prior.Q975)
		if p.Levene != nil {
			mark := ""
			if p.Levene.Informative {
				mark = " *"
			}
			_, _ = fmt.Fprintf(w, ", levene p=%.3g%s", p.Levene.PValue, mark)
		}
		_, _ = fmt.Fprintln(w)
	}
}
