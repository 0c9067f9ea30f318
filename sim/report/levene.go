package report

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/popgen-abc/popgen-abc/sim"
)

// InformativeAlpha is the Levene p-value below which the posterior is
// considered to have moved away from the prior.
const InformativeAlpha = 0.05

// LeveneResult is the outcome of Levene's test for equal variances.
type LeveneResult struct {
	W           float64 `yaml:"w"`
	PValue      float64 `yaml:"p_value"`
	Informative bool    `yaml:"informative"`
}

// Levene runs the mean-centred Levene test across groups. The p-value is the
// upper tail of F(k-1, N-k) at W.
func Levene(groups ...[]float64) (LeveneResult, error) {
	const op = "levene"
	k := len(groups)
	if k < 2 {
		return LeveneResult{}, sim.Errorf(sim.KindValidation, op, "need at least 2 groups, got %d", k)
	}
	n := 0
	deviations := make([][]float64, k)
	groupMeans := make([]float64, k)
	for i, g := range groups {
		if len(g) == 0 {
			return LeveneResult{}, sim.Errorf(sim.KindValidation, op, "group %d is empty", i)
		}
		n += len(g)
		mean := stat.Mean(g, nil)
		deviations[i] = make([]float64, len(g))
		for j, x := range g {
			deviations[i][j] = math.Abs(x - mean)
		}
		groupMeans[i] = stat.Mean(deviations[i], nil)
	}
	if n <= k {
		return LeveneResult{}, sim.Errorf(sim.KindValidation, op, "need more observations (%d) than groups (%d)", n, k)
	}

	grand := 0.0
	for i, d := range deviations {
		grand += groupMeans[i] * float64(len(d))
	}
	grand /= float64(n)

	between, within := 0.0, 0.0
	for i, d := range deviations {
		diff := groupMeans[i] - grand
		between += float64(len(d)) * diff * diff
		for _, z := range d {
			within += (z - groupMeans[i]) * (z - groupMeans[i])
		}
	}

	res := LeveneResult{}
	switch {
	case within == 0 && between == 0:
		res.W, res.PValue = 0, 1
	case within == 0:
		res.W, res.PValue = math.Inf(1), 0
	default:
		d1, d2 := float64(k-1), float64(n-k)
		res.W = (d2 / d1) * between / within
		res.PValue = 1 - distuv.F{D1: d1, D2: d2}.CDF(res.W)
	}
	res.Informative = res.PValue < InformativeAlpha
	return res, nil
}
