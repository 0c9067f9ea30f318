package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DistanceMetric selects how a simulated trajectory is compared to the observed one.
type DistanceMetric string

const (
	// MetricL1 sums absolute differences, optionally divided per allele by a scale.
	MetricL1 DistanceMetric = "l1"
	// MetricL2 is the Euclidean distance. Scaling is not supported.
	MetricL2 DistanceMetric = "l2"
)

// Scaling selects the per-allele scale applied to L1 distances.
type Scaling string

const (
	ScalingNone   Scaling = "none"
	ScalingStdDev Scaling = "sd"
	ScalingMAD    Scaling = "mad"
)

var (
	validMetrics  = map[DistanceMetric]bool{MetricL1: true, MetricL2: true}
	validScalings = map[Scaling]bool{ScalingNone: true, ScalingStdDev: true, ScalingMAD: true, "": true}
)

// IsValidMetric reports whether name is a recognised distance metric.
func IsValidMetric(name string) bool { return validMetrics[DistanceMetric(name)] }

// IsValidScaling reports whether name is a recognised scaling ("" means none).
func IsValidScaling(name string) bool { return validScalings[Scaling(name)] }

// Distance compares actual and simulated trajectories of identical shape.
// scale, when non-nil, divides each allele's L1 contribution; it must have one
// entry per allele. L2 ignores scale.
func Distance(metric DistanceMetric, actual, simulated *Trajectory, scale []float64) (float64, error) {
	const op = "distance"
	if actual.Generations() != simulated.Generations() || actual.Alleles() != simulated.Alleles() {
		return 0, Errorf(KindValidation, op, "shape mismatch: actual %dx%d, simulated %dx%d",
			actual.Generations(), actual.Alleles(), simulated.Generations(), simulated.Alleles())
	}
	if scale != nil && len(scale) != actual.Alleles() {
		return 0, Errorf(KindValidation, op, "scale has %d entries for %d alleles", len(scale), actual.Alleles())
	}
	switch metric {
	case MetricL1, "":
		return l1(actual, simulated, scale), nil
	case MetricL2:
		return l2(actual, simulated), nil
	default:
		return 0, Errorf(KindConfiguration, op, "unknown distance metric %q", metric)
	}
}

func l1(actual, simulated *Trajectory, scale []float64) float64 {
	sum := 0.0
	for a := 0; a < actual.Alleles(); a++ {
		col := 0.0
		for g := 0; g < actual.Generations(); g++ {
			col += math.Abs(actual.At(g, a) - simulated.At(g, a))
		}
		if scale != nil {
			col /= scale[a]
		}
		sum += col
	}
	return sum
}

func l2(actual, simulated *Trajectory) float64 {
	sum := 0.0
	for g := 0; g < actual.Generations(); g++ {
		for a := 0; a < actual.Alleles(); a++ {
			d := actual.At(g, a) - simulated.At(g, a)
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

// ScaleVector computes one scale per allele over every cell of every
// trajectory. A zero scale (no spread in that allele) falls back to 1.
func ScaleVector(kind Scaling, trajectories []*Trajectory) ([]float64, error) {
	if kind == ScalingNone || kind == "" || len(trajectories) == 0 {
		return nil, nil
	}
	alleles := trajectories[0].Alleles()
	scale := make([]float64, alleles)
	for a := 0; a < alleles; a++ {
		var values []float64
		for _, t := range trajectories {
			for g := 0; g < t.Generations(); g++ {
				values = append(values, t.At(g, a))
			}
		}
		var s float64
		switch kind {
		case ScalingStdDev:
			if len(values) > 1 {
				s = stat.StdDev(values, nil)
			}
		case ScalingMAD:
			s = MedianAbsoluteDeviation(values)
		default:
			return nil, Errorf(KindConfiguration, "scale", "unknown scaling %q", kind)
		}
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		scale[a] = s
	}
	return scale, nil
}

// MedianAbsoluteDeviation returns median(|x - median(x)|). x is not modified.
func MedianAbsoluteDeviation(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - med)
	}
	sort.Float64s(dev)
	return stat.Quantile(0.5, stat.Empirical, dev, nil)
}
