package prior

import "sort"

// compositeStep is the spacing of the composite fitness grid.
const compositeStep = 0.05

// compositeValues is the fitness grid 0.00, 0.05, ..., 1.95.
var compositeValues = func() []float64 {
	v := make([]float64, len(compositeWeights))
	for i := range v {
		v[i] = float64(i) * compositeStep
	}
	return v
}()

// compositeWeights is a distribution of fitness effects: a lethal class at 0,
// a long deleterious tail, most mass just below neutrality and a thin
// beneficial tail. Sums to 1.
var compositeWeights = []float64{
	0.081506, 0.005434, 0.005435, 0.005436,
	0.005437, 0.005441, 0.005449, 0.005465,
	0.005498, 0.005565, 0.005702, 0.005982,
	0.006554, 0.007722, 0.010108, 0.014982,
	0.024938, 0.045276, 0.086821, 0.171686,
	0.340290, 0.097978, 0.028556, 0.008666,
	0.002967, 0.001335, 0.000867, 0.000733,
	0.000695, 0.000684, 0.000680, 0.000680,
	0.000679, 0.000679, 0.000679, 0.000679,
	0.000679, 0.000679, 0.000679, 0.000679,
}

var compositeCDF = func() []float64 {
	cdf := make([]float64, len(compositeWeights))
	cum := 0.0
	for i, w := range compositeWeights {
		cum += w
		cdf[i] = cum
	}
	cdf[len(cdf)-1] = 1.0
	return cdf
}()

// compositeBin maps a uniform draw to a bin index by inverse CDF.
func compositeBin(u float64) int {
	idx := sort.SearchFloat64s(compositeCDF, u)
	if idx >= len(compositeCDF) {
		idx = len(compositeCDF) - 1
	}
	return idx
}

// compositeUpper is the exclusive upper edge of bin i.
func compositeUpper(i int) float64 {
	if i+1 < len(compositeValues) {
		return compositeValues[i+1]
	}
	return compositeValues[i] + compositeStep
}

// CompositeBins returns copies of the composite grid values and weights.
func CompositeBins() (values, weights []float64) {
	return append([]float64(nil), compositeValues...), append([]float64(nil), compositeWeights...)
}
