package abc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every inference metric. It is separate from the default
// registerer so a run can be exported to a textfile without Go runtime noise.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// trialsTotal counts completed trials.
	// Labels: factor
	trialsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "popgen_abc",
		Subsystem: "abc",
		Name:      "trials_total",
		Help:      "Total simulation trials completed",
	}, []string{"factor"})

	// batchDuration measures wall-clock time per batch of trials.
	// Labels: factor
	batchDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "popgen_abc",
		Subsystem: "abc",
		Name:      "batch_duration_seconds",
		Help:      "Wall-clock duration of one batch of trials",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 9),
	}, []string{"factor"})

	trialsPerSecond = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "popgen_abc",
		Subsystem: "abc",
		Name:      "trials_per_second",
		Help:      "Running trial throughput of the current inference",
	}, []string{"factor"})

	etaSeconds = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "popgen_abc",
		Subsystem: "abc",
		Name:      "eta_seconds",
		Help:      "Estimated seconds until the current inference finishes",
	}, []string{"factor"})

	// acceptedTrials is the size of the last accepted set.
	// Labels: factor
	acceptedTrials = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "popgen_abc",
		Subsystem: "abc",
		Name:      "accepted",
		Help:      "Number of trials accepted by the last inference",
	}, []string{"factor"})
)

// WriteMetrics writes Registry in the Prometheus text exposition format.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
