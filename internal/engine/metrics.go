package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scope labels for patchwire_batches_delivered_total.
const (
	ScopeDocument = "document"
	ScopeObject   = "object"
)

// Metrics holds the engine's Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	BatchesDelivered *prometheus.CounterVec
	PatchesDiffed    prometheus.Counter
	RunsDropped      prometheus.Counter
	DiffFailures     prometheus.Counter
	DiffDuration     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BatchesDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patchwire",
			Name:      "batches_delivered_total",
			Help:      "Patch batches handed to publishers.",
		}, []string{"scope"}),
		PatchesDiffed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patchwire",
			Name:      "patches_diffed_total",
			Help:      "Change records returned by the source's difference.",
		}),
		RunsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patchwire",
			Name:      "runs_dropped_total",
			Help:      "Object runs discarded because nobody observes the object.",
		}),
		DiffFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patchwire",
			Name:      "diff_failures_total",
			Help:      "Differences the source failed to compute.",
		}),
		DiffDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "patchwire",
			Name:      "diff_duration_seconds",
			Help:      "Time spent computing differences.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.BatchesDelivered, m.PatchesDiffed, m.RunsDropped, m.DiffFailures, m.DiffDuration)
	}
	return m
}

func (m *Metrics) delivered(scope string) {
	if m == nil {
		return
	}
	m.BatchesDelivered.WithLabelValues(scope).Inc()
}

func (m *Metrics) diffed(elapsed time.Duration, patches int, err error) {
	if m == nil {
		return
	}
	m.DiffDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.DiffFailures.Inc()
		return
	}
	m.PatchesDiffed.Add(float64(patches))
}

func (m *Metrics) dropped(runs int) {
	if m == nil || runs == 0 {
		return
	}
	m.RunsDropped.Add(float64(runs))
}
