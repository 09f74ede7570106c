package auditdom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records parser activity. The zero value is unusable, build one
// with NewMetrics.
type Metrics struct {
	// Documents counts parsed documents by filter mode and result
	Documents *prometheus.CounterVec
	// Nodes counts materialized nodes by kind
	Nodes *prometheus.CounterVec
	// Denied counts candidates rejected by the policy by kind
	Denied *prometheus.CounterVec
	// Duration tracks how long a parse takes
	Duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auditdom_documents_total",
			Help: "Total parsed documents by filter mode and result",
		}, []string{"filter", "result"}),
		Nodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auditdom_nodes_total",
			Help: "Total nodes added to document trees by kind",
		}, []string{"kind"}),
		Denied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auditdom_denied_total",
			Help: "Total candidates rejected by the filtering policy by kind",
		}, []string{"kind"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "auditdom_parse_duration_seconds",
			Help:    "Parse duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}),
	}
}

func (m *Metrics) observe(filter bool, stats Stats, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	mode := "off"
	if filter {
		mode = "on"
	}
	m.Documents.WithLabelValues(mode, result).Inc()
	for kind, count := range stats.Created {
		m.Nodes.WithLabelValues(kind.String()).Add(float64(count))
	}
	for kind, count := range stats.Denied {
		m.Denied.WithLabelValues(kind.String()).Add(float64(count))
	}
	m.Duration.Observe(elapsed.Seconds())
}
