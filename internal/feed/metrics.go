package feed

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	operations *prometheus.CounterVec
	inflight   prometheus.Gauge
	posts      prometheus.Gauge
}

// NewMetrics registers the feed collectors with reg. A nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lockdin",
			Subsystem: "feed",
			Name:      "operations_total",
			Help:      "Feed operations by name and result.",
		}, []string{"op", "result"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lockdin",
			Subsystem: "feed",
			Name:      "inflight_operations",
			Help:      "Feed operations currently running.",
		}),
		posts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lockdin",
			Subsystem: "feed",
			Name:      "posts",
			Help:      "Posts currently held in the feed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.inflight, m.posts)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}
