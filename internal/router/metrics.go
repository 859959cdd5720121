package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records routing and persistence counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	deliveries     *prometheus.CounterVec
	deliveryDrops  *prometheus.CounterVec
	persisted      *prometheus.CounterVec
	persistLatency prometheus.Histogram
	routeLatency   *prometheus.HistogramVec
}

// NewMetrics registers the router series on reg (the default registerer when
// nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "im_deliveries_total",
			Help: "Live payloads handed to online connections.",
		}, []string{"kind"}),
		deliveryDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "im_delivery_drops_total",
			Help: "Live payloads dropped because the peer could not take them.",
		}, []string{"kind"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "im_persist_total",
			Help: "Message writes grouped by result.",
		}, []string{"result"}),
		persistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "im_persist_latency_seconds",
			Help:    "Latency of message writes to the store.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		routeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "im_route_latency_seconds",
			Help:    "Time spent routing one inbound event.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.deliveries,
		m.deliveryDrops,
		m.persisted,
		m.persistLatency,
		m.routeLatency,
	)
	return m
}

func (m *Metrics) recordDelivery(kind string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.deliveries.WithLabelValues(kind).Inc()
		return
	}
	m.deliveryDrops.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordPersist(result string, dur time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.persisted.WithLabelValues(result).Inc()
	if dur > 0 {
		m.persistLatency.Observe(dur.Seconds())
	}
}

func (m *Metrics) observeRoute(kind string, dur time.Duration) {
	if m == nil || kind == "" {
		return
	}
	m.routeLatency.WithLabelValues(kind).Observe(dur.Seconds())
}
