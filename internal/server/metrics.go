package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks connection lifecycle and inbound frames. A nil *Metrics
// records nothing.
type Metrics struct {
	activeConns prometheus.Gauge
	connTotal   prometheus.Counter
	bound       prometheus.Gauge
	frames      *prometheus.CounterVec
	frameErrors *prometheus.CounterVec
}

// NewMetrics registers the connection series on reg (the default
// registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "im_connections_active",
			Help: "Current number of open websocket connections.",
		}),
		connTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "im_connections_total",
			Help: "Websocket connections accepted since start.",
		}),
		bound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "im_sessions_bound",
			Help: "Connections that completed login.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "im_frames_total",
			Help: "Decoded inbound frames by type.",
		}, []string{"type"}),
		frameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "im_frame_errors_total",
			Help: "Inbound frames rejected or failed, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.activeConns, m.connTotal, m.bound, m.frames, m.frameErrors)
	return m
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
	m.connTotal.Inc()
}

func (m *Metrics) connClosed(wasBound bool) {
	if m == nil {
		return
	}
	m.activeConns.Dec()
	if wasBound {
		m.bound.Dec()
	}
}

func (m *Metrics) sessionBound() {
	if m == nil {
		return
	}
	m.bound.Inc()
}

func (m *Metrics) frame(kind string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(kind).Inc()
}

func (m *Metrics) frameError(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.frameErrors.WithLabelValues(reason).Inc()
}
