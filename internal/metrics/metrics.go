// Package metrics defines the Prometheus counters exported by the
// dispatcher and the relay. All methods are safe on a nil receiver so
// components can run without metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "offrecord"

// Dispatch counts dispatcher activity.
type Dispatch struct {
	received    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	unsupported *prometheus.CounterVec
	injected    prometheus.Counter
}

// NewDispatch builds the dispatcher counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewDispatch(reg prometheus.Registerer) *Dispatch {
	m := &Dispatch{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages by classified kind.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ake_transitions_total",
			Help:      "Authentication state changes.",
		}, []string{"from", "to"}),
		unsupported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsupported_total",
			Help:      "Messages of kinds this implementation does not handle.",
		}, []string{"kind"}),
		injected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injected_total",
			Help:      "Protocol messages handed to the transport.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.received, m.transitions, m.unsupported, m.injected)
	}
	return m
}

func (m *Dispatch) Received(kind string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(kind).Inc()
}

func (m *Dispatch) Transition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Dispatch) Unsupported(kind string) {
	if m == nil {
		return
	}
	m.unsupported.WithLabelValues(kind).Inc()
}

func (m *Dispatch) Injected() {
	if m == nil {
		return
	}
	m.injected.Inc()
}

// Relay counts relay queue operations.
type Relay struct {
	queued    prometheus.Counter
	delivered prometheus.Counter
	acked     prometheus.Counter
	depth     prometheus.Gauge
}

// NewRelay builds the relay counters and registers them with reg.
func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "relay",
			Name: "queued_total", Help: "Messages accepted by the relay.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "relay",
			Name: "delivered_total", Help: "Messages returned to fetching clients.",
		}),
		acked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "relay",
			Name: "acked_total", Help: "Messages removed by acknowledgement.",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "relay",
			Name: "queue_depth", Help: "Messages currently queued across all users.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.queued, m.delivered, m.acked, m.depth)
	}
	return m
}

func (m *Relay) Queued() {
	if m == nil {
		return
	}
	m.queued.Inc()
	m.depth.Inc()
}

func (m *Relay) Delivered(n int) {
	if m == nil {
		return
	}
	m.delivered.Add(float64(n))
}

func (m *Relay) Acked(n int) {
	if m == nil {
		return
	}
	m.acked.Add(float64(n))
	m.depth.Sub(float64(n))
}
