package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	viewersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "viewers",
		Help:      "Connected viewer sessions",
	})

	messagesBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "broadcast_total",
		Help:      "Messages broadcast to viewers, by type",
	}, []string{"type"})

	messagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Messages dropped because a viewer session was full",
	})
)

// SetViewers sets the number of connected viewer sessions.
func SetViewers(n int) {
	viewersConnected.Set(float64(n))
}

// MessageBroadcast counts one broadcast message of the given type.
func MessageBroadcast(kind string) {
	messagesBroadcast.WithLabelValues(kind).Inc()
}

// MessageDropped counts one message a session could not accept.
func MessageDropped() {
	messagesDropped.Inc()
}
