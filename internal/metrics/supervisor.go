// Package metrics provides Prometheus metrics for the process supervisor and the event hub.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "autofx"

var (
	processesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "started_total",
		Help:      "Processes launched, by script",
	}, []string{"script"})

	processExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "exits_total",
		Help:      "Process exits, by script and exit code",
	}, []string{"script", "code"})

	processesRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "running",
		Help:      "Registered processes, by script",
	}, []string{"script"})

	processRunSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "run_seconds",
		Help:      "Wall time from launch to exit",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"script"})

	inputWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "input_writes_total",
		Help:      "Lines written to process stdin, by result",
	}, []string{"result"})
)

// ProcessStarted records a launch.
func ProcessStarted(script string) {
	processesStarted.WithLabelValues(script).Inc()
	processesRunning.WithLabelValues(script).Inc()
}

// ProcessExited records an exit and its run time, and feeds the duration digest.
func ProcessExited(script string, code int, seconds float64) {
	processExits.WithLabelValues(script, strconv.Itoa(code)).Inc()
	processesRunning.WithLabelValues(script).Dec()
	processRunSeconds.WithLabelValues(script).Observe(seconds)
	observeDuration(script, seconds)
}

// InputWritten records a SendInput outcome ("ok" or "error").
func InputWritten(ok bool) {
	if ok {
		inputWrites.WithLabelValues("ok").Inc()
		return
	}
	inputWrites.WithLabelValues("error").Inc()
}

var launchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "process",
	Name:      "launch_failures_total",
	Help:      "Processes that could not be launched, by script",
}, []string{"script"})

// ProcessLaunchFailed records a spawn error.
func ProcessLaunchFailed(script string) {
	launchFailures.WithLabelValues(script).Inc()
}
