package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpcalc",
			Subsystem: "server",
			Name:      "operations_total",
			Help:      "Operations received, by operator kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	answersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tcpcalc",
			Subsystem: "server",
			Name:      "answers_written_total",
			Help:      "Answer frames written back to clients.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tcpcalc",
			Subsystem: "server",
			Name:      "active_sessions",
			Help:      "Connections currently holding a live session.",
		},
	)
)

// RegisterMetrics registers the server collectors. Safe to call more than
// once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operationsTotal, answersTotal, activeSessions)
	})
}

// Outcome labels for RecordOperation.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

func RecordOperation(kind, outcome string) {
	operationsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordAnswer() {
	answersTotal.Inc()
}

func SessionOpened() {
	activeSessions.Inc()
}

func SessionClosed() {
	activeSessions.Dec()
}
