package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pollsTotal, paymentsTotal, conflictsTotal) }

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "status_polls_total",
		Help: "Status poll requests, labeled by endpoint and rendered stage.",
	},
	[]string{"endpoint", "stage"},
)

var paymentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment transitions by status (pending/confirmed/failed).",
	},
	[]string{"status"},
)

var conflictsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "record_conflicts_total",
		Help: "Rejected writes that carried different content for an existing job.",
	},
)

func IncPoll(endpoint, stage string) {
	pollsTotal.WithLabelValues(norm(endpoint), norm(stage)).Inc()
}

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncRecordConflict() { conflictsTotal.Inc() }
