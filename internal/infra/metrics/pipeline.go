package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(stagesProcessedTotal, stageDurationMs, stageDuplicatesTotal, busEventsTotal)
}

var stagesProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_stages_processed_total",
		Help: "Pipeline stage executions, labeled by stage and outcome.",
	},
	[]string{"stage", "outcome"}, // outcome: 'completed', 'failed'
)

var stageDurationMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_ms",
		Help:    "Stage execution latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	},
	[]string{"stage"},
)

var stageDuplicatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_stage_duplicates_total",
		Help: "Stage events skipped because a terminal record already existed.",
	},
	[]string{"stage"},
)

var busEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bus_events_total",
		Help: "Events published to the in-process bus, labeled by event and result.",
	},
	[]string{"event", "result"}, // result: 'queued', 'dropped'
)

func ObserveStage(stage, outcome string, durationMs int) {
	stagesProcessedTotal.WithLabelValues(norm(stage), norm(outcome)).Inc()
	stageDurationMs.WithLabelValues(norm(stage)).Observe(float64(durationMs))
}

func IncStageDuplicate(stage string) {
	stageDuplicatesTotal.WithLabelValues(norm(stage)).Inc()
}

func IncBusEvent(event, result string) {
	busEventsTotal.WithLabelValues(norm(event), norm(result)).Inc()
}
