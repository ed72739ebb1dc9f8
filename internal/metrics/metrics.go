package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline counters, exposed on the API server at /metrics.
var (
	EventsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "events_fetched_total",
		Help:      "Raw messages collected from all channels",
	})
	EventsAlreadyStored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "events_already_stored_total",
		Help:      "Fetched messages dropped because they already exist in storage",
	})
	EventsDeduplicated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "events_deduplicated_total",
		Help:      "Messages dropped as intra-run duplicates",
	})
	EventsPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "events_persisted_total",
		Help:      "Events written to storage",
	})
	EventsPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "events_pruned_total",
		Help:      "Events deleted by the retention pass",
	})
	LLMCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "llm_calls_total",
		Help:      "Language model calls by stage and status",
	}, []string{"stage", "status"})
	SkippedLines = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osint",
		Name:      "llm_skipped_lines_total",
		Help:      "Unparseable response lines skipped by stage",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(
		EventsFetched, EventsAlreadyStored, EventsDeduplicated,
		EventsPersisted, EventsPruned, LLMCalls, SkippedLines,
	)
}
