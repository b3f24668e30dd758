package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcome counters. One increment per record per poll cycle, so
// rates reflect feed activity directly.
var (
	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conflictwatch",
		Subsystem: "ingest",
		Name:      "records_skipped_total",
		Help:      "Records not processed, by reason (duplicate, filtered, rejected, failure_cap).",
	}, []string{"reason"})

	RecordsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conflictwatch",
		Subsystem: "ingest",
		Name:      "records_stored_total",
		Help:      "Tweets persisted, by geolocation accuracy tier (or none).",
	}, []string{"accuracy"})

	ExtractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conflictwatch",
		Subsystem: "ingest",
		Name:      "extraction_failures_total",
		Help:      "Records whose extraction exhausted the retry budget.",
	})

	SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conflictwatch",
		Subsystem: "ingest",
		Name:      "source_errors_total",
		Help:      "Feed fetch or parse failures, per source.",
	}, []string{"source"})

	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conflictwatch",
		Subsystem: "ingest",
		Name:      "poll_cycles_total",
		Help:      "Completed ingestion poll cycles.",
	})
)
