package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts finished ingestion cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_cycles_total",
		Help: "Total ingestion cycles run, labeled by outcome.",
	}, []string{"outcome"})

	// NoticesIngested counts notices persisted from the remote site.
	NoticesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_notices_total",
		Help: "Total remote notices persisted.",
	})

	// ItemFailures counts per-item failures by pipeline stage.
	ItemFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_item_failures_total",
		Help: "Total per-item ingestion failures, labeled by stage.",
	}, []string{"stage"})

	// NoveltySetSize observes how many new entries each cycle found.
	NoveltySetSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_novelty_set_size",
		Help:    "Number of novel entries per ingestion cycle.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
)
