package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal     *prometheus.CounterVec
	batchesTotal  *prometheus.CounterVec
	uploadsTotal  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Rows processed by the ingestion pipeline.",
		}, []string{"type", "result"}),
		batchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Batch flushes attempted by the ingestion pipeline.",
		}, []string{"type", "result"}),
		uploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Completed ingestion runs.",
		}, []string{"type", "result"}),
		batchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "logistics",
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Latency of a single batch write.",
			Buckets: []float64{
				0.01, 0.025, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5, 10, 30,
			},
		}, []string{"type"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
