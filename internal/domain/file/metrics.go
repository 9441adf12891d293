package file

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filer_ingest_total",
			Help: "Upload attempts by outcome.",
		},
		[]string{"result"},
	)

	ingestBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filer_ingest_bytes_total",
		Help: "Bytes accepted by the ingestion pipeline.",
	})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filer_ingest_duration_seconds",
		Help:    "Time spent ingesting one upload.",
		Buckets: prometheus.DefBuckets,
	})

	deletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filer_files_deleted_total",
		Help: "Files removed together with their bytes.",
	})
)
