// Package metrics holds the Prometheus collectors for the export pipeline.
// Collectors are registered on the default registry via promauto and exposed
// by the /metrics route in main.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExportsTotal counts completed pipeline runs by purpose and terminal
	// mode (count vs. full stream).
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voterfile_exports_total",
			Help: "Completed export pipeline runs",
		},
		[]string{"purpose", "mode"},
	)

	// FallbackTotal counts zero-result probes that triggered the
	// normalized-column recount.
	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voterfile_export_fallback_total",
		Help: "Zero-count probes retried under normalized-column parsing",
	})

	// StreamErrorsTotal counts exports that failed mid-stream. This, plus
	// the structured log line written alongside it, is the observability
	// channel for stream failures; the error itself propagates to the
	// caller.
	StreamErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voterfile_export_stream_errors_total",
		Help: "Exports that failed during CSV streaming",
	})

	// ExportDuration observes wall time of full pipeline runs, count probes
	// included.
	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voterfile_export_duration_seconds",
		Help:    "Export pipeline duration",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// ExportRows counts rows streamed out across all exports.
	ExportRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voterfile_export_rows_total",
		Help: "CSV data rows streamed to callers",
	})

	// ExportBytes counts CSV bytes delivered downstream, header included.
	ExportBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voterfile_export_bytes_total",
		Help: "CSV bytes streamed to callers",
	})
)
