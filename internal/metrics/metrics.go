// Package metrics exposes Prometheus collectors for dataset loading.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sheetboard"

var (
	datasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Dataset load attempts by outcome",
		},
		[]string{"dataset", "status"},
	)

	datasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "load_duration_seconds",
			Help:      "Duration of a single dataset fetch and parse",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"dataset"},
	)

	datasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Rows in the currently published table",
		},
		[]string{"dataset"},
	)

	reloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "reload_duration_seconds",
			Help:      "Duration of a full reload including the swap",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 60},
		},
	)

	reloadFailedDatasets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "failed_datasets",
			Help:      "Datasets that failed in the last published snapshot",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	reloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "reloads_total",
			Help:      "Published snapshots",
		},
	)
)

// ObserveDatasetLoad records one dataset load.
func ObserveDatasetLoad(dataset string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	datasetLoads.WithLabelValues(dataset, status).Inc()
	datasetLoadDuration.WithLabelValues(dataset).Observe(d.Seconds())
}

// ObserveSnapshot records a published snapshot.
func ObserveSnapshot(d time.Duration, rows map[string]int, failed int) {
	reloadsTotal.Inc()
	reloadDuration.Observe(d.Seconds())
	reloadFailedDatasets.Set(float64(failed))
	for name, n := range rows {
		datasetRows.WithLabelValues(name).Set(float64(n))
	}
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
