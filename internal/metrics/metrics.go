// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowerama",
		Name:      "ledger_entries_total",
		Help:      "Activity entries appended, by ledger.",
	}, []string{"ledger"})

	OverrideSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flowerama",
		Name:      "override_saves_total",
		Help:      "Override store saves, by result.",
	}, []string{"result"})

	PlannedProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "flowerama",
		Name:      "spreadsheet_planned_products",
		Help:      "Products loaded from the planned-quantity spreadsheet at startup.",
	})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flowerama",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
