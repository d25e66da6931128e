package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worstcrm",
		Subsystem: "store",
		Name:      "statement_duration_seconds",
		Help:      "Latency of store statements by operation and execution shape.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "shape"})
	statementErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worstcrm",
		Subsystem: "store",
		Name:      "statement_errors_total",
		Help:      "Store statements that returned an error.",
	}, []string{"op"})
)

func observe(op, shape string, start time.Time, err error) {
	statementDuration.WithLabelValues(op, shape).Observe(time.Since(start).Seconds())
	if err != nil {
		statementErrors.WithLabelValues(op).Inc()
	}
}
