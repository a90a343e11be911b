// Package metrics carries the accessor's Prometheus instrumentation,
// grounded on accessors/ntfs/instrument.go's Instrument() helper and
// glob/accessor_common.go's open-file gauge.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "ntfs_accessor_operation_duration_seconds",
		Help: "Time taken to perform an accessor operation.",
	}, []string{"operation"})

var OpenStreams = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "ntfs_accessor_open_streams",
		Help: "Number of currently open streams handed to callers.",
	})

// Instrument starts a timer for the named operation and returns a
// function that records the elapsed duration when called, typically
// via defer at the call site.
func Instrument(operation string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
		return elapsed
	}
}
