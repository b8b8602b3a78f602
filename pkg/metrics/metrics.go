// Package metrics exposes Prometheus counters for colwire's builders and
// IPC readers and writers.
//
// # Basic Usage
//
//	metrics.MessagesTotal.WithLabelValues(metrics.DirectionWrite, "record_batch").Inc()
//	metrics.BodyBytesTotal.WithLabelValues(metrics.DirectionWrite).Add(float64(n))
//
//	timer := metrics.NewTimer()
//	rec, err := reader.ReadRecordBatch(i)
//	metrics.ReadLatency.WithLabelValues("file").Observe(timer.Stop().Seconds())
//
// All metrics are registered on the default registry through promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DirectionRead  = "read"
	DirectionWrite = "write"
)

var (
	// MessagesTotal counts framed messages.
	// Labels: direction (read/write), kind (schema/record_batch/dictionary_batch/eos)
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colwire_ipc_messages_total",
			Help: "Total number of IPC messages framed or unframed",
		},
		[]string{"direction", "kind"},
	)

	// BodyBytesTotal counts message body bytes, padding included.
	BodyBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colwire_ipc_body_bytes_total",
			Help: "Total IPC message body bytes",
		},
		[]string{"direction"},
	)

	// ErrorsTotal counts failures surfaced by readers and writers.
	// Labels: type (colerrors type)
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colwire_ipc_errors_total",
			Help: "Total IPC errors by type",
		},
		[]string{"type"},
	)

	// DictionaryDeltasTotal counts dictionary batches by kind.
	// Labels: direction, kind (initial/delta/replacement)
	DictionaryDeltasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colwire_ipc_dictionary_batches_total",
			Help: "Total dictionary batches by kind",
		},
		[]string{"direction", "kind"},
	)

	// BuilderFlushes counts builder flushes by layout family.
	BuilderFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colwire_builder_flushes_total",
			Help: "Total builder flushes",
		},
		[]string{"layout"},
	)

	// ReadLatency tracks the time to read one record batch in seconds.
	// Labels: format (stream/file)
	ReadLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colwire_ipc_read_seconds",
			Help:    "Time to read one record batch",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
		},
		[]string{"format"},
	)
)

// Timer measures an operation's duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since NewTimer. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
