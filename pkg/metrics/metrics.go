// Package metrics provides performance tracking and observability for dasio
// using Prometheus metrics. It offers collectors for read operations across
// the supported acquisition formats.
//
// # Overview
//
// The metrics package provides:
//   - Prometheus-compatible metrics collection
//   - Pre-defined metrics for read operations and decode volume
//   - Throughput tracking utilities for benchmarks
//   - Thread-safe metric recording
//   - Automatic metric registration
//
// # Basic Usage
//
//	// Record a completed read
//	metrics.ReadsTotal.WithLabelValues("h5", "success").Inc()
//
//	// Track read latency
//	timer := metrics.NewTimer("read_file")
//	section, _, err := reader.Read(path, opts)
//	metrics.ReadDuration.WithLabelValues("h5").Observe(timer.Stop().Seconds())
//
//	// Track decode throughput in a benchmark loop
//	tracker := metrics.NewThroughputTracker("tdms")
//	for i := 0; i < n; i++ {
//	    readOnce()
//	    tracker.Increment(int64(section.Samples()))
//	}
//	rate := tracker.GetAndReset()
//
// # Metric Types
//
// Counter: Monotonically increasing values (e.g., total reads)
// Gauge: Values that can go up or down (e.g., benchmark throughput)
// Histogram: Distribution of values (e.g., read latency percentiles)
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadsTotal tracks the total number of read operations by format.
	// Labels: format (resolved format name), status (success/failure)
	//
	// Example:
	//	metrics.ReadsTotal.WithLabelValues("sgy", "success").Inc()
	ReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dasio_reads_total",
			Help: "Total number of read operations",
		},
		[]string{"format", "status"},
	)

	// ReadDuration tracks the distribution of whole-file read latencies in
	// seconds, from dispatch through materialization.
	// Labels: format
	//
	// Example:
	//	start := time.Now()
	//	reader.Read(path, opts)
	//	metrics.ReadDuration.WithLabelValues("npy").Observe(time.Since(start).Seconds())
	ReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dasio_read_duration_seconds",
			Help: "Read latency in seconds",
			Buckets: []float64{
				0.001, // 1ms - Header-only reads
				0.01,  // 10ms - Small serialized arrays
				0.05,  // 50ms - Typical single-shot files
				0.1,   // 100ms
				0.5,   // 500ms - Multi-gigabyte containers
				1,     // 1s
				5,     // 5s - Cold storage
				30,    // 30s - Network filesystems
			},
		},
		[]string{"format"},
	)

	// ChannelsRead tracks the distribution of channel counts returned per read.
	// Labels: format
	ChannelsRead = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dasio_read_channels",
			Help: "Channels returned per read operation",
			Buckets: []float64{
				16,    // Short test arrays
				64,    // Borehole sections
				256,   // Single-fiber segments
				1024,  // Typical surface arrays
				4096,  // Full interrogator output
				16384, // Dense multi-fiber deployments
			},
		},
		[]string{"format"},
	)

	// DiagnosticsTotal counts soft metadata degradations surfaced to callers.
	// Labels: field (sampling_rate/channel_spacing/start_time)
	DiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dasio_diagnostics_total",
			Help: "Total metadata diagnostics emitted",
		},
		[]string{"field"},
	)

	// DecodeBytesTotal counts bytes produced by the transparent
	// decompression layer.
	// Labels: codec (gzip/zstd/lz4/s2)
	DecodeBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dasio_decode_bytes_total",
			Help: "Total bytes decoded from compressed containers",
		},
		[]string{"codec"},
	)

	// Throughput tracks samples decoded per second, updated by benchmark runs.
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dasio_throughput_samples_per_second",
			Help: "Current decode throughput in samples per second",
		},
		[]string{"format"},
	)
)

// Timer measures the duration of a single operation. Stop may be called
// more than once; each call reports the elapsed time since creation.
type Timer struct {
	name  string
	start time.Time
}

// NewTimer starts timing immediately. The name identifies the operation in
// logs.
//
// Example:
//
//	timer := metrics.NewTimer("read_file")
//	section, _, err := reader.Read(path, opts)
//	logger.Info("read complete", zap.Duration("duration", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop returns the elapsed duration since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker accumulates decoded sample counts over a window and
// converts them to samples/second, feeding the Throughput gauge. Safe for
// concurrent use.
type ThroughputTracker struct {
	format string

	mu          sync.Mutex
	count       int64
	windowStart time.Time
}

// NewThroughputTracker creates a tracker labeling the Throughput gauge with
// the given format name.
//
// Example:
//
//	tracker := metrics.NewThroughputTracker("h5")
//	for i := 0; i < iterations; i++ {
//	    section, _, _ := reader.Read(path, opts)
//	    tracker.Increment(int64(section.Channels() * section.Samples()))
//	}
//	rate := tracker.GetAndReset()
func NewThroughputTracker(format string) *ThroughputTracker {
	return &ThroughputTracker{format: format, windowStart: time.Now()}
}

// Increment adds n decoded samples to the current window.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	t.count += n
	t.mu.Unlock()
}

// GetAndReset closes the current window: it publishes the window's
// samples/second to the Throughput gauge, starts a fresh window and returns
// the rate. A zero-length window reports 0 without resetting.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.windowStart).Seconds()
	if elapsed == 0 {
		return 0
	}
	rate := float64(t.count) / elapsed

	t.count = 0
	t.windowStart = time.Now()

	Throughput.WithLabelValues(t.format).Set(rate)
	return rate
}
