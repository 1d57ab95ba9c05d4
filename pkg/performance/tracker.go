// Package performance measures the wall-clock, CPU and memory cost of
// repeated read calls. It backs the CLI's bench command and --stats output.
package performance

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Tracker accumulates per-read latencies and byte counts against a process
// resource baseline captured at construction. Safe for concurrent Record
// calls.
type Tracker struct {
	mu        sync.Mutex
	proc      *process.Process
	startCPU  float64
	startTime time.Time

	latencies []time.Duration
	bytes     int64
	reads     int64
	errs      int64
}

// NewTracker captures the resource baseline and starts the clock.
func NewTracker() *Tracker {
	t := &Tracker{startTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		t.proc = proc
		if times, err := proc.Times(); err == nil {
			t.startCPU = times.Total()
		}
	}
	return t
}

// Record adds one read outcome: its latency, the sample bytes it produced
// and whether it failed.
func (t *Tracker) Record(d time.Duration, bytes int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads++
	t.latencies = append(t.latencies, d)
	t.bytes += bytes
	if err != nil {
		t.errs++
	}
}

// Finish snapshots resource usage and folds the recorded reads into a
// report. The tracker is not reusable afterwards.
func (t *Tracker) Finish() *Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := &Report{
		Reads:      t.reads,
		Errors:     t.errs,
		Bytes:      t.bytes,
		Wall:       time.Since(t.startTime),
		Goroutines: runtime.NumGoroutine(),
	}
	if secs := r.Wall.Seconds(); secs > 0 {
		r.ReadsPerSec = float64(t.reads) / secs
		r.MBPerSec = float64(t.bytes) / secs / (1 << 20)
	}

	if len(t.latencies) > 0 {
		sorted := make([]time.Duration, len(t.latencies))
		copy(sorted, t.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var total time.Duration
		for _, d := range sorted {
			total += d
		}
		r.MinLatency = sorted[0]
		r.MaxLatency = sorted[len(sorted)-1]
		r.AvgLatency = total / time.Duration(len(sorted))
		r.P50Latency = sorted[len(sorted)*50/100]
		r.P95Latency = sorted[len(sorted)*95/100]
		r.P99Latency = sorted[len(sorted)*99/100]
	}

	if t.proc != nil {
		if times, err := t.proc.Times(); err == nil && r.Wall.Seconds() > 0 {
			r.CPUPercent = (times.Total() - t.startCPU) / r.Wall.Seconds() * 100
		}
		if info, err := t.proc.MemoryInfo(); err == nil {
			r.MemoryRSS = info.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.SystemMemoryPercent = vm.UsedPercent
	}

	return r
}

// Report summarizes a tracked read workload.
type Report struct {
	Reads  int64
	Errors int64
	Bytes  int64
	Wall   time.Duration

	ReadsPerSec float64
	MBPerSec    float64

	MinLatency time.Duration
	MaxLatency time.Duration
	AvgLatency time.Duration
	P50Latency time.Duration
	P95Latency time.Duration
	P99Latency time.Duration

	CPUPercent          float64
	MemoryRSS           uint64
	SystemMemoryPercent float64
	Goroutines          int
}

func (r *Report) String() string {
	return fmt.Sprintf(`Reads:      %d (%.2f/sec, %d failed)
Data:       %.2f MB (%.2f MB/sec)
Wall:       %v
Latency:    min %v / avg %v / max %v
Percentile: p50 %v / p95 %v / p99 %v
CPU:        %.1f%%
Memory:     %.1f MB RSS (system %.1f%% used)
Goroutines: %d`,
		r.Reads, r.ReadsPerSec, r.Errors,
		float64(r.Bytes)/(1<<20), r.MBPerSec,
		r.Wall.Round(time.Millisecond),
		r.MinLatency.Round(time.Microsecond),
		r.AvgLatency.Round(time.Microsecond),
		r.MaxLatency.Round(time.Microsecond),
		r.P50Latency.Round(time.Microsecond),
		r.P95Latency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
		r.CPUPercent,
		float64(r.MemoryRSS)/(1<<20), r.SystemMemoryPercent,
		r.Goroutines)
}
