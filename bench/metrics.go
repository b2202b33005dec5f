package bench

import (
	"time"

	"github.com/codahale/hdrhistogram"
)

const (
	// latency histograms record microseconds; one hour is far beyond
	// any sane request latency, so observations past it are dropped
	// rather than growing the histogram's memory footprint.
	minLatencyUS = 1
	maxLatencyUS = int64(time.Hour / time.Microsecond)
	latencySigFigs = 3

	// throughput histograms record bytes/second.
	minThroughputBps = 1
	maxThroughputBps = int64(10) * 1000 * 1000 * 1000 // 10 GB/s ceiling
)

// BenchRunMetrics accumulates the outcome of every request in a
// single batch. It is owned by exactly one goroutine (the batch's
// aggregator), so no internal locking is needed.
type BenchRunMetrics struct {
	BenchBegin         time.Time
	TotalBytes         uint64
	TotalRequests      uint64
	SuccessfulRequests uint64
	Summary            map[string]int
	SuccessLatency     *hdrhistogram.Histogram
	ErrorLatency       *hdrhistogram.Histogram
	Throughput         *hdrhistogram.Histogram

	// ByOperation holds a per-operation-name breakdown of the same
	// shape, populated only when RequestStats.OperationName is set.
	ByOperation map[string]*BenchRunMetrics
}

// NewBenchRunMetrics returns a fresh, empty BenchRunMetrics stamped
// with the current time as its bench-begin instant.
func NewBenchRunMetrics() *BenchRunMetrics {
	return &BenchRunMetrics{
		BenchBegin:     time.Now(),
		Summary:        make(map[string]int),
		SuccessLatency: hdrhistogram.New(minLatencyUS, maxLatencyUS, latencySigFigs),
		ErrorLatency:   hdrhistogram.New(minLatencyUS, maxLatencyUS, latencySigFigs),
		Throughput:     hdrhistogram.New(minThroughputBps, maxThroughputBps, latencySigFigs),
		ByOperation:    make(map[string]*BenchRunMetrics),
	}
}

// ReportRequest folds one request's outcome into the metrics.
// SuccessfulRequests never exceeds TotalRequests, and histogram
// observations that exceed the configured bounds are silently ignored
// rather than erroring.
func (m *BenchRunMetrics) ReportRequest(stats RequestStats) {
	m.reportCore(stats)

	if stats.OperationName != "" {
		sub, ok := m.ByOperation[stats.OperationName]
		if !ok {
			sub = NewBenchRunMetrics()
			sub.BenchBegin = m.BenchBegin
			m.ByOperation[stats.OperationName] = sub
		}
		sub.reportCore(stats)
	}
}

func (m *BenchRunMetrics) reportCore(stats RequestStats) {
	m.TotalRequests++
	if stats.IsSuccess {
		m.SuccessfulRequests++
		_ = m.SuccessLatency.RecordValue(stats.Duration.Microseconds())
	} else {
		_ = m.ErrorLatency.RecordValue(stats.Duration.Microseconds())
	}
	m.TotalBytes += stats.BytesProcessed
	m.Summary[stats.Status]++

	if stats.Duration > 0 {
		bps := int64(float64(stats.BytesProcessed) / stats.Duration.Seconds())
		if bps > 0 {
			_ = m.Throughput.RecordValue(bps)
		}
	}
}

// TruncatedMean returns the mean of success-latency observations
// (microseconds) whose value falls between the thresholdPercent and
// (100-thresholdPercent) percentiles, trimming both tails. Returns 0
// if no observations fall in that window.
func (m *BenchRunMetrics) TruncatedMean(thresholdPercent float64) uint64 {
	return truncatedMean(m.SuccessLatency, thresholdPercent)
}

func truncatedMean(h *hdrhistogram.Histogram, thresholdPercent float64) uint64 {
	lo := h.ValueAtQuantile(thresholdPercent)
	hi := h.ValueAtQuantile(100 - thresholdPercent)

	var sum, count int64
	for _, bar := range h.Distribution() {
		if bar.Count == 0 {
			continue
		}
		value := (bar.From + bar.To) / 2
		if value >= lo && value <= hi {
			sum += value * bar.Count
			count += bar.Count
		}
	}
	if count == 0 {
		return 0
	}
	return uint64(sum / count)
}

// MergedLatency returns a histogram combining success and error
// latencies, used by reports that present a single latency summary.
func (m *BenchRunMetrics) MergedLatency() *hdrhistogram.Histogram {
	merged := hdrhistogram.New(minLatencyUS, maxLatencyUS, latencySigFigs)
	merged.Merge(m.SuccessLatency)
	merged.Merge(m.ErrorLatency)
	return merged
}
