package bench

import (
	"sort"
	"time"
)

// CodeCount is one (status, count) pair in a response-code summary,
// sorted by descending count then ascending label.
type CodeCount struct {
	Status string
	Count  int
}

// LatencyStat is one named entry in a latency summary table.
type LatencyStat struct {
	Label string
	Value uint64
}

// BenchRunReport is the derived, presentation-ready view of a
// BenchRunMetrics. Each reporter builds its own when it handles a
// batch; Duration runs from BenchBegin to that BuildReport call.
type BenchRunReport struct {
	TestCaseName  string
	Duration      time.Duration
	TotalBytes    uint64
	TotalRequests uint64
	SuccessRate   float64
	RatePerSecond float64
	BitrateMbps   float64
	CodeSummary   []CodeCount
	LatencySummary []LatencyStat
}

// BuildReport derives a BenchRunReport from metrics. testCaseName
// defaults to "perf-gauge" when empty, so reports are always labelled
// even when the caller never set --name.
func BuildReport(metrics *BenchRunMetrics, testCaseName string) *BenchRunReport {
	if testCaseName == "" {
		testCaseName = "perf-gauge"
	}

	duration := time.Since(metrics.BenchBegin)
	totalRequests := metrics.TotalRequests
	totalBytes := metrics.TotalBytes

	var successRate, ratePerSecond, bitrateMbps float64
	if totalRequests > 0 {
		successRate = float64(metrics.SuccessfulRequests) * 100 / float64(totalRequests)
	}
	if duration.Seconds() > 0 {
		ratePerSecond = float64(totalRequests) / duration.Seconds()
		bitrateMbps = float64(totalBytes) / duration.Seconds() * 8 / 1_000_000
	}

	return &BenchRunReport{
		TestCaseName:   testCaseName,
		Duration:       duration,
		TotalBytes:     totalBytes,
		TotalRequests:  totalRequests,
		SuccessRate:    successRate,
		RatePerSecond:  ratePerSecond,
		BitrateMbps:    bitrateMbps,
		CodeSummary:    summaryOrdered(metrics),
		LatencySummary: latencySummary(metrics),
	}
}

func summaryOrdered(metrics *BenchRunMetrics) []CodeCount {
	pairs := make([]CodeCount, 0, len(metrics.Summary))
	for status, count := range metrics.Summary {
		pairs = append(pairs, CodeCount{Status: status, Count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Status < pairs[j].Status
	})
	return pairs
}

func latencySummary(metrics *BenchRunMetrics) []LatencyStat {
	latency := metrics.MergedLatency()

	return []LatencyStat{
		{"Min", uint64(latency.Min())},
		{"p50", uint64(latency.ValueAtQuantile(50.0))},
		{"p90", uint64(latency.ValueAtQuantile(90.0))},
		{"p95", uint64(latency.ValueAtQuantile(95.0))},
		{"p99", uint64(latency.ValueAtQuantile(99.0))},
		{"p99.9", uint64(latency.ValueAtQuantile(99.9))},
		{"p99.99", uint64(latency.ValueAtQuantile(99.99))},
		{"Max", uint64(latency.Max())},
		{"Mean", uint64(latency.Mean())},
		{"StdDev", uint64(latency.StdDev())},
		{"tm95", metrics.TruncatedMean(5.0)},
		{"tm99", metrics.TruncatedMean(1.0)},
		{"tm99.9", metrics.TruncatedMean(0.1)},
	}
}
