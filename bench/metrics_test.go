package bench

import (
	"testing"
	"time"
)

func TestReportRequestInvariants(t *testing.T) {
	m := NewBenchRunMetrics()

	stats := []RequestStats{
		{IsSuccess: true, BytesProcessed: 10, Status: "200 OK", Duration: time.Millisecond},
		{IsSuccess: true, BytesProcessed: 20, Status: "200 OK", Duration: 2 * time.Millisecond},
		{IsSuccess: false, BytesProcessed: 0, Status: "500 Internal Server Error", Duration: time.Millisecond},
	}
	for _, s := range stats {
		m.ReportRequest(s)
	}

	if m.SuccessfulRequests > m.TotalRequests {
		t.Fatalf("successful_requests %d > total_requests %d", m.SuccessfulRequests, m.TotalRequests)
	}
	if m.TotalRequests != uint64(len(stats)) {
		t.Fatalf("total_requests = %d, want %d", m.TotalRequests, len(stats))
	}

	var summed int
	for _, count := range m.Summary {
		summed += count
	}
	if uint64(summed) != m.TotalRequests {
		t.Fatalf("sum(summary) = %d, want %d", summed, m.TotalRequests)
	}
}

func TestReportRequestByOperation(t *testing.T) {
	m := NewBenchRunMetrics()
	m.ReportRequest(RequestStats{IsSuccess: true, Status: "200 OK", Duration: time.Millisecond, OperationName: "login"})
	m.ReportRequest(RequestStats{IsSuccess: true, Status: "200 OK", Duration: time.Millisecond, OperationName: "login"})
	m.ReportRequest(RequestStats{IsSuccess: true, Status: "200 OK", Duration: time.Millisecond})

	if m.TotalRequests != 3 {
		t.Fatalf("total_requests = %d, want 3", m.TotalRequests)
	}
	sub, ok := m.ByOperation["login"]
	if !ok {
		t.Fatal("expected a ByOperation entry for \"login\"")
	}
	if sub.TotalRequests != 2 {
		t.Fatalf("login sub-metrics total_requests = %d, want 2", sub.TotalRequests)
	}
}

func TestTruncatedMeanSymmetry(t *testing.T) {
	m := NewBenchRunMetrics()
	for v := 0; v < 1000; v++ {
		m.ReportRequest(RequestStats{IsSuccess: true, Status: "200 OK", Duration: time.Duration(v) * time.Microsecond})
	}

	latency := m.SuccessLatency
	threshold := 10.0
	lo := latency.ValueAtQuantile(threshold)
	hi := latency.ValueAtQuantile(100 - threshold)

	tm := m.TruncatedMean(threshold)
	if tm < uint64(lo) || tm > uint64(hi) {
		t.Fatalf("truncated mean %d not within [%d, %d]", tm, lo, hi)
	}
}

func TestTruncatedMeanEmptyIsZero(t *testing.T) {
	m := NewBenchRunMetrics()
	if tm := m.TruncatedMean(5.0); tm != 0 {
		t.Fatalf("truncated mean of empty histogram = %d, want 0", tm)
	}
}
