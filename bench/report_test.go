package bench

import (
	"testing"
	"time"
)

func TestSummaryOrderedByCountDescThenLabelAsc(t *testing.T) {
	m := NewBenchRunMetrics()
	counts := map[string]int{"200 OK": 2, "400 Bad Request": 1, "502 Bad Gateway": 3}
	for status, n := range counts {
		for i := 0; i < n; i++ {
			m.ReportRequest(RequestStats{IsSuccess: status == "200 OK", Status: status, Duration: time.Millisecond})
		}
	}

	report := BuildReport(m, "")
	want := []CodeCount{
		{"502 Bad Gateway", 3},
		{"200 OK", 2},
		{"400 Bad Request", 1},
	}
	if len(report.CodeSummary) != len(want) {
		t.Fatalf("got %d entries, want %d", len(report.CodeSummary), len(want))
	}
	for i, cc := range report.CodeSummary {
		if cc != want[i] {
			t.Errorf("CodeSummary[%d] = %+v, want %+v", i, cc, want[i])
		}
	}
}

func TestBuildReportDefaultsTestCaseName(t *testing.T) {
	m := NewBenchRunMetrics()
	report := BuildReport(m, "")
	if report.TestCaseName != "perf-gauge" {
		t.Fatalf("TestCaseName = %q, want %q", report.TestCaseName, "perf-gauge")
	}
}
