package reporter

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"perfgauge/bench"
)

type recordingReporter struct {
	mu      sync.Mutex
	reports int
	reset   bool
}

func (r *recordingReporter) Report(metrics *bench.BenchRunMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports++
	return nil
}

func (r *recordingReporter) ResetMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset = true
}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPipelineFansOutEveryBatchAndResetsOnClose(t *testing.T) {
	rec := &recordingReporter{}
	pipeline := NewPipeline([]Reporter{rec}, testLogger())

	for i := 0; i < 5; i++ {
		pipeline.Submit(bench.NewBenchRunMetrics())
	}
	pipeline.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.reports != 5 {
		t.Fatalf("reports = %d, want 5", rec.reports)
	}
	if !rec.reset {
		t.Fatal("expected ResetMetrics to be called after Close")
	}
}

type erroringReporter struct{}

func (erroringReporter) Report(metrics *bench.BenchRunMetrics) error { return assertErr }
func (erroringReporter) ResetMetrics()                               {}

var assertErr = &reporterError{"boom"}

type reporterError struct{ msg string }

func (e *reporterError) Error() string { return e.msg }

func TestPipelineContinuesAfterReporterError(t *testing.T) {
	rec := &recordingReporter{}
	pipeline := NewPipeline([]Reporter{erroringReporter{}, rec}, testLogger())

	pipeline.Submit(bench.NewBenchRunMetrics())
	pipeline.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.reports != 1 {
		t.Fatalf("reports = %d, want 1 (pipeline should keep fanning out after one reporter errors)", rec.reports)
	}
}
