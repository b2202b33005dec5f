package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"perfgauge/bench"
)

// ConsoleReporter renders a human-readable table to stdout and emits a
// single structured JSON line through logrus for every completed
// batch, so the same run is both eyeballable in a terminal and
// machine-parseable from a log pipeline.
type ConsoleReporter struct {
	testCaseName string
	logger       logrus.FieldLogger
}

// NewConsoleReporter returns a ConsoleReporter labelling its reports
// with testCaseName (defaulted inside bench.BuildReport when empty).
func NewConsoleReporter(testCaseName string, logger logrus.FieldLogger) *ConsoleReporter {
	return &ConsoleReporter{testCaseName: testCaseName, logger: logger}
}

// jsonReport is the shape of the structured log line emitted alongside
// the table.
type jsonReport struct {
	TestCase      string  `json:"test_case"`
	DurationSec   float64 `json:"duration_seconds"`
	TotalRequests uint64  `json:"total_requests"`
	TotalBytes    uint64  `json:"total_bytes"`
	SuccessRate   float64 `json:"success_rate"`
	RatePerSecond float64 `json:"rate_per_second"`
	BitrateMbps   float64 `json:"bitrate_mbps"`
}

func (c *ConsoleReporter) Report(metrics *bench.BenchRunMetrics) error {
	report := bench.BuildReport(metrics, c.testCaseName)
	c.printTable(report)
	c.logJSON(report)

	for name, sub := range metrics.ByOperation {
		subReport := bench.BuildReport(sub, c.testCaseName+"/"+name)
		c.printTable(subReport)
		c.logJSON(subReport)
	}
	return nil
}

func (c *ConsoleReporter) ResetMetrics() {}

func (c *ConsoleReporter) printTable(report *bench.BenchRunReport) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("%s (%.2fs)\n", report.TestCaseName, report.Duration.Seconds())

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"Metric", "Value"})
	summary.Append([]string{"Total requests", fmt.Sprintf("%d", report.TotalRequests)})
	summary.Append([]string{"Total bytes", fmt.Sprintf("%d", report.TotalBytes)})
	summary.Append([]string{"Success rate", fmt.Sprintf("%.2f%%", report.SuccessRate)})
	summary.Append([]string{"Rate", fmt.Sprintf("%.2f req/s", report.RatePerSecond)})
	summary.Append([]string{"Bitrate", fmt.Sprintf("%.2f Mbps", report.BitrateMbps)})
	summary.Render()

	codes := tablewriter.NewWriter(os.Stdout)
	codes.SetHeader([]string{"Status", "Count"})
	for _, c := range report.CodeSummary {
		codes.Append([]string{c.Status, fmt.Sprintf("%d", c.Count)})
	}
	codes.Render()

	latency := tablewriter.NewWriter(os.Stdout)
	latency.SetHeader([]string{"Latency (us)", "Value"})
	for _, l := range report.LatencySummary {
		latency.Append([]string{l.Label, fmt.Sprintf("%d", l.Value)})
	}
	latency.Render()
}

func (c *ConsoleReporter) logJSON(report *bench.BenchRunReport) {
	payload, err := json.Marshal(jsonReport{
		TestCase:      report.TestCaseName,
		DurationSec:   report.Duration.Seconds(),
		TotalRequests: report.TotalRequests,
		TotalBytes:    report.TotalBytes,
		SuccessRate:   report.SuccessRate,
		RatePerSecond: report.RatePerSecond,
		BitrateMbps:   report.BitrateMbps,
	})
	if err != nil {
		c.logger.WithError(err).Warn("console reporter: failed to marshal report")
		return
	}
	c.logger.WithField("report", string(payload)).WithField("at", time.Now().Format(time.RFC3339)).Info("batch complete")
}
