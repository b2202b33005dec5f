package reporter

import (
	"strings"

	"github.com/codahale/hdrhistogram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"

	"perfgauge/bench"
)

// PushGatewayReporter pushes every completed batch's metrics to a
// Prometheus push-gateway, grouped under the "testname" label. Each
// push uses a fresh registry: a push-gateway group is a point-in-time
// snapshot, not an accumulator, so there is nothing to reset between
// batches beyond starting the next registry empty.
type PushGatewayReporter struct {
	address      string
	job          string
	testCaseName string
	logger       logrus.FieldLogger
}

// NewPushGatewayReporter returns a reporter pushing to address (a
// "host:port" pushgateway endpoint) under the given job name.
func NewPushGatewayReporter(address, job, testCaseName string, logger logrus.FieldLogger) *PushGatewayReporter {
	if job == "" {
		job = "pushgateway"
	}
	if testCaseName == "" {
		testCaseName = "perf-gauge"
	}
	return &PushGatewayReporter{address: address, job: job, testCaseName: testCaseName, logger: logger}
}

func (p *PushGatewayReporter) Report(metrics *bench.BenchRunMetrics) error {
	if err := p.pushOne(metrics, ""); err != nil {
		return err
	}
	for name, sub := range metrics.ByOperation {
		if err := p.pushOne(sub, name+"_"); err != nil {
			return err
		}
	}
	return nil
}

func (p *PushGatewayReporter) ResetMetrics() {}

// pushOne builds a fresh registry for one BenchRunMetrics (either the
// top-level run or one operation's breakdown) and pushes it. prefix is
// prepended to every metric name, e.g. "login_" for the "login"
// operation; it is empty for the top-level push.
func (p *PushGatewayReporter) pushOne(metrics *bench.BenchRunMetrics, prefix string) error {
	registry := prometheus.NewRegistry()
	report := bench.BuildReport(metrics, p.testCaseName)

	registerGauge(registry, prefix+"request_count", "total requests sent", float64(report.TotalRequests))
	registerGauge(registry, prefix+"success_count", "successful requests", float64(metrics.SuccessfulRequests))
	registerGauge(registry, prefix+"bytes_count", "total bytes transferred", float64(report.TotalBytes))

	registerCodes(registry, prefix+"response_codes", report.CodeSummary)

	registerHistogram(registry, prefix+"success_latency", metrics.SuccessLatency)
	registerHistogram(registry, prefix+"error_latency", metrics.ErrorLatency)
	registerHistogram(registry, prefix+"latency", metrics.MergedLatency())
	registerHistogram(registry, prefix+"throughput", metrics.Throughput)

	for _, l := range report.LatencySummary {
		registerGauge(registry, prefix+"latency"+percentileSuffix(l.Label), "latency "+l.Label+" in microseconds", float64(l.Value))
	}

	pusher := push.New(p.address, p.job).
		Gatherer(registry).
		Grouping("testname", p.testCaseName)

	return pusher.Push()
}

func registerGauge(registry *prometheus.Registry, name, help string, value float64) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	gauge.Set(value)
	registry.MustRegister(gauge)
}

func registerCodes(registry *prometheus.Registry, name string, codes []bench.CodeCount) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: "request count by response status",
	}, []string{"Code"})
	for _, c := range codes {
		vec.WithLabelValues(c.Status).Set(float64(c.Count))
	}
	registry.MustRegister(vec)
}

// registerHistogram re-emits an hdrhistogram's bucket distribution as a
// Prometheus histogram. Observing the bucket midpoint bar.Count times
// loses no information the push-gateway snapshot needs, since hdr's
// own buckets are already log-linear.
func registerHistogram(registry *prometheus.Registry, name string, source *hdrhistogram.Histogram) {
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    name + " distribution",
		Buckets: prometheus.ExponentialBuckets(1, 2, 20),
	})
	for _, bar := range source.Distribution() {
		if bar.Count == 0 {
			continue
		}
		value := float64((bar.From + bar.To) / 2)
		for i := int64(0); i < bar.Count; i++ {
			hist.Observe(value)
		}
	}
	registry.MustRegister(hist)
}

var percentileLabels = map[string]string{
	"Min":    "_min",
	"p50":    "_p50",
	"p90":    "_p90",
	"p95":    "_p95",
	"p99":    "_p99",
	"p99.9":  "_p99_9",
	"p99.99": "_p99_99",
	"Max":    "_max",
	"Mean":   "_mean",
	"StdDev": "_stddev",
	"tm95":   "_tm95",
	"tm99":   "_tm99",
	"tm99.9": "_tm99_9",
}

// percentileSuffix maps a LatencyStat label to its push-gateway gauge
// name suffix.
func percentileSuffix(label string) string {
	if suffix, ok := percentileLabels[label]; ok {
		return suffix
	}
	return "_" + strings.ToLower(strings.ReplaceAll(label, ".", "_"))
}
