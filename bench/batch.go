package bench

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// metricsChannelCapacity bounds the batch's metrics channel. Under
// pathological overload, a full channel causes RequestStats to be
// dropped (and logged) rather than applying backpressure to workers,
// preserving request timing accuracy at the cost of measurement
// completeness.
const metricsChannelCapacity = 1000

// BenchBatch is a snapshot of N workers for a single rate level plus
// the shared protocol adapter they execute against. It is consumed
// exactly once by Run.
type BenchBatch[C any] struct {
	Rate    float64
	Workers []*BenchWorker[C]
	Adapter ProtocolAdapter[C]
}

// Run fans out one goroutine per worker plus a single aggregator
// goroutine, and blocks until every worker has finished and the
// aggregator has drained the metrics channel.
func (b *BenchBatch[C]) Run(ctx context.Context, fatalStop *FatalStop, logger logrus.FieldLogger) *BenchRunMetrics {
	metricsCh := make(chan RequestStats, metricsChannelCapacity)
	metrics := NewBenchRunMetrics()

	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for stats := range metricsCh {
			metrics.ReportRequest(stats)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(len(b.Workers))
	for _, w := range b.Workers {
		w := w
		go func() {
			defer wg.Done()
			if err := w.Run(ctx, b.Adapter, metricsCh, fatalStop, logger); err != nil {
				logger.WithError(err).WithField("worker", w.Index).Error("worker exited with error")
			}
		}()
	}

	wg.Wait()
	close(metricsCh)
	<-aggDone

	return metrics
}
