package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// BenchWorker is one concurrent unit of work within a BenchBatch,
// bounded by either a request budget or a wall-clock budget, driven
// by its own RateLimiter and an owned protocol-adapter client.
type BenchWorker[C any] struct {
	Index int

	benchBegin   time.Time
	maxRequests  *int
	maxDuration  *time.Duration
	requestsSent int

	timeout     *time.Duration
	rateLimiter *RateLimiter
}

func newBenchWorker[C any](index int, maxRequests *int, maxDuration *time.Duration, rateLimiter *RateLimiter, timeout *time.Duration) *BenchWorker[C] {
	if maxRequests == nil && maxDuration == nil {
		panic("bench: worker must be bounded by either a request count or a duration")
	}
	return &BenchWorker[C]{
		Index:       index,
		benchBegin:  time.Now(),
		maxRequests: maxRequests,
		maxDuration: maxDuration,
		rateLimiter: rateLimiter,
		timeout:     timeout,
	}
}

// NewBenchWorkerWithRequestLimit builds a worker bounded by a fixed
// number of requests.
func NewBenchWorkerWithRequestLimit[C any](index, maxRequests int, rateLimiter *RateLimiter, timeout *time.Duration) *BenchWorker[C] {
	n := maxRequests
	return newBenchWorker[C](index, &n, nil, rateLimiter, timeout)
}

// NewBenchWorkerWithDurationLimit builds a worker bounded by elapsed
// wall-clock time.
func NewBenchWorkerWithDurationLimit[C any](index int, maxDuration time.Duration, rateLimiter *RateLimiter, timeout *time.Duration) *BenchWorker[C] {
	d := maxDuration
	return newBenchWorker[C](index, nil, &d, rateLimiter, timeout)
}

// HasMoreWork reports whether the worker's budget is not yet
// exhausted, and increments the internal request counter as a side
// effect of being called (mirroring the original reference semantics:
// a check "uses up" a slot even if the caller then stops).
func (w *BenchWorker[C]) HasMoreWork() bool {
	var hasMore bool
	if w.maxRequests != nil {
		hasMore = w.requestsSent < *w.maxRequests
	} else {
		hasMore = time.Since(w.benchBegin) < *w.maxDuration
	}
	w.requestsSent++
	return hasMore
}

// Run drives the worker's request loop until its budget is exhausted
// or fatalStop is observed, feeding every produced RequestStats to
// metricsCh on a non-blocking, drop-on-full basis.
func (w *BenchWorker[C]) Run(ctx context.Context, adapter ProtocolAdapter[C], metricsCh chan<- RequestStats, fatalStop *FatalStop, logger logrus.FieldLogger) error {
	defer w.rateLimiter.Close()

	client, err := adapter.BuildClient()
	if err != nil {
		return fmt.Errorf("worker %d: build client: %w", w.Index, err)
	}

	for w.HasMoreWork() {
		if err := w.rateLimiter.AcquireOne(ctx); err != nil {
			return nil
		}

		if fatalStop.IsSet() {
			break
		}

		stats, timedOut := w.sendWithTimeout(ctx, adapter, client)
		if timedOut {
			fatalStop.Set()
			break
		}

		select {
		case metricsCh <- stats:
		default:
			logger.WithField("worker", w.Index).Warn("metrics channel full, dropping request stats")
		}

		if stats.FatalError {
			fatalStop.Set()
			break
		}
	}

	return nil
}

func (w *BenchWorker[C]) sendWithTimeout(ctx context.Context, adapter ProtocolAdapter[C], client C) (RequestStats, bool) {
	callCtx := ctx
	cancel := func() {}
	if w.timeout != nil {
		callCtx, cancel = context.WithTimeout(ctx, *w.timeout)
	}
	defer cancel()

	type result struct {
		stats RequestStats
	}
	resultCh := make(chan result, 1)
	go func() {
		resultCh <- result{adapter.SendRequest(callCtx, client)}
	}()

	select {
	case r := <-resultCh:
		return r.stats, false
	case <-callCtx.Done():
		return RequestStats{}, true
	}
}
