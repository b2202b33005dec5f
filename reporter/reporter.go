// Package reporter implements the asynchronous report-sink pipeline:
// each completed batch's metrics are handed to a single consumer
// goroutine, which fans them out to every configured Reporter in
// order.
package reporter

import (
	"sync"

	"github.com/sirupsen/logrus"

	"perfgauge/bench"
)

// Reporter is a sink that receives a completed batch's metrics.
// ResetMetrics is an optional hook called once, after the pipeline has
// drained its last batch and is shutting down.
type Reporter interface {
	Report(metrics *bench.BenchRunMetrics) error
	ResetMetrics()
}

// Pipeline drives one or more Reporters from a dedicated goroutine so
// that a blocking sink (e.g. a push-gateway HTTP call) never stalls
// the benchmark's worker or aggregator goroutines. Submit enqueues
// onto an unbounded internal queue rather than a fixed-size channel,
// so a reporter that falls behind across many ladder steps can never
// make the orchestrator's own Submit call block.
type Pipeline struct {
	reporters []Reporter
	logger    logrus.FieldLogger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*bench.BenchRunMetrics
	closed bool
	done   chan struct{}
}

// NewPipeline starts the pipeline's consumer goroutine.
func NewPipeline(reporters []Reporter, logger logrus.FieldLogger) *Pipeline {
	p := &Pipeline{
		reporters: reporters,
		logger:    logger,
		done:      make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Submit hands off a completed batch's metrics to the pipeline.
// Report emission across batches is serialized in submission order.
// Submit never blocks on reporter work: it only appends to the
// in-memory queue and wakes the consumer.
func (p *Pipeline) Submit(metrics *bench.BenchRunMetrics) {
	p.mu.Lock()
	p.queue = append(p.queue, metrics)
	p.mu.Unlock()
	p.cond.Signal()
}

// Close stops accepting new batches, waits for the consumer to drain
// what's already queued, and calls ResetMetrics on every reporter.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Signal()
	<-p.done
}

func (p *Pipeline) run() {
	defer close(p.done)
	for {
		metrics, ok := p.next()
		if !ok {
			break
		}
		for _, r := range p.reporters {
			if err := r.Report(metrics); err != nil {
				p.logger.WithError(err).Warn("reporter failed; continuing")
			}
		}
	}
	for _, r := range p.reporters {
		r.ResetMetrics()
	}
}

// next blocks until a queued batch is available or the pipeline has
// been closed with nothing left to drain.
func (p *Pipeline) next() (*bench.BenchRunMetrics, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	metrics := p.queue[0]
	p.queue = p.queue[1:]
	return metrics, true
}
