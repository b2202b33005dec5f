package bench

import "time"

// BenchSession is an iterator over the batches produced by a
// RateLadder: at each step it divides the ladder's current rate
// across Concurrency workers, hands out a fresh per-worker
// RateLimiter, and advances the ladder.
type BenchSession[C any] struct {
	concurrency    int
	ladder         *RateLadder
	adapter        ProtocolAdapter[C]
	requestTimeout *time.Duration

	iteration int
}

// NewBenchSession builds a session over ladder, fanning out
// concurrency workers per batch against adapter. requestTimeout, if
// non-nil, bounds every individual request. The fatal-stop flag each
// batch checks is supplied separately to BenchBatch.Run, since it is
// orchestrator-owned state shared across the whole session rather than
// something the session itself needs to consult.
func NewBenchSession[C any](concurrency int, ladder *RateLadder, adapter ProtocolAdapter[C], requestTimeout *time.Duration) *BenchSession[C] {
	return &BenchSession[C]{
		concurrency:    concurrency,
		ladder:         ladder,
		adapter:        adapter,
		requestTimeout: requestTimeout,
	}
}

// Next returns the next BenchBatch to run, or (nil, false) once the
// rate ladder is complete.
func (s *BenchSession[C]) Next() (*BenchBatch[C], bool) {
	if s.ladder.Complete() {
		return nil, false
	}

	rate := s.ladder.Current()
	perWorkerRate := rate / float64(s.concurrency)

	stepRequests, hasStepRequests := s.ladder.StepRequests()
	stepDuration, _ := s.ladder.StepDuration()

	workers := make([]*BenchWorker[C], s.concurrency)
	for i := 0; i < s.concurrency; i++ {
		index := s.iteration*s.concurrency + i
		limiter := BuildRateLimiter(perWorkerRate)

		if hasStepRequests {
			workers[i] = NewBenchWorkerWithRequestLimit[C](index, stepRequests, limiter, s.requestTimeout)
		} else {
			workers[i] = NewBenchWorkerWithDurationLimit[C](index, stepDuration, limiter, s.requestTimeout)
		}
	}

	s.iteration++
	s.ladder.Advance()

	return &BenchBatch[C]{Rate: rate, Workers: workers, Adapter: s.adapter}, true
}
