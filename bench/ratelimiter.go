package bench

import (
	"context"
	"math"
	"sync"
	"time"
)

// RateLimiter shapes outgoing request timing to approximate a target
// rate per second using a leaky-bucket token shaper. A RateLimiter
// built from a rate <= 0 is unlimited: AcquireOne never blocks.
type RateLimiter struct {
	unlimited bool
	amount    float64
	interval  time.Duration

	mu       sync.Mutex
	tokens   float64
	burst    float64
	refill   float64
	stopOnce sync.Once
	stopCh   chan struct{}
	started  bool
}

// BuildRateLimiter constructs a RateLimiter for ratePerSecond. A
// non-positive rate disables rate limiting entirely.
//
// The reduction from a floating-point rate to an (amount, interval)
// pair uses the GCD of the integral rate and 1000ms so that the
// resulting tick interval is never finer than 1ms: for ratePerSecond
// <= 1, a single token is issued every 1/ratePerSecond seconds; for
// ratePerSecond > 1, floor(ratePerSecond) is reduced against 1000 by
// their greatest common divisor.
func BuildRateLimiter(ratePerSecond float64) *RateLimiter {
	if ratePerSecond <= 0 {
		return &RateLimiter{unlimited: true}
	}

	var amount float64
	var interval time.Duration
	if ratePerSecond <= 1 {
		amount = 1
		interval = time.Duration(math.Round(1/ratePerSecond*1000)) * time.Millisecond
	} else {
		r := int64(math.Floor(ratePerSecond))
		const intMS = 1000
		g := gcd(r, intMS)
		amount = float64(r / g)
		interval = time.Duration(intMS/g) * time.Millisecond
	}

	return &RateLimiter{
		amount:   amount,
		interval: interval,
		burst:    amount * 100,
		refill:   amount * 1.01,
		stopCh:   make(chan struct{}),
	}
}

// Amount returns the nominal number of tokens issued per Interval.
// Exposed for testing the rate-reduction table.
func (rl *RateLimiter) Amount() float64 {
	return rl.amount
}

// Interval returns the refill tick interval. Exposed for testing the
// rate-reduction table.
func (rl *RateLimiter) Interval() time.Duration {
	return rl.interval
}

// AcquireOne suspends the caller until one token is available. It is
// a no-op for an unlimited RateLimiter and never returns an error
// except when ctx is cancelled first.
func (rl *RateLimiter) AcquireOne(ctx context.Context) error {
	if rl.unlimited {
		return nil
	}

	rl.mu.Lock()
	if !rl.started {
		rl.started = true
		go rl.refillLoop()
	}
	for rl.tokens < 1 {
		if ctx.Err() != nil {
			rl.mu.Unlock()
			return ctx.Err()
		}
		// sync.Cond has no context-aware wait; poll at the refill
		// cadence so cancellation is still observed promptly.
		rl.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.interval):
		}
		rl.mu.Lock()
	}
	rl.tokens--
	rl.mu.Unlock()
	return nil
}

// Close releases the background refill goroutine. Safe to call more
// than once; safe to call on an unlimited RateLimiter.
func (rl *RateLimiter) Close() {
	if rl.unlimited {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) refillLoop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			rl.tokens = math.Min(rl.tokens+rl.refill, rl.burst)
			rl.mu.Unlock()
		}
	}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	if a == 0 {
		return 1
	}
	return a
}
