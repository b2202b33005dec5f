package bench

import (
	"errors"
	"time"
)

// RateLadderConfig describes the parameters of a RateLadder. Exactly
// one of StepDuration or StepRequests must be set; RateIncrement is
// optional (nil means "hold at Start for MaxRateIterations batches",
// and at least one batch when MaxRateIterations is 0).
type RateLadderConfig struct {
	Start             float64
	End               float64
	RateIncrement     *float64
	StepDuration      *time.Duration
	StepRequests      *int
	MaxRateIterations int
}

// RateLadder is a stateful iterator over the sequence of rates used by
// successive batches of a BenchSession.
type RateLadder struct {
	start             float64
	end               float64
	rateIncrement     *float64
	stepDuration      *time.Duration
	stepRequests      *int
	maxRateIterations int

	current  float64
	complete bool
}

// NewRateLadder validates cfg and builds a RateLadder positioned at
// cfg.Start.
func NewRateLadder(cfg RateLadderConfig) (*RateLadder, error) {
	if cfg.StepDuration == nil && cfg.StepRequests == nil {
		return nil, errors.New("rate ladder: exactly one of StepDuration or StepRequests must be set")
	}
	if cfg.StepDuration != nil && cfg.StepRequests != nil {
		return nil, errors.New("rate ladder: only one of StepDuration or StepRequests may be set")
	}
	if cfg.Start > cfg.End {
		return nil, errors.New("rate ladder: Start must be <= End")
	}
	if cfg.MaxRateIterations < 0 {
		return nil, errors.New("rate ladder: MaxRateIterations must be >= 0")
	}

	return &RateLadder{
		start:             cfg.Start,
		end:               cfg.End,
		rateIncrement:     cfg.RateIncrement,
		stepDuration:      cfg.StepDuration,
		stepRequests:      cfg.StepRequests,
		maxRateIterations: cfg.MaxRateIterations,
		current:           cfg.Start,
	}, nil
}

// Current returns the rate (requests/second) for the batch about to be
// run. It is never less than Start.
func (l *RateLadder) Current() float64 {
	if l.current < l.start {
		return l.start
	}
	return l.current
}

// Complete reports whether the ladder has no further batches to yield.
func (l *RateLadder) Complete() bool {
	return l.complete
}

// StepDuration returns the wall-clock budget for a batch, if configured.
func (l *RateLadder) StepDuration() (time.Duration, bool) {
	if l.stepDuration == nil {
		return 0, false
	}
	return *l.stepDuration, true
}

// StepRequests returns the per-worker request budget for a batch, if
// configured.
func (l *RateLadder) StepRequests() (int, bool) {
	if l.stepRequests == nil {
		return 0, false
	}
	return *l.stepRequests, true
}

// Advance moves the ladder to the next rate:
//
//   - no increment, MaxRateIterations <= 1: mark complete
//   - no increment, MaxRateIterations > 1: decrement iterations, rate unchanged
//   - increment present: step = min(increment, end-current); if step < 1
//     (at the ceiling) either decrement the remaining iterations or mark
//     complete; current is always advanced by step.
func (l *RateLadder) Advance() {
	if l.rateIncrement == nil {
		if l.maxRateIterations <= 1 {
			l.complete = true
		} else {
			l.maxRateIterations--
		}
		return
	}

	distance := l.end - l.current
	step := *l.rateIncrement
	if distance < step {
		step = distance
	}
	if step < 1 {
		if l.maxRateIterations > 0 {
			l.maxRateIterations--
		} else {
			l.complete = true
		}
	}
	l.current += step
}
