package bench

import "sync/atomic"

// FatalStop is a flag shared by every worker of a run, set when a worker
// observes a request that should halt the whole benchmark run (a
// configured stop-on-error status code, or a request timeout). Once
// set, every worker exits its loop after finishing in-flight work.
//
// It is exposed as a value (not a package-level global) so tests can
// construct an independent instance and reset it between runs, and so
// a single process can run more than one benchmark session without
// its flag bleeding across them.
type FatalStop struct {
	flag int32
}

// NewFatalStop returns a fresh, unset flag.
func NewFatalStop() *FatalStop {
	return &FatalStop{}
}

// Set trips the flag. Safe to call concurrently and more than once.
func (f *FatalStop) Set() {
	atomic.StoreInt32(&f.flag, 1)
}

// IsSet reports whether the flag has been tripped. Workers check it
// once per loop iteration, so a request that passed the check before
// Set was called on another goroutine still executes.
func (f *FatalStop) IsSet() bool {
	return atomic.LoadInt32(&f.flag) == 1
}

// Reset clears the flag. Used between test runs, and by a continuous
// orchestrator starting a fresh pass over the rate ladder.
func (f *FatalStop) Reset() {
	atomic.StoreInt32(&f.flag, 0)
}
