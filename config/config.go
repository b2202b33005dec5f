// Package config parses command-line flags and an optional YAML
// overlay into a BenchmarkConfig, and materializes HTTP request
// bodies from the --body flag's random/base64/file schemes. It sits
// above the core bench engine: bench never imports this package, so
// the engine stays usable from any other configuration surface.
package config

import (
	"time"

	"perfgauge/httpadapter"
)

// BenchmarkConfig is the fully resolved, immutable configuration for
// one benchmark run.
type BenchmarkConfig struct {
	Name           string
	Concurrency    int
	Ladder         RateLadderConfig
	HTTP           httpadapter.Config
	Continuous     bool
	RequestTimeout *time.Duration

	Prometheus    string
	PrometheusJob string
}

// RateLadderConfig mirrors bench.RateLadderConfig's fields prior to
// construction, so the CLI layer can validate flag combinations before
// handing off to bench.NewRateLadder.
type RateLadderConfig struct {
	Start             float64
	End               float64
	RateIncrement     *float64
	StepDuration      *time.Duration
	StepRequests      *int
	MaxRateIterations int
}
