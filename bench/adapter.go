package bench

import (
	"context"
	"time"
)

// RequestStats is produced by a ProtocolAdapter for a single request
// and consumed by the batch aggregator.
type RequestStats struct {
	IsSuccess      bool
	BytesProcessed uint64
	Status         string
	Duration       time.Duration
	FatalError     bool
	OperationName  string
}

// ProtocolAdapter isolates protocol-specific request execution from
// the generic bench engine. C is the adapter's reusable client type
// (for the HTTP adapter, *http.Client). A ProtocolAdapter value is
// shared read-only by every worker in a batch; BuildClient is called
// once per worker so per-connection state (pools, cookies) is never
// shared across workers.
type ProtocolAdapter[C any] interface {
	BuildClient() (C, error)
	SendRequest(ctx context.Context, client C) RequestStats
}
