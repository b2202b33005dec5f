package bench

import (
	"context"
	"testing"
	"time"
)

func TestRateReductionTable(t *testing.T) {
	cases := []struct {
		rate     float64
		amount   float64
		interval time.Duration
	}{
		{0.1, 1, 10 * time.Second},
		{0.5, 1, 2 * time.Second},
		{1, 1, time.Second},
		{2, 1, 500 * time.Millisecond},
		{100, 1, 10 * time.Millisecond},
		{150, 3, 20 * time.Millisecond},
		{1250, 5, 4 * time.Millisecond},
		{5000, 5, time.Millisecond},
	}

	for _, c := range cases {
		rl := BuildRateLimiter(c.rate)
		if rl.Amount() != c.amount {
			t.Errorf("rate %v: amount = %v, want %v", c.rate, rl.Amount(), c.amount)
		}
		if rl.Interval() != c.interval {
			t.Errorf("rate %v: interval = %v, want %v", c.rate, rl.Interval(), c.interval)
		}
	}
}

func TestRateLimiterUnlimited(t *testing.T) {
	rl := BuildRateLimiter(0)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		if err := rl.AcquireOne(ctx); err != nil {
			t.Fatalf("unlimited AcquireOne returned error: %v", err)
		}
	}
}
