package bench

import (
	"testing"
	"time"
)

func reqBudget(n int) *int { return &n }

func TestRateLadderNoIncrementYieldsExactlyKBatches(t *testing.T) {
	const k = 4
	ladder, err := NewRateLadder(RateLadderConfig{
		Start:             5000,
		End:               5000,
		StepRequests:      reqBudget(100),
		MaxRateIterations: k,
	})
	if err != nil {
		t.Fatalf("NewRateLadder: %v", err)
	}

	var rates []float64
	for !ladder.Complete() {
		rates = append(rates, ladder.Current())
		ladder.Advance()
	}

	if len(rates) != k {
		t.Fatalf("got %d batches, want %d", len(rates), k)
	}
	for _, r := range rates {
		if r != 5000 {
			t.Errorf("rate = %v, want 5000 for every batch", r)
		}
	}
}

func TestRateLadderIncrementToEndThenMaxIterZero(t *testing.T) {
	increment := 5000.0
	ladder, err := NewRateLadder(RateLadderConfig{
		Start:             5000,
		End:               10000,
		RateIncrement:     &increment,
		StepRequests:      reqBudget(10),
		MaxRateIterations: 0,
	})
	if err != nil {
		t.Fatalf("NewRateLadder: %v", err)
	}

	var rates []float64
	for !ladder.Complete() {
		rates = append(rates, ladder.Current())
		ladder.Advance()
	}

	want := []float64{5000, 10000}
	if len(rates) != len(want) {
		t.Fatalf("got rates %v, want %v", rates, want)
	}
	for i, r := range rates {
		if r != want[i] {
			t.Errorf("rates[%d] = %v, want %v", i, r, want[i])
		}
	}
}

func TestRateLadderNoIncrementHundredIterations(t *testing.T) {
	ladder, err := NewRateLadder(RateLadderConfig{
		Start:             5000,
		End:               10000,
		StepRequests:      reqBudget(10),
		MaxRateIterations: 100,
	})
	if err != nil {
		t.Fatalf("NewRateLadder: %v", err)
	}

	count := 0
	for !ladder.Complete() {
		if ladder.Current() != 5000 {
			t.Errorf("batch %d rate = %v, want 5000", count, ladder.Current())
		}
		ladder.Advance()
		count++
	}

	if count != 100 {
		t.Fatalf("got %d batches, want 100", count)
	}
}

func TestNewRateLadderRejectsBothBudgets(t *testing.T) {
	d := time.Second
	_, err := NewRateLadder(RateLadderConfig{
		Start:             1,
		End:               1,
		StepDuration:      &d,
		StepRequests:      reqBudget(1),
		MaxRateIterations: 1,
	})
	if err == nil {
		t.Fatal("expected error when both StepDuration and StepRequests are set")
	}
}

func TestNewRateLadderRejectsNeitherBudget(t *testing.T) {
	_, err := NewRateLadder(RateLadderConfig{Start: 1, End: 1, MaxRateIterations: 1})
	if err == nil {
		t.Fatal("expected error when neither StepDuration nor StepRequests is set")
	}
}

func TestNewRateLadderRejectsStartAfterEnd(t *testing.T) {
	_, err := NewRateLadder(RateLadderConfig{Start: 2, End: 1, StepRequests: reqBudget(1), MaxRateIterations: 1})
	if err == nil {
		t.Fatal("expected error when Start > End")
	}
}
