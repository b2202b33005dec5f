package config

import (
	"net/http"
	"testing"
)

func TestParseArgsMinimalHTTPTarget(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--num_req", "100",
		"--rate", "10",
		"http", "http://example.com/1",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}

	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if got, want := *cfg.Ladder.StepRequests, 100; got != want {
		t.Errorf("StepRequests = %d, want %d", got, want)
	}
	if cfg.Ladder.Start != 10 {
		t.Errorf("Ladder.Start = %v, want 10", cfg.Ladder.Start)
	}
	if len(cfg.HTTP.URLs) != 1 || cfg.HTTP.URLs[0] != "http://example.com/1" {
		t.Errorf("HTTP.URLs = %v, want [http://example.com/1]", cfg.HTTP.URLs)
	}
	if cfg.HTTP.Method != http.MethodGet {
		t.Errorf("HTTP.Method = %q, want GET", cfg.HTTP.Method)
	}
}

func TestParseArgsRejectsMissingBudget(t *testing.T) {
	_, err := ParseArgs([]string{"http", "http://example.com"})
	if err == nil {
		t.Fatal("expected an error when neither --num_req nor --duration is set")
	}
}

func TestParseArgsRejectsBothBudgets(t *testing.T) {
	_, err := ParseArgs([]string{
		"--num_req", "10", "--duration", "1s",
		"http", "http://example.com",
	})
	if err == nil {
		t.Fatal("expected an error when both --num_req and --duration are set")
	}
}

func TestParseArgsRejectsRateStepWithoutRate(t *testing.T) {
	_, err := ParseArgs([]string{
		"--num_req", "10", "--rate_step", "5", "--rate_max", "50",
		"http", "http://example.com",
	})
	if err == nil {
		t.Fatal("expected an error when --rate_step/--rate_max are set without --rate")
	}
}

func TestParseArgsRejectsRateStepWithoutRateMax(t *testing.T) {
	_, err := ParseArgs([]string{
		"--num_req", "10", "--rate", "10", "--rate_step", "5",
		"http", "http://example.com",
	})
	if err == nil {
		t.Fatal("expected an error when --rate_step is set without --rate_max")
	}
}

func TestParseArgsMethodDefaultsToPostWithBody(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--num_req", "10",
		"http", "--body", "random://8", "http://example.com",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.HTTP.Method != http.MethodPost {
		t.Errorf("HTTP.Method = %q, want POST", cfg.HTTP.Method)
	}
	if len(cfg.HTTP.Body) != 8 {
		t.Errorf("len(HTTP.Body) = %d, want 8", len(cfg.HTTP.Body))
	}
}

func TestParseArgsHeadersAndErrorStop(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--num_req", "10",
		"http",
		"-H", "X-Test:value1:value2",
		"-E", "500", "-E", "502",
		"http://example.com",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got := cfg.HTTP.Headers["X-Test"]; len(got) != 1 || got[0] != "value1:value2" {
		t.Errorf("Headers[X-Test] = %v, want [value1:value2]", got)
	}
	if _, ok := cfg.HTTP.StopOnErrors[500]; !ok {
		t.Error("expected 500 in StopOnErrors")
	}
	if _, ok := cfg.HTTP.StopOnErrors[502]; !ok {
		t.Error("expected 502 in StopOnErrors")
	}
}
