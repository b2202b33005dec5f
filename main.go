package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"perfgauge/bench"
	"perfgauge/config"
	"perfgauge/httpadapter"
	"perfgauge/reporter"
)

func main() {
	os.Exit(run())
}

// run builds the configuration, drives the bench session to
// completion, and returns the process exit code: 0 on any clean
// completion (including one halted early by the fatal-stop flag), 2
// on a configuration error.
func run() int {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		logger.WithError(err).Error("configuration error")
		return 2
	}

	adapter, err := httpadapter.NewAdapter(cfg.HTTP)
	if err != nil {
		logger.WithError(err).Error("configuration error")
		return 2
	}

	newSession := func() (*bench.RateLadder, *bench.BenchSession[*http.Client], error) {
		ladder, err := bench.NewRateLadder(bench.RateLadderConfig{
			Start:             cfg.Ladder.Start,
			End:               cfg.Ladder.End,
			RateIncrement:     cfg.Ladder.RateIncrement,
			StepDuration:      cfg.Ladder.StepDuration,
			StepRequests:      cfg.Ladder.StepRequests,
			MaxRateIterations: cfg.Ladder.MaxRateIterations,
		})
		if err != nil {
			return nil, nil, err
		}
		return ladder, bench.NewBenchSession[*http.Client](cfg.Concurrency, ladder, adapter, cfg.RequestTimeout), nil
	}

	reporters := []reporter.Reporter{reporter.NewConsoleReporter(cfg.Name, logger)}
	if cfg.Prometheus != "" {
		reporters = append(reporters, reporter.NewPushGatewayReporter(cfg.Prometheus, cfg.PrometheusJob, cfg.Name, logger))
	}
	pipeline := reporter.NewPipeline(reporters, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trapSignals(cancel, logger)

	fatalStop := bench.NewFatalStop()
	_, session, err := newSession()
	if err != nil {
		logger.WithError(err).Error("configuration error")
		return 2
	}

runLoop:
	for {
		batch, ok := session.Next()
		if !ok {
			if !cfg.Continuous || ctx.Err() != nil {
				break
			}
			fatalStop.Reset()
			_, session, err = newSession()
			if err != nil {
				logger.WithError(err).Error("configuration error")
				return 2
			}
			continue
		}

		logger.WithField("rate", batch.Rate).WithField("workers", len(batch.Workers)).Info("starting batch")
		metrics := batch.Run(ctx, fatalStop, logger)
		pipeline.Submit(metrics)

		switch {
		case ctx.Err() != nil:
			break runLoop
		case fatalStop.IsSet():
			logger.Warn("fatal-stop signalled; halting remaining ladder")
			if !cfg.Continuous {
				break runLoop
			}
		}
	}

	pipeline.Close()
	return 0
}

// trapSignals cancels ctx on SIGINT/SIGTERM so an interrupted run still
// flushes its in-flight batch's metrics through the reporter pipeline
// instead of being killed mid-write.
func trapSignals(cancel context.CancelFunc, logger logrus.FieldLogger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.WithField("at", time.Now().Format(time.RFC3339)).Info("received interrupt, winding down")
		cancel()
	}()
}
