package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/income-bracket-predictor/internal/bootstrap"
	"github.com/kirillkom/income-bracket-predictor/internal/config"
	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/observability/logging"
	"github.com/kirillkom/income-bracket-predictor/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	logging.Install(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		return err
	}
	defer worker.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
		return worker.Queue.SubscribePredictionRecorded(gctx, func(handlerCtx context.Context, prediction domain.Prediction) error {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(prediction.CreatedAt))
			workerMetrics.StartArchive()
			start := time.Now()

			archiveCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
			defer cancel()
			err := worker.Archiver.Archive(archiveCtx, prediction)
			workerMetrics.FinishArchive(serviceName, time.Since(start), err)
			return err
		})
	})
	return g.Wait()
}
