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

	httpadapter "github.com/kirillkom/income-bracket-predictor/internal/adapters/http"
	"github.com/kirillkom/income-bracket-predictor/internal/bootstrap"
	"github.com/kirillkom/income-bracket-predictor/internal/config"
	"github.com/kirillkom/income-bracket-predictor/internal/observability/logging"
	"github.com/kirillkom/income-bracket-predictor/internal/observability/metrics"
)

const serviceName = "api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	logging.Install(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := httpadapter.LoadOpenAPI(ctx); err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	httpMetrics.RegisterBreakerState(serviceName, app.Classifier.BreakerState)

	router := httpadapter.NewRouter(cfg, app.Predictor, app.Batch, app.History, app.Catalog,
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithBreakerState(app.Classifier.BreakerState),
		httpadapter.WithEncodedColumns(app.Encoders.Columns()),
	)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
