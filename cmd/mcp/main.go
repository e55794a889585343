package main

import (
	"context"
	"os"

	mcpadapter "github.com/kirillkom/income-bracket-predictor/internal/adapters/mcp"
	"github.com/kirillkom/income-bracket-predictor/internal/bootstrap"
	"github.com/kirillkom/income-bracket-predictor/internal/config"
	"github.com/kirillkom/income-bracket-predictor/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	// stdout carries the protocol; logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	logging.Install(logger)
	if err != nil {
		logger.Error("config_error", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.Predictor, app.Catalog, app.Predictor.ModelVersion())
	if err := srv.ServeStdio(); err != nil {
		logger.Error("mcp_server_error", "error", err)
		app.Close()
		os.Exit(1)
	}
}
