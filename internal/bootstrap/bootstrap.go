package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/kirillkom/income-bracket-predictor/internal/config"
	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
	"github.com/kirillkom/income-bracket-predictor/internal/core/usecase"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/artifact"
	rediscache "github.com/kirillkom/income-bracket-predictor/internal/infrastructure/cache/redis"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/catalog"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/model"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/resilience"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/spreadsheet/xlsx"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Catalog    domain.Catalog
	Encoders   *domain.EncoderTable
	Classifier *model.Guarded

	Predictor *usecase.PredictionService
	Batch     *usecase.BatchUseCase
	History   ports.PredictionReader

	closers []func()
}

// New loads the artifacts and wires the prediction chain. Redis, NATS and
// Postgres are attached only when configured.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{Config: cfg, History: usecase.DisabledHistory{}}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.Catalog, err = catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	storage, err := localfs.New(cfg.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact storage: %w", err)
	}
	app.Encoders, err = artifact.LoadEncoderTable(ctx, storage, cfg.EncodersFile)
	if err != nil {
		return nil, err
	}
	classifier, err := artifact.LoadClassifier(ctx, storage, cfg.ModelFile)
	if err != nil {
		return nil, err
	}
	app.Classifier = model.NewGuarded(classifier, resilience.NewExecutor(breakerConfig(cfg)))

	opts := []usecase.ServiceOption{usecase.WithLogger(logger)}

	if cfg.RedisAddr != "" {
		client, err := rediscache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("init prediction cache: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		opts = append(opts, usecase.WithCache(rediscache.New(client, cfg.CacheTTL)))
	}

	var repo *postgres.PredictionRepository
	if cfg.PostgresDSN != "" {
		db, err := openRepository(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		repo = postgres.NewPredictionRepository(db)
		app.History = repo
	}

	switch {
	case cfg.NATSURL != "":
		queue, err := newQueue(cfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, queue.Close)
		opts = append(opts, usecase.WithRecorder(usecase.NewQueueRecorder(queue)))
	case repo != nil:
		opts = append(opts, usecase.WithRecorder(usecase.NewArchivePredictionUseCase(repo)))
	}

	app.Predictor = usecase.NewPredictionService(
		usecase.NewFeatureAssembler(app.Catalog),
		usecase.NewCategoricalEncoder(app.Encoders),
		usecase.NewLabelPredictor(app.Classifier),
		opts...,
	)
	app.Batch = usecase.NewBatchUseCase(app.Predictor, xlsx.NewReader(), cfg.BatchMaxRows)

	logger.Info("predictor_ready",
		"model_version", app.Predictor.ModelVersion(),
		"artifact_dir", filepath.Clean(cfg.ArtifactDir),
		"cache", cfg.RedisAddr != "",
		"history", cfg.HistoryEnabled(),
	)
	return app, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Worker consumes prediction events and archives them in Postgres.
type Worker struct {
	Queue    ports.MessageQueue
	Archiver ports.PredictionArchiver

	closers []func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if cfg.NATSURL == "" || cfg.PostgresDSN == "" {
		return nil, errors.New("worker requires NATS_URL and POSTGRES_DSN")
	}

	db, err := openRepository(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	queue, err := newQueue(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Worker{
		Queue:    queue,
		Archiver: usecase.NewArchivePredictionUseCase(postgres.NewPredictionRepository(db)),
		closers:  []func(){func() { _ = db.Close() }, queue.Close},
	}, nil
}

func (w *Worker) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
	w.closers = nil
}

func openRepository(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := postgres.OpenDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.NewPredictionRepository(db).EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func newQueue(cfg config.Config) (*nats.Queue, error) {
	rc := breakerConfig(cfg)
	rc.RetryMaxAttempts = 3
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(rc),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}

func breakerConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.BreakerEnabled = cfg.BreakerEnabled
	rc.BreakerMinRequests = cfg.BreakerMinRequests
	rc.BreakerFailureRatio = cfg.BreakerFailureRatio
	rc.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	rc.BreakerHalfOpenMaxCalls = cfg.BreakerHalfOpenMaxCalls
	return rc
}
