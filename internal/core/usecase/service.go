package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
)

var _ ports.IncomePredictor = (*PredictionService)(nil)

type PredictionService struct {
	assembler *FeatureAssembler
	encoder   *CategoricalEncoder
	predictor *LabelPredictor

	cache    ports.PredictionCache
	recorder ports.PredictionRecorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type ServiceOption func(*PredictionService)

func WithCache(cache ports.PredictionCache) ServiceOption {
	return func(s *PredictionService) { s.cache = cache }
}

func WithRecorder(recorder ports.PredictionRecorder) ServiceOption {
	return func(s *PredictionService) { s.recorder = recorder }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *PredictionService) { s.logger = logger }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *PredictionService) { s.now = now }
}

func NewPredictionService(
	assembler *FeatureAssembler,
	encoder *CategoricalEncoder,
	predictor *LabelPredictor,
	opts ...ServiceOption,
) *PredictionService {
	s := &PredictionService{
		assembler: assembler,
		encoder:   encoder,
		predictor: predictor,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PredictionService) Assemble(in domain.UserInputs) (domain.Record, error) {
	return s.assembler.Assemble(in)
}

func (s *PredictionService) Encode(rec domain.Record) (domain.Record, error) {
	return s.encoder.Encode(rec)
}

func (s *PredictionService) Predict(ctx context.Context, encoded domain.Record) (domain.Label, error) {
	return s.predictor.Predict(ctx, encoded)
}

func (s *PredictionService) ModelVersion() string {
	return s.predictor.ModelVersion()
}

// Run executes assemble, encode and predict for one request. Cache and history
// failures are logged and never fail the prediction.
func (s *PredictionService) Run(ctx context.Context, in domain.UserInputs) (*domain.Prediction, error) {
	rec, err := s.assembler.Assemble(in)
	if err != nil {
		return nil, err
	}
	encoded, err := s.encoder.Encode(rec)
	if err != nil {
		return nil, err
	}

	label, cached, err := s.classify(ctx, encoded)
	if err != nil {
		return nil, err
	}

	prediction := domain.Prediction{
		ID:           s.newID(),
		Inputs:       in,
		Record:       rec,
		Label:        label,
		ModelVersion: s.predictor.ModelVersion(),
		Cached:       cached,
		CreatedAt:    s.now().UTC(),
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, prediction); err != nil {
			s.logger.Warn("prediction_record_failed", "prediction_id", prediction.ID, "error", err)
		}
	}
	return &prediction, nil
}

func (s *PredictionService) classify(ctx context.Context, encoded domain.Record) (domain.Label, bool, error) {
	if s.cache == nil {
		label, err := s.predictor.Predict(ctx, encoded)
		return label, false, err
	}

	key, err := CacheKey(s.predictor.ModelVersion(), encoded)
	if err != nil {
		return "", false, domain.WrapError(domain.ErrInference, "predict", err)
	}
	if label, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("prediction_cache_get_failed", "error", err)
	} else if ok && label.Valid() {
		return label, true, nil
	}

	label, err := s.predictor.Predict(ctx, encoded)
	if err != nil {
		return "", false, err
	}
	if err := s.cache.Set(ctx, key, label); err != nil {
		s.logger.Warn("prediction_cache_set_failed", "error", err)
	}
	return label, false, nil
}

// CacheKey derives a stable key from the model version and the encoded vector.
func CacheKey(modelVersion string, encoded domain.Record) (string, error) {
	features, err := encoded.Vector()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(modelVersion))
	h.Write([]byte{0})
	var buf [8]byte
	for _, f := range features {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	return fmt.Sprintf("prediction:%s:%s", modelVersion, hex.EncodeToString(h.Sum(nil))), nil
}
