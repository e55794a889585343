package ports

import (
	"context"
	"io"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

// IncomePredictor is the inbound contract exposed to presentation boundaries:
// the three chain steps plus the orchestrated run.
type IncomePredictor interface {
	Assemble(in domain.UserInputs) (domain.Record, error)
	Encode(rec domain.Record) (domain.Record, error)
	Predict(ctx context.Context, encoded domain.Record) (domain.Label, error)
	Run(ctx context.Context, in domain.UserInputs) (*domain.Prediction, error)
	ModelVersion() string
}

// BatchPredictor runs the chain for every row of an uploaded workbook.
type BatchPredictor interface {
	PredictWorkbook(ctx context.Context, body io.Reader) (*domain.BatchResult, error)
}

// PredictionReader is the read model for recorded predictions.
type PredictionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Prediction, error)
}

// PredictionArchiver persists predictions delivered by the event stream.
type PredictionArchiver interface {
	Archive(ctx context.Context, prediction domain.Prediction) error
}
