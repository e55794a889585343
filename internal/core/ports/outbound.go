package ports

import (
	"context"
	"io"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

// ArtifactStorage reads serialized model artifacts.
type ArtifactStorage interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Classifier maps an encoded feature vector in schema order to a label.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (domain.Label, error)
	Version() string
}

// PredictionRepository persists and reads prediction history.
type PredictionRepository interface {
	Save(ctx context.Context, prediction *domain.Prediction) error
	GetByID(ctx context.Context, id string) (*domain.Prediction, error)
}

// PredictionRecorder hands a finished prediction to history.
type PredictionRecorder interface {
	Record(ctx context.Context, prediction domain.Prediction) error
}

// MessageQueue publishes/consumes prediction events.
type MessageQueue interface {
	PublishPredictionRecorded(ctx context.Context, prediction domain.Prediction) error
	SubscribePredictionRecorded(ctx context.Context, handler func(context.Context, domain.Prediction) error) error
}

// PredictionCache memoizes labels of already classified vectors.
type PredictionCache interface {
	Get(ctx context.Context, key string) (domain.Label, bool, error)
	Set(ctx context.Context, key string, label domain.Label) error
}

// WorkbookReader extracts header-keyed data rows from a spreadsheet.
type WorkbookReader interface {
	ReadRows(ctx context.Context, body io.Reader, maxRows int) ([]domain.SheetRow, error)
}
