package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
)

type LabelPredictor struct {
	classifier ports.Classifier
}

func NewLabelPredictor(classifier ports.Classifier) *LabelPredictor {
	return &LabelPredictor{classifier: classifier}
}

func (p *LabelPredictor) ModelVersion() string {
	return p.classifier.Version()
}

// Predict classifies a fully encoded record. Structural problems with the
// record or the classifier output are ErrInference; nothing is retried.
func (p *LabelPredictor) Predict(ctx context.Context, encoded domain.Record) (domain.Label, error) {
	if err := encoded.CheckShape(); err != nil {
		return "", domain.WrapError(domain.ErrInference, "predict", err)
	}
	features, err := encoded.Vector()
	if err != nil {
		return "", domain.WrapError(domain.ErrInference, "predict", err)
	}

	label, err := p.classifier.Classify(ctx, features)
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrInference) {
			return "", err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrInference, "classify", err)
	}
	if !label.Valid() {
		return "", domain.WrapError(domain.ErrInference, "classify", fmt.Errorf("classifier returned unexpected label %q", label))
	}
	return label, nil
}
