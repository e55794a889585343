package model

import (
	"context"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/resilience"
)

const classifyOperation = "classifier.classify"

// Guarded puts a classifier behind a circuit breaker. Failed calls are
// surfaced as-is and never repeated; an open breaker is domain.ErrTemporary.
type Guarded struct {
	inner    ports.Classifier
	executor *resilience.Executor
}

func NewGuarded(inner ports.Classifier, executor *resilience.Executor) *Guarded {
	return &Guarded{inner: inner, executor: executor}
}

func (g *Guarded) Version() string {
	return g.inner.Version()
}

func (g *Guarded) BreakerState() string {
	return g.executor.State(classifyOperation)
}

func (g *Guarded) Classify(ctx context.Context, features []float64) (domain.Label, error) {
	label, err := resilience.Call(ctx, g.executor, classifyOperation, resilience.NoRetry, func(ctx context.Context) (domain.Label, error) {
		return g.inner.Classify(ctx, features)
	})
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return "", domain.WrapError(domain.ErrTemporary, "classify", err)
		}
		return "", err
	}
	return label, nil
}
