package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

// logistic scores P(classes[1]) = sigmoid(w·x + b).
type logistic struct {
	weights   []float64
	intercept float64
}

func newLogistic(coefficients map[string]float64, intercept float64) (*logistic, error) {
	if len(coefficients) == 0 {
		return nil, errors.New("logistic model has no coefficients")
	}
	weights := make([]float64, len(domain.Schema()))
	for name, w := range coefficients {
		idx, err := featureIndex(name)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient for %q is not finite", name)
		}
		weights[idx] = w
	}
	return &logistic{weights: weights, intercept: intercept}, nil
}

func (l *logistic) probabilities(features []float64) []float64 {
	z := l.intercept
	for i, w := range l.weights {
		z += w * features[i]
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}
}
