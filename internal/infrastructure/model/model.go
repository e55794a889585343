// Package model evaluates exported classifier artifacts: tree ensembles and
// logistic regressions over the encoded record vector.
package model

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

type Kind string

const (
	KindTreeEnsemble Kind = "tree_ensemble"
	KindLogistic     Kind = "logistic"
)

type artifact struct {
	Version      string             `json:"version"`
	Kind         Kind               `json:"kind"`
	Classes      []string           `json:"classes"`
	Features     []string           `json:"features"`
	Trees        []treeArtifact     `json:"trees,omitempty"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
	Intercept    float64            `json:"intercept,omitempty"`
}

type treeArtifact struct {
	Nodes []nodeArtifact `json:"nodes"`
}

type nodeArtifact struct {
	Feature   string    `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

type scorer interface {
	probabilities(features []float64) []float64
}

// Model is an immutable, goroutine-safe classifier.
type Model struct {
	version string
	kind    Kind
	classes []domain.Label
	scorer  scorer
}

// Decode parses and validates a classifier artifact. Any disagreement with
// the record schema is domain.ErrSchema.
func Decode(r io.Reader) (*Model, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var doc artifact
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.WrapError(domain.ErrSchema, "decode model artifact", err)
	}

	if err := checkFeatures(doc.Features); err != nil {
		return nil, domain.WrapError(domain.ErrSchema, "decode model artifact", err)
	}
	classes, err := checkClasses(doc.Classes)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSchema, "decode model artifact", err)
	}

	var s scorer
	switch doc.Kind {
	case KindTreeEnsemble:
		s, err = newForest(doc.Trees, len(classes))
	case KindLogistic:
		s, err = newLogistic(doc.Coefficients, doc.Intercept)
	default:
		err = fmt.Errorf("unsupported model kind %q", doc.Kind)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrSchema, "decode model artifact", err)
	}

	version := doc.Version
	if version == "" {
		sum := sha256.Sum256(raw)
		version = "sha256-" + hex.EncodeToString(sum[:6])
	}

	return &Model{
		version: version,
		kind:    doc.Kind,
		classes: classes,
		scorer:  s,
	}, nil
}

func (m *Model) Version() string {
	return m.version
}

func (m *Model) Kind() Kind {
	return m.kind
}

func (m *Model) Classes() []domain.Label {
	return slices.Clone(m.classes)
}

// Probabilities returns the class distribution in Classes order.
func (m *Model) Probabilities(features []float64) ([]float64, error) {
	if want := len(domain.Schema()); len(features) != want {
		return nil, domain.WrapError(domain.ErrInference, "score", fmt.Errorf("expected %d features, got %d", want, len(features)))
	}
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, domain.WrapError(domain.ErrInference, "score", fmt.Errorf("feature %d is not finite", i))
		}
	}
	return m.scorer.probabilities(features), nil
}

func (m *Model) Classify(ctx context.Context, features []float64) (domain.Label, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	probs, err := m.Probabilities(features)
	if err != nil {
		return "", err
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return m.classes[best], nil
}

func checkFeatures(features []string) error {
	schema := domain.Schema()
	if len(features) != len(schema) {
		return fmt.Errorf("model expects %d features, record schema has %d", len(features), len(schema))
	}
	for i, col := range schema {
		if features[i] != string(col) {
			return fmt.Errorf("feature %d: model expects %q, record schema has %q", i, features[i], col)
		}
	}
	return nil
}

func checkClasses(classes []string) ([]domain.Label, error) {
	if len(classes) != 2 {
		return nil, fmt.Errorf("model must have exactly 2 classes, got %d", len(classes))
	}
	out := make([]domain.Label, 0, 2)
	for _, c := range classes {
		label := domain.Label(c)
		if !label.Valid() {
			return nil, fmt.Errorf("unexpected class %q", c)
		}
		if slices.Contains(out, label) {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		out = append(out, label)
	}
	return out, nil
}

func featureIndex(name string) (int, error) {
	idx, ok := domain.SchemaIndex(domain.Column(name))
	if !ok {
		return 0, fmt.Errorf("unknown feature %q", name)
	}
	return idx, nil
}
