// Package artifact loads the fitted encoder table and classifier from an
// artifact store.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/model"
)

type encodersDocument struct {
	Columns map[string][]string `yaml:"columns"`
}

func LoadEncoderTable(ctx context.Context, storage ports.ArtifactStorage, key string) (*domain.EncoderTable, error) {
	rc, err := storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open encoders %q: %w", key, err)
	}
	defer rc.Close()
	return DecodeEncoderTable(rc)
}

// DecodeEncoderTable parses the `columns: {name: [classes...]}` document.
func DecodeEncoderTable(r io.Reader) (*domain.EncoderTable, error) {
	var doc encodersDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return nil, domain.WrapError(domain.ErrSchema, "decode encoders", err)
	}
	if len(doc.Columns) == 0 {
		return nil, domain.WrapError(domain.ErrSchema, "decode encoders", errors.New("no columns"))
	}

	classes := make(map[domain.Column][]string, len(doc.Columns))
	for name, values := range doc.Columns {
		classes[domain.Column(name)] = values
	}
	return domain.NewEncoderTable(classes)
}

func LoadClassifier(ctx context.Context, storage ports.ArtifactStorage, key string) (*model.Model, error) {
	rc, err := storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open model %q: %w", key, err)
	}
	defer rc.Close()
	return model.Decode(rc)
}
