// Package catalog loads the attribute catalog: the choices offered for each
// user-facing column, numeric ranges, literal defaults and the education
// number map.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

//go:embed catalog.yaml
var embedded []byte

type document struct {
	Options      map[string][]string `yaml:"options"`
	Ranges       map[string]rangeDoc `yaml:"ranges"`
	Defaults     defaultsDoc         `yaml:"defaults"`
	EducationNum map[string]int      `yaml:"education-num"`
}

type rangeDoc struct {
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
	Default int `yaml:"default"`
}

type defaultsDoc struct {
	Fnlwgt      float64 `yaml:"fnlwgt"`
	CapitalGain float64 `yaml:"capital-gain"`
	CapitalLoss float64 `yaml:"capital-loss"`
}

// Default returns the catalog compiled into the binary.
func Default() (domain.Catalog, error) {
	return Decode(bytes.NewReader(embedded))
}

// Load reads path when set and falls back to the embedded catalog otherwise.
func Load(path string) (domain.Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

func LoadFile(path string) (domain.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (domain.Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return domain.Catalog{}, domain.WrapError(domain.ErrSchema, "decode catalog", err)
	}

	out := domain.Catalog{
		Options: make(map[domain.Column][]string, len(doc.Options)),
		Ranges:  make(map[domain.Column]domain.IntRange, len(doc.Ranges)),
		Defaults: domain.Defaults{
			Fnlwgt:      doc.Defaults.Fnlwgt,
			CapitalGain: doc.Defaults.CapitalGain,
			CapitalLoss: doc.Defaults.CapitalLoss,
		},
		EducationNum: doc.EducationNum,
	}
	for name, values := range doc.Options {
		col := domain.Column(name)
		if _, ok := domain.SchemaIndex(col); !ok {
			return domain.Catalog{}, domain.WrapError(domain.ErrSchema, "decode catalog", fmt.Errorf("unknown column %q", name))
		}
		out.Options[col] = values
	}
	for name, r := range doc.Ranges {
		col := domain.Column(name)
		if _, ok := domain.SchemaIndex(col); !ok {
			return domain.Catalog{}, domain.WrapError(domain.ErrSchema, "decode catalog", fmt.Errorf("unknown column %q", name))
		}
		out.Ranges[col] = domain.IntRange{Min: r.Min, Max: r.Max, Default: r.Default}
	}

	if err := out.Validate(); err != nil {
		return domain.Catalog{}, err
	}
	return out, nil
}
