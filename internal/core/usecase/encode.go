package usecase

import "github.com/kirillkom/income-bracket-predictor/internal/core/domain"

type CategoricalEncoder struct {
	table *domain.EncoderTable
}

func NewCategoricalEncoder(table *domain.EncoderTable) *CategoricalEncoder {
	return &CategoricalEncoder{table: table}
}

// Encode replaces every categorical value of a column known to the encoder
// table with its fitted code. Other columns, and values that are already
// numeric, pass through unchanged.
func (e *CategoricalEncoder) Encode(rec domain.Record) (domain.Record, error) {
	if err := rec.ValidateSchema(); err != nil {
		return domain.Record{}, err
	}

	out := rec
	for _, f := range rec.Fields() {
		if !f.Value.IsCategorical() {
			continue
		}
		codes, ok := e.table.Lookup(f.Column)
		if !ok {
			continue
		}
		code, ok := codes.Code(f.Value.Category)
		if !ok {
			return domain.Record{}, &domain.UnknownCategoryError{Column: f.Column, Value: f.Value.Category}
		}
		out = out.With(f.Column, domain.Numeric(float64(code)))
	}
	return out, nil
}
