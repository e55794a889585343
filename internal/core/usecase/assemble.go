package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

type FeatureAssembler struct {
	catalog domain.Catalog
}

func NewFeatureAssembler(catalog domain.Catalog) *FeatureAssembler {
	return &FeatureAssembler{catalog: catalog}
}

// Assemble merges user inputs with catalog defaults into a record in trained
// column order. Categorical values stay raw strings.
func (a *FeatureAssembler) Assemble(in domain.UserInputs) (domain.Record, error) {
	if err := a.validate(in); err != nil {
		return domain.Record{}, err
	}

	educationNum, ok := a.catalog.EducationNumber(in.Education)
	if !ok {
		return domain.Record{}, domain.WrapError(
			domain.ErrSchema,
			"assemble record",
			fmt.Errorf("no educational-num mapping for education %q", in.Education),
		)
	}

	defaults := a.catalog.Defaults
	rec := domain.NewRecord(
		domain.Field{Column: domain.ColumnAge, Value: domain.Numeric(float64(in.Age))},
		domain.Field{Column: domain.ColumnWorkclass, Value: domain.Categorical(in.Workclass)},
		domain.Field{Column: domain.ColumnFnlwgt, Value: domain.Numeric(defaults.Fnlwgt)},
		domain.Field{Column: domain.ColumnEducation, Value: domain.Categorical(in.Education)},
		domain.Field{Column: domain.ColumnEducationalNum, Value: domain.Numeric(float64(educationNum))},
		domain.Field{Column: domain.ColumnMaritalStatus, Value: domain.Categorical(in.MaritalStatus)},
		domain.Field{Column: domain.ColumnOccupation, Value: domain.Categorical(in.Occupation)},
		domain.Field{Column: domain.ColumnRelationship, Value: domain.Categorical(in.Relationship)},
		domain.Field{Column: domain.ColumnRace, Value: domain.Categorical(in.Race)},
		domain.Field{Column: domain.ColumnGender, Value: domain.Categorical(in.Gender)},
		domain.Field{Column: domain.ColumnCapitalGain, Value: domain.Numeric(defaults.CapitalGain)},
		domain.Field{Column: domain.ColumnCapitalLoss, Value: domain.Numeric(defaults.CapitalLoss)},
		domain.Field{Column: domain.ColumnHoursPerWeek, Value: domain.Numeric(float64(in.HoursPerWeek))},
		domain.Field{Column: domain.ColumnNativeCountry, Value: domain.Categorical(in.NativeCountry)},
	)
	if err := rec.ValidateSchema(); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

func (a *FeatureAssembler) validate(in domain.UserInputs) error {
	numeric := []struct {
		column domain.Column
		value  int
	}{
		{domain.ColumnAge, in.Age},
		{domain.ColumnHoursPerWeek, in.HoursPerWeek},
	}
	for _, n := range numeric {
		r := a.catalog.Ranges[n.column]
		if !r.Contains(n.value) {
			return domain.WrapError(
				domain.ErrInvalidInput,
				"assemble record",
				fmt.Errorf("%s must be between %d and %d, got %d", n.column, r.Min, r.Max, n.value),
			)
		}
	}

	for _, f := range in.Categories() {
		value := f.Value.Category
		if strings.TrimSpace(value) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "assemble record", fmt.Errorf("%s is required", f.Column))
		}
		if !a.catalog.Offers(f.Column, value) {
			return domain.WrapError(
				domain.ErrInvalidInput,
				"assemble record",
				fmt.Errorf("%s %q is not an offered option", f.Column, value),
			)
		}
	}
	return nil
}
