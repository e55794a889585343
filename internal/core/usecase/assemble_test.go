package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

func TestAssembleScenarioRecord(t *testing.T) {
	rec, err := NewFeatureAssembler(testCatalog()).Assemble(scenarioInputs())
	require.NoError(t, err)
	require.NoError(t, rec.ValidateSchema())

	cols := make([]domain.Column, 0, rec.Len())
	for _, f := range rec.Fields() {
		cols = append(cols, f.Column)
	}
	assert.Equal(t, domain.Schema(), cols)

	expectNumber := map[domain.Column]float64{
		domain.ColumnAge:            25,
		domain.ColumnFnlwgt:         189664.13459727284,
		domain.ColumnEducationalNum: 13,
		domain.ColumnCapitalGain:    0,
		domain.ColumnCapitalLoss:    0,
		domain.ColumnHoursPerWeek:   40,
	}
	for col, want := range expectNumber {
		v, ok := rec.Get(col)
		require.True(t, ok, col)
		assert.False(t, v.IsCategorical(), col)
		assert.Equal(t, want, v.Number, col)
	}

	v, _ := rec.Get(domain.ColumnNativeCountry)
	assert.True(t, v.IsCategorical())
	assert.Equal(t, "United-States", v.Category)
}

func TestAssembleDerivesEducationalNumForEveryOption(t *testing.T) {
	catalog := testCatalog()
	assembler := NewFeatureAssembler(catalog)

	for _, education := range catalog.Options[domain.ColumnEducation] {
		in := scenarioInputs()
		in.Education = education

		rec, err := assembler.Assemble(in)
		require.NoError(t, err, education)
		require.Equal(t, len(domain.Schema()), rec.Len())

		v, ok := rec.Get(domain.ColumnEducationalNum)
		require.True(t, ok)
		assert.Equal(t, float64(catalog.EducationNum[education]), v.Number, education)
	}

	in := scenarioInputs()
	in.Education = "Masters"
	rec, err := assembler.Assemble(in)
	require.NoError(t, err)
	v, _ := rec.Get(domain.ColumnEducationalNum)
	assert.Equal(t, float64(14), v.Number)
}

func TestAssembleAcceptsEveryOfferedCategory(t *testing.T) {
	catalog := testCatalog()
	assembler := NewFeatureAssembler(catalog)

	setters := map[domain.Column]func(*domain.UserInputs, string){
		domain.ColumnWorkclass:     func(in *domain.UserInputs, v string) { in.Workclass = v },
		domain.ColumnMaritalStatus: func(in *domain.UserInputs, v string) { in.MaritalStatus = v },
		domain.ColumnOccupation:    func(in *domain.UserInputs, v string) { in.Occupation = v },
		domain.ColumnRelationship:  func(in *domain.UserInputs, v string) { in.Relationship = v },
		domain.ColumnRace:          func(in *domain.UserInputs, v string) { in.Race = v },
		domain.ColumnGender:        func(in *domain.UserInputs, v string) { in.Gender = v },
		domain.ColumnNativeCountry: func(in *domain.UserInputs, v string) { in.NativeCountry = v },
	}
	for col, set := range setters {
		for _, option := range catalog.Options[col] {
			in := scenarioInputs()
			set(&in, option)
			rec, err := assembler.Assemble(in)
			require.NoError(t, err, "%s=%s", col, option)
			assert.NoError(t, rec.ValidateSchema())
		}
	}
}

func TestAssembleRejectsOutOfRangeNumbers(t *testing.T) {
	assembler := NewFeatureAssembler(testCatalog())

	for _, tc := range []struct {
		name  string
		apply func(*domain.UserInputs)
	}{
		{"age too low", func(in *domain.UserInputs) { in.Age = 16 }},
		{"age too high", func(in *domain.UserInputs) { in.Age = 71 }},
		{"hours zero", func(in *domain.UserInputs) { in.HoursPerWeek = 0 }},
		{"hours too high", func(in *domain.UserInputs) { in.HoursPerWeek = 81 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := scenarioInputs()
			tc.apply(&in)
			_, err := assembler.Assemble(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAssembleRejectsCategoryOutsideCatalog(t *testing.T) {
	in := scenarioInputs()
	in.Occupation = "Astronaut"

	_, err := NewFeatureAssembler(testCatalog()).Assemble(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "occupation")
}

func TestAssembleFailsLoudlyWithoutEducationMapping(t *testing.T) {
	catalog := testCatalog()
	catalog.Options[domain.ColumnEducation] = append(catalog.Options[domain.ColumnEducation], "Preschool")

	in := scenarioInputs()
	in.Education = "Preschool"

	_, err := NewFeatureAssembler(catalog).Assemble(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}
