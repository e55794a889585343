package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

func testCatalog() domain.Catalog {
	return domain.Catalog{
		Options: map[domain.Column][]string{
			domain.ColumnWorkclass:     {"Private", "Self-emp-not-inc", "Local-gov", "Others", "State-gov", "Self-emp-inc", "Federal-gov"},
			domain.ColumnEducation:     {"Bachelors", "Masters", "Prof-school", "HS-grad", "Some-college", "Assoc-acdm", "Assoc-voc", "Doctorate"},
			domain.ColumnMaritalStatus: {"Married-civ-spouse", "Never-married", "Divorced", "Separated", "Widowed", "Married-spouse-absent", "Married-AF-spouse"},
			domain.ColumnOccupation: {
				"Tech-support", "Craft-repair", "Other-service", "Sales", "Exec-managerial", "Prof-specialty", "Handlers-cleaners",
				"Machine-op-inspct", "Adm-clerical", "Farming-fishing", "Transport-moving", "Priv-house-serv", "Protective-serv", "Armed-Forces",
			},
			domain.ColumnRelationship:  {"Husband", "Not-in-family", "Own-child", "Unmarried", "Wife", "Other-relative"},
			domain.ColumnRace:          {"White", "Black", "Asian-Pac-Islander", "Amer-Indian-Eskimo", "Other"},
			domain.ColumnGender:        {"Male", "Female"},
			domain.ColumnNativeCountry: {"United-States", "India", "Mexico", "Germany", "Not-Listed"},
		},
		Ranges: map[domain.Column]domain.IntRange{
			domain.ColumnAge:          {Min: 17, Max: 70},
			domain.ColumnHoursPerWeek: {Min: 1, Max: 80},
		},
		Defaults: domain.Defaults{Fnlwgt: 189664.13459727284},
		EducationNum: map[string]int{
			"HS-grad":      9,
			"Some-college": 10,
			"Assoc-acdm":   11,
			"Assoc-voc":    12,
			"Bachelors":    13,
			"Masters":      14,
			"Prof-school":  15,
			"Doctorate":    16,
		},
	}
}

func testEncoderTable(t *testing.T) *domain.EncoderTable {
	t.Helper()
	table, err := domain.NewEncoderTable(map[domain.Column][]string{
		domain.ColumnWorkclass:     {"Federal-gov", "Local-gov", "Others", "Private", "Self-emp-inc", "Self-emp-not-inc", "State-gov"},
		domain.ColumnEducation:     {"Assoc-acdm", "Assoc-voc", "Bachelors", "Doctorate", "HS-grad", "Masters", "Prof-school", "Some-college"},
		domain.ColumnMaritalStatus: {"Divorced", "Married-AF-spouse", "Married-civ-spouse", "Married-spouse-absent", "Never-married", "Separated", "Widowed"},
		domain.ColumnOccupation: {
			"Adm-clerical", "Armed-Forces", "Craft-repair", "Exec-managerial", "Farming-fishing", "Handlers-cleaners", "Machine-op-inspct",
			"Other-service", "Others", "Priv-house-serv", "Prof-specialty", "Protective-serv", "Sales", "Tech-support", "Transport-moving",
		},
		domain.ColumnRelationship:  {"Husband", "Not-in-family", "Other-relative", "Own-child", "Unmarried", "Wife"},
		domain.ColumnRace:          {"Amer-Indian-Eskimo", "Asian-Pac-Islander", "Black", "Other", "White"},
		domain.ColumnGender:        {"Female", "Male"},
		domain.ColumnNativeCountry: {"Germany", "India", "Mexico", "United-States"},
	})
	require.NoError(t, err)
	return table
}

func scenarioInputs() domain.UserInputs {
	return domain.UserInputs{
		Age:           25,
		Workclass:     "Private",
		Education:     "Bachelors",
		MaritalStatus: "Never-married",
		Occupation:    "Tech-support",
		Relationship:  "Not-in-family",
		Race:          "White",
		Gender:        "Male",
		HoursPerWeek:  40,
		NativeCountry: "United-States",
	}
}

// classifierFake labels by educational-num so results depend on the input.
type classifierFake struct {
	mu       sync.Mutex
	calls    int
	features []float64
	label    domain.Label
	err      error
}

func (f *classifierFake) Classify(_ context.Context, features []float64) (domain.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.features = append([]float64(nil), features...)
	if f.err != nil {
		return "", f.err
	}
	if f.label != "" {
		return f.label, nil
	}
	if features[4] >= 14 {
		return domain.LabelAbove, nil
	}
	return domain.LabelAtOrBelow, nil
}

func (f *classifierFake) Version() string { return "test-v1" }

func newTestService(t *testing.T, classifier *classifierFake, opts ...ServiceOption) *PredictionService {
	t.Helper()
	return NewPredictionService(
		NewFeatureAssembler(testCatalog()),
		NewCategoricalEncoder(testEncoderTable(t)),
		NewLabelPredictor(classifier),
		opts...,
	)
}
