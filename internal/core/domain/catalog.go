package domain

import (
	"fmt"
	"slices"
)

// UserInputs are the attributes collected from the caller. Everything else in
// a Record is a literal default or derived.
type UserInputs struct {
	Age           int    `json:"age"`
	Workclass     string `json:"workclass"`
	Education     string `json:"education"`
	MaritalStatus string `json:"marital_status"`
	Occupation    string `json:"occupation"`
	Relationship  string `json:"relationship"`
	Race          string `json:"race"`
	Gender        string `json:"gender"`
	HoursPerWeek  int    `json:"hours_per_week"`
	NativeCountry string `json:"native_country"`
}

// Categories returns the categorical user inputs keyed by record column.
func (in UserInputs) Categories() []Field {
	return []Field{
		{Column: ColumnWorkclass, Value: Categorical(in.Workclass)},
		{Column: ColumnEducation, Value: Categorical(in.Education)},
		{Column: ColumnMaritalStatus, Value: Categorical(in.MaritalStatus)},
		{Column: ColumnOccupation, Value: Categorical(in.Occupation)},
		{Column: ColumnRelationship, Value: Categorical(in.Relationship)},
		{Column: ColumnRace, Value: Categorical(in.Race)},
		{Column: ColumnGender, Value: Categorical(in.Gender)},
		{Column: ColumnNativeCountry, Value: Categorical(in.NativeCountry)},
	}
}

// IntRange bounds a numeric input; Default is what a form starts from.
type IntRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default,omitempty"`
}

func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Defaults are the literal values used for columns the caller never supplies.
type Defaults struct {
	Fnlwgt      float64 `json:"fnlwgt"`
	CapitalGain float64 `json:"capital_gain"`
	CapitalLoss float64 `json:"capital_loss"`
}

// Catalog is the static lookup data the assembler works from: offered
// categories, numeric ranges, literal defaults and the education number map.
type Catalog struct {
	Options      map[Column][]string `json:"options"`
	Ranges       map[Column]IntRange `json:"ranges"`
	Defaults     Defaults            `json:"defaults"`
	EducationNum map[string]int      `json:"education_num"`
}

var (
	categoricalInputs = []Column{
		ColumnWorkclass,
		ColumnEducation,
		ColumnMaritalStatus,
		ColumnOccupation,
		ColumnRelationship,
		ColumnRace,
		ColumnGender,
		ColumnNativeCountry,
	}
	numericInputs = []Column{ColumnAge, ColumnHoursPerWeek}
)

// Validate checks that every user-facing column has options or a range.
func (c Catalog) Validate() error {
	for _, col := range categoricalInputs {
		if len(c.Options[col]) == 0 {
			return WrapError(ErrSchema, "validate catalog", fmt.Errorf("no options for column %q", col))
		}
	}
	for _, col := range numericInputs {
		r, ok := c.Ranges[col]
		if !ok || r.Min > r.Max {
			return WrapError(ErrSchema, "validate catalog", fmt.Errorf("invalid range for column %q", col))
		}
	}
	return nil
}

func (c Catalog) Offers(col Column, value string) bool {
	return slices.Contains(c.Options[col], value)
}

func (c Catalog) EducationNumber(education string) (int, bool) {
	n, ok := c.EducationNum[education]
	return n, ok
}
