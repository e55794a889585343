package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSONKeepsColumnOrderAndKinds(t *testing.T) {
	rec := NewRecord(
		Field{Column: ColumnAge, Value: Numeric(25)},
		Field{Column: ColumnWorkclass, Value: Categorical("Private")},
		Field{Column: ColumnFnlwgt, Value: Numeric(189664.13459727284)},
	)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"age":25,"workclass":"Private","fnlwgt":189664.13459727284}`, string(raw))

	var decoded Record
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestRecordWithLeavesOriginalUntouched(t *testing.T) {
	rec := NewRecord(Field{Column: ColumnGender, Value: Categorical("Male")})
	updated := rec.With(ColumnGender, Numeric(1))
	missing := rec.With(ColumnRace, Numeric(4))

	original, _ := rec.Get(ColumnGender)
	assert.Equal(t, Categorical("Male"), original)
	changed, _ := updated.Get(ColumnGender)
	assert.Equal(t, Numeric(1), changed)
	assert.Equal(t, rec, missing)
}

func TestValidateSchemaDetectsOrderMismatch(t *testing.T) {
	fields := make([]Field, 0, len(schema))
	for _, col := range Schema() {
		fields = append(fields, Field{Column: col, Value: Numeric(0)})
	}
	require.NoError(t, NewRecord(fields...).ValidateSchema())

	fields[0], fields[1] = fields[1], fields[0]
	err := NewRecord(fields...).ValidateSchema()
	assert.ErrorIs(t, err, ErrSchema)
}

func TestNewEncoderTableRejectsDuplicatesAndUnknownColumns(t *testing.T) {
	_, err := NewEncoderTable(map[Column][]string{ColumnGender: {"Male", "Male"}})
	assert.ErrorIs(t, err, ErrSchema)

	_, err = NewEncoderTable(map[Column][]string{"salary": {"a"}})
	assert.ErrorIs(t, err, ErrSchema)

	table, err := NewEncoderTable(map[Column][]string{
		ColumnNativeCountry: {"India", "United-States"},
		ColumnGender:        {"Female", "Male"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Column{ColumnGender, ColumnNativeCountry}, table.Columns())

	codes, ok := table.Lookup(ColumnNativeCountry)
	require.True(t, ok)
	class, ok := codes.Class(1)
	require.True(t, ok)
	assert.Equal(t, "United-States", class)
}

func TestUnknownCategoryErrorMatchesKind(t *testing.T) {
	err := WrapError(ErrInvalidInput, "batch row", &UnknownCategoryError{Column: ColumnRace, Value: "Martian"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	unknown, ok := AsUnknownCategory(err)
	require.True(t, ok)
	assert.Equal(t, ColumnRace, unknown.Column)
	assert.Contains(t, unknown.Error(), "Martian")
}

func TestCatalogValidateRequiresOptionsAndRanges(t *testing.T) {
	err := Catalog{}.Validate()
	assert.ErrorIs(t, err, ErrSchema)
}
