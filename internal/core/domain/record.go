package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Column string

const (
	ColumnAge            Column = "age"
	ColumnWorkclass      Column = "workclass"
	ColumnFnlwgt         Column = "fnlwgt"
	ColumnEducation      Column = "education"
	ColumnEducationalNum Column = "educational-num"
	ColumnMaritalStatus  Column = "marital-status"
	ColumnOccupation     Column = "occupation"
	ColumnRelationship   Column = "relationship"
	ColumnRace           Column = "race"
	ColumnGender         Column = "gender"
	ColumnCapitalGain    Column = "capital-gain"
	ColumnCapitalLoss    Column = "capital-loss"
	ColumnHoursPerWeek   Column = "hours-per-week"
	ColumnNativeCountry  Column = "native-country"
)

// schema is the column order the classifier was trained on.
var schema = [...]Column{
	ColumnAge,
	ColumnWorkclass,
	ColumnFnlwgt,
	ColumnEducation,
	ColumnEducationalNum,
	ColumnMaritalStatus,
	ColumnOccupation,
	ColumnRelationship,
	ColumnRace,
	ColumnGender,
	ColumnCapitalGain,
	ColumnCapitalLoss,
	ColumnHoursPerWeek,
	ColumnNativeCountry,
}

// Schema returns a copy of the trained column order.
func Schema() []Column {
	out := make([]Column, len(schema))
	copy(out, schema[:])
	return out
}

func SchemaIndex(col Column) (int, bool) {
	for i, c := range schema {
		if c == col {
			return i, true
		}
	}
	return -1, false
}

// Value is a single record cell: either a number or a raw category string.
type Value struct {
	Number      float64
	Category    string
	categorical bool
}

func Numeric(v float64) Value {
	return Value{Number: v}
}

func Categorical(v string) Value {
	return Value{Category: v, categorical: true}
}

func (v Value) IsCategorical() bool {
	return v.categorical
}

func (v Value) String() string {
	if v.categorical {
		return v.Category
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.categorical {
		return json.Marshal(v.Category)
	}
	return json.Marshal(v.Number)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Categorical(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record value must be a string or a number: %w", err)
	}
	*v = Numeric(n)
	return nil
}

type Field struct {
	Column Column
	Value  Value
}

// Record is one ordered row of named values. The zero value is an empty record.
type Record struct {
	fields []Field
}

func NewRecord(fields ...Field) Record {
	out := make([]Field, len(fields))
	copy(out, fields)
	return Record{fields: out}
}

func (r Record) Len() int {
	return len(r.fields)
}

func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r Record) Get(col Column) (Value, bool) {
	for _, f := range r.fields {
		if f.Column == col {
			return f.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of the record with col set to v. Records without col are
// returned unchanged.
func (r Record) With(col Column, v Value) Record {
	out := r.Fields()
	for i := range out {
		if out[i].Column == col {
			out[i].Value = v
		}
	}
	return Record{fields: out}
}

// CheckShape reports, without an error kind, whether the record holds exactly
// the trained columns in trained order.
func (r Record) CheckShape() error {
	if len(r.fields) != len(schema) {
		return fmt.Errorf("expected %d columns, got %d", len(schema), len(r.fields))
	}
	for i, f := range r.fields {
		if f.Column != schema[i] {
			return fmt.Errorf("column %d: expected %q, got %q", i, schema[i], f.Column)
		}
	}
	return nil
}

func (r Record) ValidateSchema() error {
	return WrapError(ErrSchema, "validate record", r.CheckShape())
}

// Vector flattens a fully numeric record in column order.
func (r Record) Vector() ([]float64, error) {
	out := make([]float64, 0, len(r.fields))
	for _, f := range r.fields {
		if f.Value.IsCategorical() {
			return nil, fmt.Errorf("column %q is not encoded (value %q)", f.Column, f.Value.Category)
		}
		out = append(out, f.Value.Number)
	}
	return out, nil
}

// MarshalJSON writes the record as a JSON object preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(f.Column))
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string")
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		fields = append(fields, Field{Column: Column(key), Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.fields = fields
	return nil
}
