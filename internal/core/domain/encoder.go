package domain

import "fmt"

// CategoryCodes is the fitted vocabulary of one column. The code of a class is
// its position in the fitted class list.
type CategoryCodes struct {
	classes []string
	codes   map[string]int
}

func NewCategoryCodes(classes []string) (*CategoryCodes, error) {
	codes := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, dup := codes[class]; dup {
			return nil, fmt.Errorf("duplicate class %q", class)
		}
		codes[class] = i
	}
	out := make([]string, len(classes))
	copy(out, classes)
	return &CategoryCodes{classes: out, codes: codes}, nil
}

func (c *CategoryCodes) Code(value string) (int, bool) {
	code, ok := c.codes[value]
	return code, ok
}

func (c *CategoryCodes) Class(code int) (string, bool) {
	if code < 0 || code >= len(c.classes) {
		return "", false
	}
	return c.classes[code], true
}

func (c *CategoryCodes) Len() int {
	return len(c.classes)
}

// EncoderTable maps record columns to their fitted vocabularies. It is built
// once and never mutated.
type EncoderTable struct {
	columns map[Column]*CategoryCodes
}

func NewEncoderTable(columns map[Column][]string) (*EncoderTable, error) {
	table := &EncoderTable{columns: make(map[Column]*CategoryCodes, len(columns))}
	for col, classes := range columns {
		if _, ok := SchemaIndex(col); !ok {
			return nil, WrapError(ErrSchema, "build encoder table", fmt.Errorf("column %q is not part of the record schema", col))
		}
		codes, err := NewCategoryCodes(classes)
		if err != nil {
			return nil, WrapError(ErrSchema, "build encoder table", fmt.Errorf("column %q: %w", col, err))
		}
		table.columns[col] = codes
	}
	return table, nil
}

func (t *EncoderTable) Lookup(col Column) (*CategoryCodes, bool) {
	codes, ok := t.columns[col]
	return codes, ok
}

// Columns lists encoded columns in schema order.
func (t *EncoderTable) Columns() []Column {
	out := make([]Column, 0, len(t.columns))
	for _, col := range schema {
		if _, ok := t.columns[col]; ok {
			out = append(out, col)
		}
	}
	return out
}
