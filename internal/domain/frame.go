package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotNumeric    = errors.New("column is not numeric")
)

type Column struct {
	Name   string
	Values []any
}

// Frame is a columnar, ordered view over one table. Every column has the
// same number of values.
type Frame struct {
	Name    string
	Columns []Column
}

func (f Frame) Len() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

func (f Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		names = append(names, c.Name)
	}
	return names
}

func (f Frame) Column(name string) (Column, error) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, fmt.Errorf("%w %q in %s", ErrUnknownColumn, name, f.Name)
}

// Labels returns the column's values formatted as category labels.
func (f Frame) Labels(name string) ([]string, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(col.Values))
	for _, v := range col.Values {
		out = append(out, formatCell(v))
	}
	return out, nil
}

func (f Frame) Numbers(name string) ([]float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		switch x := v.(type) {
		case int:
			out = append(out, float64(x))
		case float64:
			out = append(out, x)
		default:
			return nil, fmt.Errorf("%w: %q in %s holds %T", ErrNotNumeric, name, f.Name, v)
		}
	}
	return out, nil
}

// MarshalJSON encodes the frame as {column: {rowIndex: value}} with the
// column order preserved.
func (f Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range f.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		for j, v := range col.Values {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`"` + strconv.Itoa(j) + `":`)
			val, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding %s[%d]: %w", col.Name, j, err)
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
