package dataset

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// Order is the traversal order of a Frame's Values.
type Order int

const (
	// RowMajor visits every column of row 0, then row 1, and so on.
	RowMajor Order = iota
	// ColumnMajor visits every row of column 0, then column 1, and so on.
	ColumnMajor
)

func (o Order) String() string {
	if o == ColumnMajor {
		return "column-major"
	}
	return "row-major"
}

// Value is one scalar visited by Values.
type Value struct {
	Type  ColumnType
	Null  bool
	Float float64
	Text  string
}

// Frame is the read-only view consumers need from a table: its shape, its
// column names in order, and its scalars in a documented order.
type Frame interface {
	NumRows() int
	NumCols() int
	Names() []string
	Order() Order
	Values() iter.Seq[Value]
}

// Table is an immutable record table. Columns are Arrow arrays, so the
// natural traversal order is ColumnMajor.
type Table struct {
	schema  Schema
	columns []arrow.Array
	nrows   int
}

var _ Frame = (*Table)(nil)

// NewTable builds a table from one array per schema field. NewTable retains
// the arrays; callers keep ownership of their own references.
func NewTable(schema Schema, columns []arrow.Array) (*Table, error) {
	t, err := newTable(schema, columns)
	if err != nil {
		return nil, err
	}
	for _, c := range columns {
		c.Retain()
	}
	return t, nil
}

// newTable takes ownership of columns without retaining them.
func newTable(schema Schema, columns []arrow.Array) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(columns) != len(schema) {
		return nil, errors.NewDimensionError("dataset.NewTable", len(schema), len(columns), 1)
	}
	nrows := 0
	for i, col := range columns {
		if !arrow.TypeEqual(col.DataType(), schema[i].Type.arrowType()) {
			return nil, errors.NewTypeMismatchError("dataset.NewTable", schema[i].Name, schema[i].Type.String(), col.DataType().String())
		}
		if i == 0 {
			nrows = col.Len()
		} else if col.Len() != nrows {
			return nil, errors.NewDimensionError("dataset.NewTable", nrows, col.Len(), 0)
		}
	}
	return &Table{schema: append(Schema(nil), schema...), columns: columns, nrows: nrows}, nil
}

// FromRows builds a table from Go values. A cell is nil (null), a float64
// or int for Float64 columns, or a string for Text columns.
func FromRows(schema Schema, rows [][]any) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	builders := make([]*columnBuilder, len(schema))
	for i, f := range schema {
		builders[i] = newColumnBuilder(memory.DefaultAllocator, f.Type, len(rows))
	}
	release := func() {
		for _, b := range builders {
			b.release()
		}
	}

	for r, row := range rows {
		if len(row) != len(schema) {
			release()
			return nil, errors.NewDimensionError(fmt.Sprintf("dataset.FromRows: row %d", r), len(schema), len(row), 1)
		}
		for c, cell := range row {
			if err := builders[c].appendAny(schema[c].Name, cell); err != nil {
				release()
				return nil, err
			}
		}
	}

	columns := make([]arrow.Array, len(builders))
	for i, b := range builders {
		columns[i] = b.finish()
	}
	return newTable(schema, columns)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Schema returns a copy of the table's schema.
func (t *Table) Schema() Schema { return append(Schema(nil), t.schema...) }

// Names returns the column names in order.
func (t *Table) Names() []string { return t.schema.Names() }

// Order reports ColumnMajor.
func (t *Table) Order() Order { return ColumnMajor }

// Column returns the Arrow array at position i. The table keeps ownership.
func (t *Table) Column(i int) arrow.Array { return t.columns[i] }

// ColumnIndex returns the position of name.
func (t *Table) ColumnIndex(name string) (int, error) {
	if i := t.schema.Index(name); i >= 0 {
		return i, nil
	}
	return -1, errors.NewColumnNotFoundError("dataset.ColumnIndex", name, t.Names())
}

// IsNull reports whether the cell at (r, c) is null.
func (t *Table) IsNull(r, c int) bool { return t.columns[c].IsNull(r) }

// Float returns the cell at (r, c) and whether it holds a float.
func (t *Table) Float(r, c int) (float64, bool) {
	v := t.At(r, c)
	return v.Float, !v.Null && v.Type == Float64
}

// Text returns the cell at (r, c) and whether it holds a string.
func (t *Table) Text(r, c int) (string, bool) {
	v := t.At(r, c)
	return v.Text, !v.Null && v.Type == Text
}

// At returns the cell at (r, c).
func (t *Table) At(r, c int) Value {
	v := Value{Type: t.schema[c].Type}
	col := t.columns[c]
	if col.IsNull(r) {
		v.Null = true
		return v
	}
	switch a := col.(type) {
	case *array.Float64:
		v.Float = a.Value(r)
	case *array.String:
		v.Text = a.Value(r)
	}
	return v
}

// Values yields every cell in ColumnMajor order.
func (t *Table) Values() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for c := range t.columns {
			for r := 0; r < t.nrows; r++ {
				if !yield(t.At(r, c)) {
					return
				}
			}
		}
	}
}

// Strings returns a Text column with nil for null cells.
func (t *Table) Strings(name string) ([]*string, error) {
	c := t.schema.Index(name)
	if c < 0 {
		return nil, errors.NewColumnNotFoundError("dataset.Strings", name, t.Names())
	}
	if t.schema[c].Type != Text {
		return nil, errors.NewTypeMismatchError("dataset.Strings", name, Text.String(), t.schema[c].Type.String())
	}
	out := make([]*string, t.nrows)
	for r := range out {
		if s, ok := t.Text(r, c); ok {
			out[r] = &s
		}
	}
	return out, nil
}

// Records returns the header followed by every row as strings. Null cells
// are rendered as "NA", the marker used by the source CSV.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.nrows+1)
	records = append(records, t.Names())
	for r := 0; r < t.nrows; r++ {
		row := make([]string, len(t.columns))
		for c := range t.columns {
			v := t.At(r, c)
			switch {
			case v.Null:
				row[c] = "NA"
			case v.Type == Float64:
				row[c] = strconv.FormatFloat(v.Float, 'f', -1, 64)
			default:
				row[c] = v.Text
			}
		}
		records = append(records, row)
	}
	return records
}

// String renders the table the way a dataframe prints: shape, typed
// header and the first rows.
func (t *Table) String() string {
	types := make(map[string]series.Type, len(t.schema))
	for _, f := range t.schema {
		if f.Type == Float64 {
			types[f.Name] = series.Float
		} else {
			types[f.Name] = series.String
		}
	}
	df := dataframe.LoadRecords(t.Records(),
		dataframe.DetectTypes(false),
		dataframe.WithTypes(types),
		dataframe.NaNValues([]string{"NA"}),
	)
	if df.Err != nil {
		return fmt.Sprintf("[%dx%d] Table %v", t.nrows, len(t.columns), t.Names())
	}
	return df.String()
}

// Release drops the table's references to its arrays.
func (t *Table) Release() {
	for i, c := range t.columns {
		if c != nil {
			c.Release()
			t.columns[i] = nil
		}
	}
}

// columnBuilder appends typed cells to one Arrow builder.
type columnBuilder struct {
	typ ColumnType
	b   array.Builder
}

func newColumnBuilder(mem memory.Allocator, typ ColumnType, capacity int) *columnBuilder {
	b := array.NewBuilder(mem, typ.arrowType())
	b.Reserve(capacity)
	return &columnBuilder{typ: typ, b: b}
}

func (cb *columnBuilder) appendNull() { cb.b.AppendNull() }

func (cb *columnBuilder) appendFloat(v float64) { cb.b.(*array.Float64Builder).Append(v) }

func (cb *columnBuilder) appendText(s string) { cb.b.(*array.StringBuilder).Append(s) }

// appendFrom copies cell i of src, which must have the builder's type.
func (cb *columnBuilder) appendFrom(src arrow.Array, i int) {
	if src.IsNull(i) {
		cb.appendNull()
		return
	}
	switch a := src.(type) {
	case *array.Float64:
		cb.appendFloat(a.Value(i))
	case *array.String:
		cb.appendText(a.Value(i))
	}
}

func (cb *columnBuilder) appendAny(column string, cell any) error {
	if cell == nil {
		cb.appendNull()
		return nil
	}
	switch cb.typ {
	case Float64:
		switch v := cell.(type) {
		case float64:
			cb.appendFloat(v)
		case float32:
			cb.appendFloat(float64(v))
		case int:
			cb.appendFloat(float64(v))
		default:
			return errors.NewTypeMismatchError("dataset.FromRows", column, Float64.String(), fmt.Sprintf("%T", cell))
		}
	default:
		s, ok := cell.(string)
		if !ok {
			return errors.NewTypeMismatchError("dataset.FromRows", column, Text.String(), fmt.Sprintf("%T", cell))
		}
		cb.appendText(s)
	}
	return nil
}

func (cb *columnBuilder) finish() arrow.Array {
	defer cb.b.Release()
	return cb.b.NewArray()
}

func (cb *columnBuilder) release() { cb.b.Release() }
