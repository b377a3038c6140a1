package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/YuminosukeSato/penguinml/pkg/log"
)

// DropNulls returns a table holding exactly the rows of t that have no null
// cell, in their original order. It never fails: a clean table comes back
// with the same rows, and a table whose every row has a null comes back
// empty with the same schema.
func DropNulls(t *Table) *Table {
	keep := make([]int, 0, t.nrows)
	for r := 0; r < t.nrows; r++ {
		if !t.rowHasNull(r) {
			keep = append(keep, r)
		}
	}

	dropped := t.nrows - len(keep)
	log.GetLoggerWithName("dataset").Debug("Dropped rows with null cells",
		log.SamplesKey, len(keep),
		log.DroppedKey, dropped,
	)

	if dropped == 0 {
		return t.shared(t.schema, t.columns)
	}
	return t.take(keep)
}

func (t *Table) rowHasNull(r int) bool {
	for _, col := range t.columns {
		if col.IsNull(r) {
			return true
		}
	}
	return false
}

// shared returns a table over the given arrays of t, retaining each one.
func (t *Table) shared(schema Schema, columns []arrow.Array) *Table {
	cols := make([]arrow.Array, len(columns))
	for i, c := range columns {
		c.Retain()
		cols[i] = c
	}
	return &Table{schema: append(Schema(nil), schema...), columns: cols, nrows: t.nrows}
}

// take copies the listed rows, in the listed order, into new arrays.
func (t *Table) take(rows []int) *Table {
	cols := make([]arrow.Array, len(t.columns))
	for c, src := range t.columns {
		b := newColumnBuilder(memory.DefaultAllocator, t.schema[c].Type, len(rows))
		for _, r := range rows {
			b.appendFrom(src, r)
		}
		cols[c] = b.finish()
	}
	return &Table{schema: append(Schema(nil), t.schema...), columns: cols, nrows: len(rows)}
}
