// Package dataset holds the in-memory record table and the stages that
// produce and reshape it: the CSV loader, the null-row cleaner and the
// feature/label splitter.
//
// Tables are immutable and backed by Apache Arrow arrays, one per column.
// Arrow's validity bitmap is the per-cell null marker.
package dataset

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// ColumnType is the declared type of a column.
type ColumnType int

const (
	// Text columns hold UTF-8 strings.
	Text ColumnType = iota
	// Float64 columns hold 64-bit floats.
	Float64
)

// String returns the name used in config files and error messages.
func (t ColumnType) String() string {
	switch t {
	case Text:
		return "text"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// ParseColumnType is the inverse of ColumnType.String. "string" and
// "float" are accepted as aliases.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(s) {
	case "text", "string", "utf8":
		return Text, nil
	case "float64", "float", "f64":
		return Float64, nil
	default:
		return Text, errors.NewValidationError("type", "must be text or float64", s)
	}
}

func (t ColumnType) arrowType() arrow.DataType {
	if t == Float64 {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// Field declares one column.
type Field struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of column declarations. Order matters: the
// loader matches CSV columns by position.
type Schema []Field

// NewSchema builds a Schema and validates it.
func NewSchema(fields ...Field) (Schema, error) {
	s := Schema(fields)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects empty and duplicate column names.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, f := range s {
		if f.Name == "" {
			return errors.NewValidationError("schema", fmt.Sprintf("field %d has an empty name", i), f)
		}
		if f.Type != Text && f.Type != Float64 {
			return errors.NewValidationError("schema", "unknown column type", f.Type)
		}
		if _, dup := seen[f.Name]; dup {
			return errors.NewValidationError("schema", "duplicate column name", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// csvSchema is the Arrow schema the CSV reader decodes into. Every column
// is read as nullable text and converted afterwards, so a bad float becomes
// a null cell instead of aborting the read.
func (s Schema) csvSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(s))
	for i, f := range s {
		fields[i] = arrow.Field{Name: f.Name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Column names of the Palmer Penguins dataset.
const (
	ColRowID         = "rowid"
	ColSpecies       = "species"
	ColIsland        = "island"
	ColBillLength    = "bill_length_mm"
	ColBillDepth     = "bill_depth_mm"
	ColFlipperLength = "flipper_length_mm"
	ColBodyMass      = "body_mass_g"
	ColSex           = "sex"
	ColYear          = "year"
)

// PenguinSchema returns the schema of palmerpenguins.csv.
func PenguinSchema() Schema {
	return Schema{
		{Name: ColRowID, Type: Text},
		{Name: ColSpecies, Type: Text},
		{Name: ColIsland, Type: Text},
		{Name: ColBillLength, Type: Float64},
		{Name: ColBillDepth, Type: Float64},
		{Name: ColFlipperLength, Type: Float64},
		{Name: ColBodyMass, Type: Float64},
		{Name: ColSex, Type: Text},
		{Name: ColYear, Type: Float64},
	}
}

// PenguinFeatures are the four numeric measurements used as predictors.
func PenguinFeatures() []string {
	return []string{ColBillLength, ColBillDepth, ColFlipperLength, ColBodyMass}
}

// PenguinLabels is the label column.
func PenguinLabels() []string {
	return []string{ColSpecies}
}
