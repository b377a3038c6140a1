package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/dataset"
	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// PenguinSpecies maps the three species of the dataset to their codes.
var PenguinSpecies = map[string]int{
	"Adelie":    1,
	"Chinstrap": 2,
	"Gentoo":    3,
}

// LabelEncoder maps category strings to integer codes through a closed,
// injective map fixed at construction.
type LabelEncoder struct {
	codes map[string]int
	names map[int]string
	known []string
}

// NewLabelEncoder builds an encoder over categories. Two categories sharing
// a code is a ValidationError.
func NewLabelEncoder(categories map[string]int) (*LabelEncoder, error) {
	if len(categories) == 0 {
		return nil, errors.NewValidationError("categories", "must not be empty", categories)
	}
	e := &LabelEncoder{
		codes: make(map[string]int, len(categories)),
		names: make(map[int]string, len(categories)),
	}
	for name, code := range categories {
		if other, dup := e.names[code]; dup {
			return nil, errors.NewValidationError("categories", "code used by "+other, name)
		}
		e.codes[name] = code
		e.names[code] = name
	}
	for _, code := range e.Classes() {
		e.known = append(e.known, e.names[code])
	}
	return e, nil
}

// NewPenguinEncoder returns an encoder over PenguinSpecies.
func NewPenguinEncoder() *LabelEncoder {
	e, err := NewLabelEncoder(PenguinSpecies)
	if err != nil {
		panic(err)
	}
	return e
}

// Transform encodes labels in order. A nil label or a string outside the
// category map stops the encoding with an UnknownCategoryError.
func (e *LabelEncoder) Transform(labels []*string) ([]int, error) {
	out := make([]int, len(labels))
	for i, label := range labels {
		if label == nil {
			return nil, errors.NewMissingCategoryError(i, e.known)
		}
		code, ok := e.codes[*label]
		if !ok {
			return nil, errors.NewUnknownCategoryError(*label, i, e.known)
		}
		out[i] = code
	}
	return out, nil
}

// TransformTable encodes a table holding exactly one Text column.
func (e *LabelEncoder) TransformTable(t *dataset.Table) ([]int, error) {
	if t.NumCols() != 1 {
		return nil, errors.NewDimensionError("LabelEncoder.TransformTable", 1, t.NumCols(), 1)
	}
	labels, err := t.Strings(t.Names()[0])
	if err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// TransformVec is TransformTable returning a gonum vector. An empty table
// yields an empty vector.
func (e *LabelEncoder) TransformVec(t *dataset.Table) (*mat.VecDense, error) {
	codes, err := e.TransformTable(t)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return &mat.VecDense{}, nil
	}
	data := make([]float64, len(codes))
	for i, c := range codes {
		data[i] = float64(c)
	}
	return mat.NewVecDense(len(data), data), nil
}

// InverseTransform returns the category name of code.
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	name, ok := e.names[code]
	if !ok {
		return "", errors.NewValueError("LabelEncoder.InverseTransform", "unknown class code")
	}
	return name, nil
}

// Classes returns the codes in ascending order.
func (e *LabelEncoder) Classes() []int {
	classes := make([]int, 0, len(e.names))
	for code := range e.names {
		classes = append(classes, code)
	}
	sort.Ints(classes)
	return classes
}

// Names returns the category names ordered by code.
func (e *LabelEncoder) Names() []string {
	return append([]string(nil), e.known...)
}
