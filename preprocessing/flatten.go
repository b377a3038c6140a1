// Package preprocessing turns cleaned tables into the numeric inputs of an
// estimator: a dense feature matrix, integer class codes and standardised
// features.
package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/dataset"
	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// Flatten copies every scalar of f into a new row-major buffer of length
// NumRows*NumCols, so that element (r, c) lives at index r*NumCols+c.
//
// Values are consumed in f's declared Order and the i-th one is placed by
// modular arithmetic on the traversal width: (i/C, i%C) for RowMajor,
// (i%R, i/R) for ColumnMajor.
//
// Every column must be Float64 and no cell may be null; the first violation
// is returned as a TypeMismatchError. An input with zero rows or zero
// columns yields an empty buffer.
func Flatten(f dataset.Frame) ([]float64, error) {
	rows, cols := f.NumRows(), f.NumCols()
	if rows == 0 || cols == 0 {
		return []float64{}, nil
	}
	names := f.Names()
	order := f.Order()

	buf := make([]float64, rows*cols)
	i := 0
	for v := range f.Values() {
		var r, c int
		if order == dataset.RowMajor {
			r, c = i/cols, i%cols
		} else {
			r, c = i%rows, i/rows
		}
		if v.Type != dataset.Float64 {
			return nil, errors.NewTypeMismatchError("preprocessing.Flatten", names[c], dataset.Float64.String(), v.Type.String())
		}
		if v.Null {
			return nil, errors.NewTypeMismatchError("preprocessing.Flatten", names[c], dataset.Float64.String(), "null")
		}
		buf[r*cols+c] = v.Float
		i++
	}
	if i != rows*cols {
		return nil, errors.NewDimensionError("preprocessing.Flatten", rows*cols, i, 0)
	}
	return buf, nil
}

// ToDense flattens f into a NumRows x NumCols matrix. An empty input yields
// an empty matrix.
func ToDense(f dataset.Frame) (*mat.Dense, error) {
	buf, err := Flatten(f)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return &mat.Dense{}, nil
	}
	return mat.NewDense(f.NumRows(), f.NumCols(), buf), nil
}
