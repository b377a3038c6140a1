// Package visualize renders feature scatter plots with gonum/plot.
package visualize

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
	"github.com/YuminosukeSato/penguinml/pkg/log"
)

// ScatterOptions describes the plot. Zero fields get defaults.
type ScatterOptions struct {
	Title  string
	XLabel string
	YLabel string

	// ClassNames labels the legend; codes without a name print as numbers.
	ClassNames map[int]string

	Width, Height vg.Length
}

// ScatterByClass plots column xCol of X against column yCol, one series per
// class code in y, and saves the figure to path. The image format follows
// the extension (.png, .svg, .pdf, ...).
func ScatterByClass(X mat.Matrix, y mat.Vector, xCol, yCol int, path string, opts ScatterOptions) (err error) {
	defer errors.Recover(&err, "visualize.ScatterByClass")

	rows, cols := X.Dims()
	if rows == 0 {
		return errors.NewValueError("visualize.ScatterByClass", "nothing to plot")
	}
	if y.Len() != rows {
		return errors.NewDimensionError("visualize.ScatterByClass", rows, y.Len(), 0)
	}
	if xCol < 0 || xCol >= cols || yCol < 0 || yCol >= cols {
		return errors.NewValidationError("column", fmt.Sprintf("must be in [0, %d)", cols), [2]int{xCol, yCol})
	}

	byClass := make(map[int]plotter.XYs)
	for i := 0; i < rows; i++ {
		k := int(y.AtVec(i))
		byClass[k] = append(byClass[k], plotter.XY{X: X.At(i, xCol), Y: X.At(i, yCol)})
	}
	classes := make([]int, 0, len(byClass))
	for k := range byClass {
		classes = append(classes, k)
	}
	sort.Ints(classes)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Legend.Top = true

	for i, k := range classes {
		s, err := plotter.NewScatter(byClass[k])
		if err != nil {
			return errors.Wrapf(err, "class %d", k)
		}
		s.Color = plotutil.Color(i)
		s.Shape = plotutil.Shape(i)
		s.Radius = vg.Points(3)
		p.Add(s)

		name, ok := opts.ClassNames[k]
		if !ok {
			name = fmt.Sprint(k)
		}
		p.Legend.Add(name, s)
	}

	width, height := opts.Width, opts.Height
	if width == 0 {
		width = 6 * vg.Inch
	}
	if height == 0 {
		height = 4 * vg.Inch
	}
	if err := p.Save(width, height, path); err != nil {
		return errors.NewIOError("visualize.ScatterByClass", path, err)
	}

	log.GetLoggerWithName("visualize").Info("Saved scatter plot",
		log.PathKey, path,
		log.SamplesKey, rows,
		log.ClassesKey, classes,
	)
	return nil
}
