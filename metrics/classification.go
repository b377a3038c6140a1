// Package metrics scores predictions against true labels.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// Accuracy is the share of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix is Accuracy for n x 1 matrices, the shape returned by
// Predict.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := columnVec("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := columnVec("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// Confusion counts (true, predicted) label pairs. Counts[i][j] is the
// number of samples of class Labels[i] predicted as Labels[j].
type Confusion struct {
	Labels []int
	Counts [][]int
}

// ConfusionMatrix tabulates yPred against yTrue over the union of their
// labels, sorted ascending.
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (*Confusion, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	for i := 0; i < n; i++ {
		seen[int(yTrue.AtVec(i))] = struct{}{}
		seen[int(yPred.AtVec(i))] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := 0; i < n; i++ {
		counts[pos[int(yTrue.AtVec(i))]][pos[int(yPred.AtVec(i))]]++
	}
	return &Confusion{Labels: labels, Counts: counts}, nil
}

// ClassReport holds the one-vs-rest scores of a single class.
type ClassReport struct {
	Label     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report returns precision, recall and F1 per class. A class never
// predicted has precision 0; a class absent from yTrue has recall 0.
func (c *Confusion) Report() []ClassReport {
	out := make([]ClassReport, len(c.Labels))
	for k, label := range c.Labels {
		tp := c.Counts[k][k]
		predicted, actual := 0, 0
		for i := range c.Labels {
			predicted += c.Counts[i][k]
			actual += c.Counts[k][i]
		}
		r := ClassReport{Label: label, Support: actual}
		if predicted > 0 {
			r.Precision = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			r.Recall = float64(tp) / float64(actual)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		out[k] = r
	}
	return out
}

// Format renders the matrix with rows as true labels, using names for the
// labels when it has an entry for them.
func (c *Confusion) Format(names map[int]string) string {
	label := func(l int) string {
		if name, ok := names[l]; ok {
			return name
		}
		return fmt.Sprint(l)
	}
	width := 6
	for _, l := range c.Labels {
		width = max(width, len(label(l)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s", width, "")
	for _, l := range c.Labels {
		fmt.Fprintf(&b, " %*s", width, label(l))
	}
	b.WriteByte('\n')
	for i, l := range c.Labels {
		fmt.Fprintf(&b, "%*s", width, label(l))
		for _, v := range c.Counts[i] {
			fmt.Fprintf(&b, " %*d", width, v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func columnVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
