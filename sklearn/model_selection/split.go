// Package model_selection partitions a labelled dataset into a training
// set and a held-out test set.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// DefaultTestSize is the share of rows held out for testing.
const DefaultTestSize = 0.3

// DefaultRandomState seeds the shuffle when no seed is given.
const DefaultRandomState uint64 = 42

type splitConfig struct {
	testSize    float64
	shuffle     bool
	randomState uint64
	stratify    bool
}

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitConfig)

// WithTestSize sets the test share, in (0, 1).
func WithTestSize(size float64) SplitOption {
	return func(c *splitConfig) {
		c.testSize = size
	}
}

// WithShuffle permutes rows before splitting. Enabled by default.
func WithShuffle(shuffle bool) SplitOption {
	return func(c *splitConfig) {
		c.shuffle = shuffle
	}
}

// WithRandomState seeds the permutation.
func WithRandomState(seed uint64) SplitOption {
	return func(c *splitConfig) {
		c.randomState = seed
	}
}

// WithStratify keeps each class's share roughly equal on both sides.
func WithStratify(stratify bool) SplitOption {
	return func(c *splitConfig) {
		c.stratify = stratify
	}
}

// Split is the result of TrainTestSplit.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense

	// TrainIndices and TestIndices are row positions in the input.
	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit holds out ceil(n*testSize) rows of X and y for testing and
// keeps the rest for training. Without shuffling the test rows are the last
// ones; with shuffling the same seed always yields the same partition.
//
// X and y must have the same number of rows, and both sides of the split
// must end up non-empty.
func TrainTestSplit(X mat.Matrix, y mat.Vector, opts ...SplitOption) (*Split, error) {
	cfg := splitConfig{
		testSize:    DefaultTestSize,
		shuffle:     true,
		randomState: DefaultRandomState,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.testSize <= 0 || cfg.testSize >= 1 {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", cfg.testSize)
	}
	if X == nil || y == nil {
		return nil, errors.NewValueError("model_selection.TrainTestSplit", "cannot split an empty dataset")
	}
	n, _ := X.Dims()
	if n == 0 {
		return nil, errors.NewValueError("model_selection.TrainTestSplit", "cannot split an empty dataset")
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("model_selection.TrainTestSplit", n, y.Len(), 0)
	}

	var train, test []int
	if cfg.stratify {
		train, test = stratifiedIndices(y, cfg)
	} else {
		train, test = indices(n, cfg)
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, errors.NewValueError("model_selection.TrainTestSplit",
			"test_size leaves the training or test set empty")
	}

	return &Split{
		XTrain:       takeRows(X, train),
		XTest:        takeRows(X, test),
		YTrain:       takeVec(y, train),
		YTest:        takeVec(y, test),
		TrainIndices: train,
		TestIndices:  test,
	}, nil
}

func permutation(n int, cfg splitConfig) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if cfg.shuffle {
		r := rand.New(rand.NewPCG(cfg.randomState, cfg.randomState))
		r.Shuffle(n, func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})
	}
	return idx
}

// testCount is ceil(n*size), tolerant of 0.3*10 = 3.0000000000000004.
func testCount(n int, size float64) int {
	return int(math.Ceil(float64(n)*size - 1e-9))
}

func indices(n int, cfg splitConfig) (train, test []int) {
	idx := permutation(n, cfg)
	nTest := testCount(n, cfg.testSize)
	return idx[:n-nTest], idx[n-nTest:]
}

// stratifiedIndices splits every class separately. Classes are visited in
// ascending label order so the result depends only on the seed.
func stratifiedIndices(y mat.Vector, cfg splitConfig) (train, test []int) {
	byClass := make(map[float64][]int)
	for i := 0; i < y.Len(); i++ {
		byClass[y.AtVec(i)] = append(byClass[y.AtVec(i)], i)
	}
	labels := make([]float64, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	for k, label := range labels {
		rows := byClass[label]
		sub := cfg
		sub.randomState = cfg.randomState + uint64(k)
		perm := permutation(len(rows), sub)
		nTest := testCount(len(rows), cfg.testSize)
		for i, p := range perm {
			if i < len(rows)-nTest {
				train = append(train, rows[p])
			} else {
				test = append(test, rows[p])
			}
		}
	}
	return train, test
}

func takeRows(X mat.Matrix, rows []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

func takeVec(y mat.Vector, rows []int) *mat.VecDense {
	out := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		out.SetVec(i, y.AtVec(r))
	}
	return out
}
