// Package linear_model provides the logistic-regression classifier used to
// predict penguin species from body measurements.
package linear_model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/core/model"
	"github.com/YuminosukeSato/penguinml/core/parallel"
	"github.com/YuminosukeSato/penguinml/metrics"
	"github.com/YuminosukeSato/penguinml/pkg/errors"
	"github.com/YuminosukeSato/penguinml/pkg/log"
)

// Multi-class strategies.
const (
	MultiClassAuto        = "auto"
	MultiClassOVR         = "ovr"
	MultiClassMultinomial = "multinomial"
)

// Penalties.
const (
	PenaltyL2   = "l2"
	PenaltyNone = "none"
)

// LogisticRegression is a gradient-descent logistic-regression classifier.
// Two classes are fitted with a single sigmoid model; more classes use
// one-vs-rest or a multinomial softmax model.
type LogisticRegression struct {
	state *model.StateManager

	penalty      string  // "l2" or "none"
	C            float64 // inverse regularization strength
	fitIntercept bool
	randomState  int64 // negative means unseeded
	maxIter      int
	multiClass   string
	tol          float64

	coef        [][]float64 // 1 x n_features for binary, n_classes x n_features otherwise
	intercept   []float64
	classes     []int
	multinomial bool // fitted as a single softmax model
	nIter       []int
	loss        float64

	rand *rand.Rand
}

var _ model.Classifier = (*LogisticRegression)(nil)

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a classifier with C=1, an L2 penalty,
// 100 iterations and automatic multi-class selection.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      PenaltyL2,
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      100,
		multiClass:   MultiClassAuto,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.reseed()
	return lr
}

func (lr *LogisticRegression) reseed() {
	seed := uint64(lr.randomState)
	if lr.randomState < 0 {
		seed = rand.Uint64()
	}
	lr.rand = rand.New(rand.NewPCG(seed, seed))
}

// WithLRPenalty sets the regularization type.
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit an intercept.
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of gradient steps per model.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the gradient tolerance for stopping.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState seeds the weight initialisation.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRMultiClass selects "auto", "ovr" or "multinomial". With "auto",
// more than two classes are fitted one-vs-rest.
func WithLRMultiClass(strategy string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.multiClass = strategy
	}
}

func (lr *LogisticRegression) validate() error {
	switch {
	case lr.penalty != PenaltyL2 && lr.penalty != PenaltyNone:
		return errors.NewValidationError("penalty", "must be l2 or none", lr.penalty)
	case lr.C <= 0:
		return errors.NewValidationError("C", "must be positive", lr.C)
	case lr.maxIter < 1:
		return errors.NewValidationError("max_iter", "must be at least 1", lr.maxIter)
	case lr.multiClass != MultiClassAuto && lr.multiClass != MultiClassOVR && lr.multiClass != MultiClassMultinomial:
		return errors.NewValidationError("multi_class", "must be auto, ovr or multinomial", lr.multiClass)
	}
	return nil
}

// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1,
// integer class codes).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	if err := lr.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.state.Reset()
	lr.extractClasses(y)
	if len(lr.classes) < 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("need samples of at least 2 classes, got %d", len(lr.classes)))
	}
	lr.initializeWeights(nFeatures)
	lr.multinomial = len(lr.classes) > 2 && lr.multiClass == MultiClassMultinomial

	switch {
	case len(lr.classes) == 2:
		lr.loss = lr.fitBinary(X, lr.target(y, lr.classes[1]), 0, lr.classes[1])
	case lr.multinomial:
		lr.loss = lr.fitMultinomial(X, y)
	default:
		// one-vs-rest models share no state
		losses := make([]float64, len(lr.classes))
		parallel.Each(len(lr.classes), 1, func(k int) {
			losses[k] = lr.fitBinary(X, lr.target(y, lr.classes[k]), k, lr.classes[k])
		})
		lr.loss = 0
		for _, l := range losses {
			lr.loss += l / float64(len(losses))
		}
	}

	params := append([]float64{lr.loss}, lr.intercept...)
	for _, w := range lr.coef {
		params = append(params, w...)
	}
	if err := errors.CheckFinite("LogisticRegression.Fit", params...); err != nil {
		return err
	}

	lr.state.SetFitted(nFeatures, nSamples)
	log.GetLoggerWithName("LogisticRegression").Debug("Fitted model",
		log.ModelNameKey, "LogisticRegression",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, lr.classes,
		log.IterationKey, lr.nIter,
		log.LossKey, lr.loss,
	)
	return nil
}

// extractClasses records the sorted distinct labels of y.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	lr.classes = make([]int, 0, len(seen))
	for class := range seen {
		lr.classes = append(lr.classes, class)
	}
	sort.Ints(lr.classes)
}

// initializeWeights draws small random weights and zero intercepts.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	nModels := len(lr.classes)
	if nModels == 2 {
		nModels = 1
	}
	lr.coef = make([][]float64, nModels)
	for k := range lr.coef {
		lr.coef[k] = make([]float64, nFeatures)
		for j := range lr.coef[k] {
			lr.coef[k][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept = make([]float64, nModels)
	lr.nIter = make([]int, nModels)
}

// target returns 1 where y equals class and 0 elsewhere.
func (lr *LogisticRegression) target(y mat.Matrix, class int) *mat.VecDense {
	rows, _ := y.Dims()
	t := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		if int(y.At(i, 0)) == class {
			t.SetVec(i, 1)
		}
	}
	return t
}

func (lr *LogisticRegression) lambda() float64 {
	if lr.penalty == PenaltyL2 {
		return 1.0 / lr.C
	}
	return 0
}

// learningRate decays as 1/(1+0.1*iter). The L2 term is applied as a
// shrinkage step w/(1+eta*lambda), which stays stable for any C.
func learningRate(iter int) float64 {
	return 1.0 / (1.0 + 0.1*float64(iter))
}

// fitBinary runs gradient descent on the sigmoid model k, which separates
// class from the rest, against the 0/1 target t, and returns its training
// log loss. It touches only the k-th coefficients.
func (lr *LogisticRegression) fitBinary(X mat.Matrix, t *mat.VecDense, k, class int) float64 {
	nSamples, nFeatures := X.Dims()
	w := mat.NewVecDense(nFeatures, lr.coef[k]) // shares lr.coef[k]
	b := &lr.intercept[k]
	lambda := lr.lambda()

	p := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)
	full := mat.NewVecDense(nFeatures, nil)
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		p.MulVec(X, w)
		for i := 0; i < nSamples; i++ {
			p.SetVec(i, sigmoid(p.AtVec(i)+*b))
		}
		p.SubVec(p, t)

		grad.MulVec(X.T(), p)
		grad.ScaleVec(1/float64(nSamples), grad)
		gradB := mat.Sum(p) / float64(nSamples)
		full.AddScaledVec(grad, lambda, w)

		eta := learningRate(iter)
		w.AddScaledVec(w, -eta, grad)
		w.ScaleVec(1/(1+eta*lambda), w)
		if lr.fitIntercept {
			*b -= eta * gradB
		}
		lr.nIter[k] = iter + 1

		maxGrad := math.Max(math.Abs(gradB), mat.Norm(full, math.Inf(1)))
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			fmt.Sprintf("class %d did not reach tol=%g; increase max_iter or scale the data", class, lr.tol)))
	}
	return binaryLogLoss(X, t, w, *b)
}

// fitMultinomial runs gradient descent on the softmax cross-entropy of all
// classes at once and returns the training log loss.
func (lr *LogisticRegression) fitMultinomial(X, y mat.Matrix) float64 {
	nSamples, nFeatures := X.Dims()
	nClasses := len(lr.classes)
	lambda := lr.lambda()

	W := mat.NewDense(nClasses, nFeatures, nil)
	for k := range lr.coef {
		W.SetRow(k, lr.coef[k])
	}
	b := mat.NewVecDense(nClasses, lr.intercept) // shares lr.intercept

	onehot := mat.NewDense(nSamples, nClasses, nil)
	for k, class := range lr.classes {
		onehot.SetCol(k, lr.target(y, class).RawVector().Data)
	}

	P := mat.NewDense(nSamples, nClasses, nil)
	gradW := mat.NewDense(nClasses, nFeatures, nil)
	full := mat.NewDense(nClasses, nFeatures, nil)
	step := mat.NewDense(nClasses, nFeatures, nil)
	gradB := mat.NewVecDense(nClasses, nil)
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		P.Mul(X, W.T())
		for i := 0; i < nSamples; i++ {
			softmaxRow(P.RawRowView(i), b.RawVector().Data)
		}
		P.Sub(P, onehot)

		gradW.Mul(P.T(), X)
		gradW.Scale(1/float64(nSamples), gradW)
		for k := 0; k < nClasses; k++ {
			gradB.SetVec(k, mat.Sum(P.ColView(k))/float64(nSamples))
		}
		full.Scale(lambda, W)
		full.Add(full, gradW)

		eta := learningRate(iter)
		step.Scale(eta, gradW)
		W.Sub(W, step)
		W.Scale(1/(1+eta*lambda), W)
		if lr.fitIntercept {
			b.AddScaledVec(b, -eta, gradB)
		}
		lr.nIter[0] = iter + 1

		maxGrad := math.Max(mat.Norm(full, math.Inf(1)), mat.Norm(gradB, math.Inf(1)))
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	for k := range lr.coef {
		mat.Row(lr.coef[k], k, W)
	}
	for k := 1; k < len(lr.nIter); k++ {
		lr.nIter[k] = lr.nIter[0]
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			fmt.Sprintf("multinomial fit did not reach tol=%g; increase max_iter or scale the data", lr.tol)))
	}
	return lr.multinomialLogLoss(X, onehot)
}

// Predict returns the most likely class code for each row of X, as an
// n_samples x 1 matrix.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.predictProba("Predict", X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := probas.Dims()
	if nSamples == 0 {
		return &mat.Dense{}, nil
	}
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for k, p := range probas.RawRowView(i) {
			if p > probas.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes[best]))
	}
	return predictions, nil
}

// PredictProba returns one probability column per class, in the order of
// Classes. One-vs-rest scores are normalised to sum to one.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.predictProba("PredictProba", X)
	if err != nil {
		return nil, err
	}
	return probas, nil
}

func (lr *LogisticRegression) predictProba(method string, X mat.Matrix) (out *mat.Dense, err error) {
	defer errors.Recover(&err, "LogisticRegression."+method)

	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression."+method, nFeatures); err != nil {
		return nil, err
	}
	if nSamples == 0 {
		return &mat.Dense{}, nil
	}

	nClasses := len(lr.classes)
	probas := mat.NewDense(nSamples, nClasses, nil)
	scores := mat.NewDense(nSamples, len(lr.coef), nil)
	for k, w := range lr.coef {
		col := mat.NewVecDense(nSamples, nil)
		col.MulVec(X, mat.NewVecDense(nFeatures, w))
		for i := 0; i < nSamples; i++ {
			scores.Set(i, k, col.AtVec(i)+lr.intercept[k])
		}
	}

	for i := 0; i < nSamples; i++ {
		row := probas.RawRowView(i)
		switch {
		case nClasses == 2:
			p1 := sigmoid(scores.At(i, 0))
			row[0], row[1] = 1-p1, p1
		case lr.multinomial:
			copy(row, scores.RawRowView(i))
			softmaxRow(row, nil)
		default:
			sum := 0.0
			for k := range row {
				row[k] = sigmoid(scores.At(i, k))
				sum += row[k]
			}
			for k := range row {
				row[k] /= sum
			}
		}
	}
	return probas, nil
}

// Score returns the mean accuracy of Predict(X) against y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the sorted class codes seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

// Coef returns a copy of the fitted weights, one row per sigmoid model.
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef))
	for k := range lr.coef {
		out[k] = append([]float64(nil), lr.coef[k]...)
	}
	return out
}

// Intercept returns a copy of the fitted intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept...)
}

// NIter returns the number of gradient steps taken per model.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter...)
}

// Loss returns the training log loss. One-vs-rest fits report the mean
// over the class models.
func (lr *LogisticRegression) Loss() float64 {
	return lr.loss
}

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"multi_class":   lr.multiClass,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters. A value of the wrong type is a
// ValidationError and leaves the model unchanged.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	next := *lr
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			next.penalty, ok = value.(string)
		case "C":
			next.C, ok = value.(float64)
		case "fit_intercept":
			next.fitIntercept, ok = value.(bool)
		case "random_state":
			next.randomState, ok = value.(int64)
		case "max_iter":
			next.maxIter, ok = value.(int)
		case "multi_class":
			next.multiClass, ok = value.(string)
		case "tol":
			next.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	reseed := next.randomState != lr.randomState
	*lr = next
	if reseed {
		lr.reseed()
	}
	return nil
}

func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(C=%g, penalty=%s, max_iter=%d, multi_class=%s)",
		lr.C, lr.penalty, lr.maxIter, lr.multiClass)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// softmaxRow replaces row with softmax(row + bias). bias may be nil.
func softmaxRow(row, bias []float64) {
	maxScore := math.Inf(-1)
	for k := range row {
		if bias != nil {
			row[k] += bias[k]
		}
		maxScore = math.Max(maxScore, row[k])
	}
	sum := 0.0
	for k := range row {
		row[k] = math.Exp(row[k] - maxScore)
		sum += row[k]
	}
	for k := range row {
		row[k] /= sum
	}
}

const probFloor = 1e-15

func binaryLogLoss(X mat.Matrix, t, w *mat.VecDense, b float64) float64 {
	n := t.Len()
	z := mat.NewVecDense(n, nil)
	z.MulVec(X, w)
	loss := 0.0
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(sigmoid(z.AtVec(i)+b), probFloor), 1-probFloor)
		if t.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n)
}

func (lr *LogisticRegression) multinomialLogLoss(X mat.Matrix, onehot *mat.Dense) float64 {
	n, _ := X.Dims()
	var P mat.Dense
	W := mat.NewDense(len(lr.coef), len(lr.coef[0]), nil)
	for k := range lr.coef {
		W.SetRow(k, lr.coef[k])
	}
	P.Mul(X, W.T())
	loss := 0.0
	for i := 0; i < n; i++ {
		row := P.RawRowView(i)
		softmaxRow(row, lr.intercept)
		for k, p := range row {
			if onehot.At(i, k) == 1 {
				loss -= math.Log(math.Max(p, probFloor))
			}
		}
	}
	return loss / float64(n)
}
