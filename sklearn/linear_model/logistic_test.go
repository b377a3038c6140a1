package linear_model

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/pkg/errors"
)

// TestLogisticRegression_FitPredict_Binary tests binary classification
func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	// Create simple linearly separable data
	// Class 0: points around (1, 1)
	// Class 1: points around (3, 3)
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
	})

	// Create and train model
	lr := NewLogisticRegression(
		WithLRMaxIter(1000),
		WithLRTol(1e-4),
	)

	err := lr.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	// Test predictions on training data
	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	// Check predictions
	for i := 0; i < 6; i++ {
		pred := predictions.At(i, 0)
		actual := y.At(i, 0)
		if pred != actual {
			t.Errorf("Sample %d: expected %v, got %v", i, actual, pred)
		}
	}

	// Test on new data
	XTest := mat.NewDense(2, 2, []float64{
		1.0, 1.0, // Should be class 0
		3.0, 3.0, // Should be class 1
	})

	testPreds, err := lr.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}

	if testPreds.At(0, 0) != 0 {
		t.Errorf("Test point (1,1) should be class 0, got %v", testPreds.At(0, 0))
	}

	if testPreds.At(1, 0) != 1 {
		t.Errorf("Test point (3,3) should be class 1, got %v", testPreds.At(1, 0))
	}
}

// TestLogisticRegression_PredictProba tests probability predictions
func TestLogisticRegression_PredictProba(t *testing.T) {
	// Simple data
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	})

	y := mat.NewDense(4, 1, []float64{
		0, 0, 1, 1,
	})

	lr := NewLogisticRegression(
		WithLRMaxIter(500),
	)

	err := lr.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 4 || cols != 2 {
		t.Errorf("Expected probas shape (4, 2), got (%d, %d)", rows, cols)
	}

	// Check that probabilities sum to 1
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}

	// Check that higher probability corresponds to predicted class
	predictions, _ := lr.Predict(X)
	for i := 0; i < rows; i++ {
		pred := int(predictions.At(i, 0))
		prob0 := probas.At(i, 0)
		prob1 := probas.At(i, 1)

		if pred == 0 && prob0 <= prob1 {
			t.Errorf("Sample %d: predicted class 0 but P(0)=%v <= P(1)=%v", i, prob0, prob1)
		}
		if pred == 1 && prob1 <= prob0 {
			t.Errorf("Sample %d: predicted class 1 but P(1)=%v <= P(0)=%v", i, prob1, prob0)
		}
	}
}

// TestLogisticRegression_Score tests accuracy calculation
func TestLogisticRegression_Score(t *testing.T) {
	// Create XOR-like data (not linearly separable, but we'll use more features)
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0,
		0, 0, 1,
		0, 1, 0,
		0, 1, 1,
		1, 0, 0,
		1, 0, 1,
		1, 1, 0,
		1, 1, 1,
	})

	// Simple pattern: class 1 if sum of features > 1.5
	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 1, 0, 1, 1, 1,
	})

	lr := NewLogisticRegression(
		WithLRMaxIter(1000),
		WithLRC(10.0), // Less regularization for better fit
	)

	err := lr.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if score < 0.75 { // Should achieve at least 75% accuracy
		t.Errorf("Score too low: %v", score)
	}

	// Perfect classification test with better separated data
	XSimple := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		3, 3,
		3, 4,
		4, 3,
	})
	ySimple := mat.NewDense(6, 1, []float64{
		0, 0, 0, // Class 0 (lower values)
		1, 1, 1, // Class 1 (higher values)
	})

	lr2 := NewLogisticRegression(
		WithLRMaxIter(1000),
		WithLRC(10.0), // Less regularization for better fit
	)
	if err := lr2.Fit(XSimple, ySimple); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	scoreSimple, err := lr2.Score(XSimple, ySimple)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if scoreSimple != 1.0 {
		t.Errorf("Expected perfect score for linearly separable data, got %v", scoreSimple)
	}
}

// TestLogisticRegression_Regularization tests L2 regularization
func TestLogisticRegression_Regularization(t *testing.T) {
	// Create data with many features (prone to overfitting)
	X := mat.NewDense(10, 5, []float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
		1, 1, 0, 0, 0,
		0, 1, 1, 0, 0,
		0, 0, 1, 1, 0,
		0, 0, 0, 1, 1,
		1, 0, 0, 0, 1,
	})

	y := mat.NewDense(10, 1, []float64{
		0, 0, 0, 1, 1, 0, 0, 1, 1, 1,
	})

	// Train with strong regularization
	lrStrong := NewLogisticRegression(
		WithLRC(0.01), // Strong regularization (small C)
		WithLRMaxIter(1000),
	)
	if err := lrStrong.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	// Train with weak regularization
	lrWeak := NewLogisticRegression(
		WithLRC(100.0), // Weak regularization (large C)
		WithLRMaxIter(1000),
	)
	if err := lrWeak.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	// Check that strong regularization produces smaller weights
	strongNorm := 0.0
	weakNorm := 0.0

	for j := 0; j < 5; j++ {
		strongNorm += lrStrong.coef[0][j] * lrStrong.coef[0][j]
		weakNorm += lrWeak.coef[0][j] * lrWeak.coef[0][j]
	}

	strongNorm = math.Sqrt(strongNorm)
	weakNorm = math.Sqrt(weakNorm)

	if strongNorm >= weakNorm {
		t.Errorf("Strong regularization should produce smaller weights: strong=%v, weak=%v",
			strongNorm, weakNorm)
	}
}

// TestLogisticRegression_Multiclass tests multiclass classification
func TestLogisticRegression_Multiclass(t *testing.T) {
	// Create 3-class data
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
		4, 4,
		4, 5,
		5, 4,
	})

	y := mat.NewDense(9, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
		2, 2, 2, // Class 2
	})

	lr := NewLogisticRegression(
		WithLRMaxIter(1000),
		WithLRC(10.0),
	)

	err := lr.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit multiclass model: %v", err)
	}

	// Check that we have 3 classes
	if got := lr.Classes(); len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Errorf("Expected classes [0 1 2], got %v", got)
	}

	// Check predictions
	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	correct := 0
	for i := 0; i < 9; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	accuracy := float64(correct) / 9.0
	if accuracy < 0.89 { // Should achieve at least 89% accuracy (8/9)
		t.Errorf("Multiclass accuracy too low: %v", accuracy)
	}

	// Test probability predictions
	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if cols != 3 {
		t.Errorf("Expected 3 probability columns, got %d", cols)
	}

	// Check probability constraints
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}
}

// TestLogisticRegression_GetSetParams tests parameter management
func TestLogisticRegression_GetSetParams(t *testing.T) {
	lr := NewLogisticRegression()

	// Get default params
	params := lr.GetParams()

	// Check some defaults
	if params["C"].(float64) != 1.0 {
		t.Errorf("Default C should be 1.0, got %v", params["C"])
	}

	if params["max_iter"].(int) != 100 {
		t.Errorf("Default max_iter should be 100, got %v", params["max_iter"])
	}

	// Set new params
	newParams := map[string]interface{}{
		"C":        2.0,
		"max_iter": 200,
		"penalty":  "none",
		"tol":      1e-5,
	}

	err := lr.SetParams(newParams)
	if err != nil {
		t.Fatalf("Failed to set params: %v", err)
	}

	// Verify changes
	if lr.C != 2.0 {
		t.Errorf("C not updated: expected 2.0, got %v", lr.C)
	}

	if lr.maxIter != 200 {
		t.Errorf("max_iter not updated: expected 200, got %v", lr.maxIter)
	}

	if lr.penalty != "none" {
		t.Errorf("penalty not updated: expected 'none', got %v", lr.penalty)
	}

	if lr.tol != 1e-5 {
		t.Errorf("tol not updated: expected 1e-5, got %v", lr.tol)
	}
}

// TestLogisticRegression_NotFitted tests error when predicting without fitting
func TestLogisticRegression_NotFitted(t *testing.T) {
	lr := NewLogisticRegression()

	X := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})

	_, err := lr.Predict(X)
	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("Expected NotFittedError when predicting without fitting, got %v", err)
	}

	_, err = lr.PredictProba(X)
	if err == nil {
		t.Error("Expected error when predicting probabilities without fitting")
	}
}

func separatedClusters() (*mat.Dense, *mat.Dense) {
	centers := [][2]float64{{-3, 0}, {3, 0}, {0, 4}}
	offsets := [][2]float64{{0, 0}, {0.5, 0.2}, {-0.4, 0.3}, {0.2, -0.5}}
	X := mat.NewDense(len(centers)*len(offsets), 2, nil)
	y := mat.NewDense(len(centers)*len(offsets), 1, nil)
	row := 0
	for k, c := range centers {
		for _, o := range offsets {
			X.Set(row, 0, c[0]+o[0])
			X.Set(row, 1, c[1]+o[1])
			y.Set(row, 0, float64(k+1))
			row++
		}
	}
	return X, y
}

func TestLogisticRegression_Multinomial(t *testing.T) {
	X, y := separatedClusters()

	lr := NewLogisticRegression(
		WithLRMultiClass(MultiClassMultinomial),
		WithLRC(100),
		WithLRMaxIter(500),
		WithLRRandomState(1),
	)
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score() = %v, want 1.0 on separated clusters", score)
	}

	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	rows, cols := probas.Dims()
	if cols != 3 {
		t.Fatalf("PredictProba() has %d columns, want 3", cols)
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += probas.At(i, j)
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v", i, sum)
		}
	}
	if lr.Loss() <= 0 || math.IsNaN(lr.Loss()) {
		t.Errorf("Loss() = %v, want a positive number", lr.Loss())
	}
}

func TestLogisticRegression_OVRAndMultinomialAgree(t *testing.T) {
	X, y := separatedClusters()
	XNew := mat.NewDense(3, 2, []float64{-3.2, 0.1, 2.9, -0.2, 0.1, 3.8})

	for _, strategy := range []string{MultiClassOVR, MultiClassMultinomial} {
		t.Run(strategy, func(t *testing.T) {
			lr := NewLogisticRegression(WithLRMultiClass(strategy), WithLRC(100), WithLRMaxIter(500))
			if err := lr.Fit(X, y); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			pred, err := lr.Predict(XNew)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			for i, want := range []float64{1, 2, 3} {
				if pred.At(i, 0) != want {
					t.Errorf("row %d predicted %v, want %v", i, pred.At(i, 0), want)
				}
			}
		})
	}
}

func TestLogisticRegression_DimensionErrors(t *testing.T) {
	X, y := separatedClusters()
	lr := NewLogisticRegression()

	err := lr.Fit(X, mat.NewDense(3, 1, []float64{1, 2, 3}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("Fit() with mismatched rows: expected DimensionError, got %v", err)
	}

	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	_, err = lr.Predict(mat.NewDense(1, 3, nil))
	if !errors.As(err, &dimErr) {
		t.Fatalf("Predict() with 3 features: expected DimensionError, got %v", err)
	}
}

func TestLogisticRegression_SingleClass(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{1, 1})
	err := NewLogisticRegression().Fit(X, y)
	var valErr *errors.ValueError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestLogisticRegression_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	X, y := separatedClusters()
	lr := NewLogisticRegression(WithLRMaxIter(1), WithLRTol(1e-12), WithLRMultiClass(MultiClassMultinomial))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if len(warnings) == 0 {
		t.Fatal("expected a ConvergenceWarning")
	}
	var cw *errors.ConvergenceWarning
	if !errors.As(warnings[0], &cw) {
		t.Errorf("expected ConvergenceWarning, got %T", warnings[0])
	}
}

func TestLogisticRegression_SetParamsRejectsBadValues(t *testing.T) {
	lr := NewLogisticRegression()
	if err := lr.SetParams(map[string]interface{}{"C": "big"}); err == nil {
		t.Error("expected error for a string C")
	}
	if err := lr.SetParams(map[string]interface{}{"penalty": "l1"}); err == nil {
		t.Error("expected error for an unsupported penalty")
	}
	if err := lr.SetParams(map[string]interface{}{"alpha": 1.0}); err == nil {
		t.Error("expected error for an unknown parameter")
	}
	if lr.C != 1.0 || lr.penalty != PenaltyL2 {
		t.Errorf("rejected SetParams modified the model: C=%v penalty=%v", lr.C, lr.penalty)
	}
}

func TestLogisticRegression_OVRDeterministic(t *testing.T) {
	X, y := separatedClusters()

	fit := func() *LogisticRegression {
		lr := NewLogisticRegression(
			WithLRMultiClass(MultiClassOVR),
			WithLRC(10),
			WithLRMaxIter(300),
			WithLRRandomState(7),
		)
		if err := lr.Fit(X, y); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		return lr
	}
	a, b := fit(), fit()

	coefA, coefB := a.Coef(), b.Coef()
	if len(coefA) != 3 {
		t.Fatalf("len(Coef()) = %d, want 3", len(coefA))
	}
	for k := range coefA {
		for j := range coefA[k] {
			if coefA[k][j] != coefB[k][j] {
				t.Errorf("coef[%d][%d] = %v and %v across identical fits", k, j, coefA[k][j], coefB[k][j])
			}
		}
	}
	if a.Loss() != b.Loss() {
		t.Errorf("Loss() = %v and %v across identical fits", a.Loss(), b.Loss())
	}
}

func TestLogisticRegression_NonFiniteInput(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(error) {})

	X := mat.NewDense(4, 1, []float64{1, math.NaN(), 3, 4})
	y := mat.NewDense(4, 1, []float64{1, 1, 2, 2})
	lr := NewLogisticRegression(WithLRMaxIter(5))

	err := lr.Fit(X, y)
	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if _, err := lr.Predict(X); err == nil {
		t.Error("Predict() after a failed Fit should return NotFittedError")
	}
}
