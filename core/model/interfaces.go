package model

import "gonum.org/v1/gonum/mat"

// Fitter is a supervised model that learns from X and y.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces one prediction per row of X.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer learns parameters from X and applies them.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer undoes a Transformer.
type InverseTransformer interface {
	Transformer
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// Scorer evaluates a fitted model against known labels.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier is a fitted-then-predict model over integer class codes.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns one column of probabilities per class, in the
	// order of Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class codes seen during fitting.
	Classes() []int
}

// ParameterGetter exposes hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter updates hyperparameters.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
