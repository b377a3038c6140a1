// Package model holds the estimator interfaces and the fitted-state helpers
// shared by transformers and classifiers.
package model

// EstimatorState is the fitted state of an estimator.
type EstimatorState int

const (
	// NotFitted is the state before Fit succeeds.
	NotFitted EstimatorState = iota
	// Fitted is the state after Fit succeeds.
	Fitted
)

// BaseEstimator is embedded by single-goroutine transformers.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has succeeded.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to NotFitted.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
