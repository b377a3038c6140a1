// Package penguinml classifies Palmer Penguins species from their body
// measurements.
//
// The pipeline is a chain of small stages, each one usable on its own:
//
//	load CSV -> drop null rows -> split features/labels -> flatten to a
//	matrix -> encode species -> train/test split -> logistic regression ->
//	accuracy
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/penguinml/pipeline"
//	    "github.com/YuminosukeSato/penguinml/pkg/config"
//	)
//
//	func main() {
//	    cfg := config.Default()
//	    cfg.DataPath = "data/palmerpenguins.csv"
//
//	    res, err := pipeline.Run(cfg)
//	    if err != nil {
//	        log.Fatalf("%+v", err)
//	    }
//	    defer res.Release()
//
//	    fmt.Printf("accuracy: %.4f\n", res.Accuracy)
//	}
//
// # Packages
//
//   - dataset: Arrow-backed record table, CSV loader, null-row cleaner and
//     feature/label splitter
//   - preprocessing: matrix flattening, species label encoding, scalers
//   - sklearn/model_selection: TrainTestSplit
//   - sklearn/linear_model: LogisticRegression (one-vs-rest and multinomial)
//   - metrics: accuracy and confusion matrix
//   - pipeline: the end-to-end stages wired together
//   - visualize: per-species scatter plots
//   - pkg/config: YAML configuration
//   - pkg/errors, pkg/log: error types and structured logging
//   - core/model: estimator state and interfaces
//   - core/parallel: CPU-parallel loops
//
// # Errors
//
// Every stage returns typed errors from pkg/errors. Callers branch on them
// with errors.As:
//
//	var unknown *errors.UnknownCategoryError
//	if errors.As(err, &unknown) {
//	    fmt.Println("unexpected species:", unknown.Value)
//	}
//
// Print errors with %+v to include the stack trace.
package penguinml
