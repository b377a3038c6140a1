// Package pipeline runs the Palmer Penguins workflow end to end: load,
// clean, split columns, flatten, encode, train and evaluate.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/penguinml/dataset"
	"github.com/YuminosukeSato/penguinml/metrics"
	"github.com/YuminosukeSato/penguinml/pkg/config"
	"github.com/YuminosukeSato/penguinml/pkg/errors"
	"github.com/YuminosukeSato/penguinml/pkg/log"
	"github.com/YuminosukeSato/penguinml/preprocessing"
	"github.com/YuminosukeSato/penguinml/sklearn/linear_model"
	"github.com/YuminosukeSato/penguinml/sklearn/model_selection"
)

// Prepared holds the tables and matrices produced before training.
type Prepared struct {
	Raw          *dataset.Table
	Cleaned      *dataset.Table
	FeatureTable *dataset.Table
	LabelTable   *dataset.Table

	// X is the row-major feature matrix and Y the encoded labels, one per
	// row of X.
	X       *mat.Dense
	Y       *mat.VecDense
	Encoder *preprocessing.LabelEncoder
}

// Release drops every table held by p.
func (p *Prepared) Release() {
	for _, t := range []*dataset.Table{p.Raw, p.Cleaned, p.FeatureTable, p.LabelTable} {
		if t != nil {
			t.Release()
		}
	}
}

// Result is the outcome of Run.
type Result struct {
	*Prepared

	TrainSize int
	TestSize  int
	Accuracy  float64
	Confusion *metrics.Confusion
	Model     *linear_model.LogisticRegression
	Scaler    preprocessing.Scaler
}

// Load reads the configured CSV against the configured schema.
func Load(cfg *config.Config) (*dataset.Table, error) {
	schema, err := cfg.DatasetSchema()
	if err != nil {
		return nil, stageError(log.StageLoad, err)
	}
	t, err := dataset.LoadCSV(cfg.DataPath, schema)
	if err != nil {
		return nil, stageError(log.StageLoad, err)
	}
	return t, nil
}

// Prepare runs every stage up to and including label encoding.
func Prepare(cfg *config.Config) (_ *Prepared, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	p := &Prepared{Encoder: preprocessing.NewPenguinEncoder()}
	defer func() {
		if err != nil {
			p.Release()
		}
	}()

	if p.Raw, err = Load(cfg); err != nil {
		return nil, err
	}
	stageDone(log.StageLoad, log.SamplesKey, p.Raw.NumRows(), log.ColumnsKey, p.Raw.NumCols())

	p.Cleaned = dataset.DropNulls(p.Raw)
	stageDone(log.StageClean,
		log.SamplesKey, p.Cleaned.NumRows(),
		log.DroppedKey, p.Raw.NumRows()-p.Cleaned.NumRows(),
	)

	p.FeatureTable, p.LabelTable, err = dataset.Split(p.Cleaned, cfg.Features, cfg.Labels)
	if err != nil {
		return nil, stageError(log.StageSplit, err)
	}
	stageDone(log.StageSplit, log.FeaturesKey, p.FeatureTable.NumCols())

	if p.X, err = preprocessing.ToDense(p.FeatureTable); err != nil {
		return nil, stageError(log.StageFlatten, err)
	}
	stageDone(log.StageFlatten, log.SamplesKey, p.FeatureTable.NumRows(), log.FeaturesKey, p.FeatureTable.NumCols())

	if p.Y, err = p.Encoder.TransformVec(p.LabelTable); err != nil {
		return nil, stageError(log.StageEncode, err)
	}
	if p.Y.Len() != p.FeatureTable.NumRows() {
		return nil, stageError(log.StageEncode,
			errors.NewDimensionError("pipeline.Prepare", p.FeatureTable.NumRows(), p.Y.Len(), 0))
	}
	stageDone(log.StageEncode, log.ClassesKey, p.Encoder.Classes())
	return p, nil
}

// Run prepares the data, fits a LogisticRegression on a shuffled 70/30
// split and scores it on the held-out rows.
func Run(cfg *config.Config) (*Result, error) {
	p, err := Prepare(cfg)
	if err != nil {
		return nil, err
	}
	res, err := Train(p, cfg)
	if err != nil {
		p.Release()
		return nil, err
	}
	return res, nil
}

// Train fits and evaluates on prepared data.
func Train(p *Prepared, cfg *config.Config) (*Result, error) {
	split, err := model_selection.TrainTestSplit(p.X, p.Y,
		model_selection.WithTestSize(cfg.Split.TestSize),
		model_selection.WithShuffle(cfg.Split.Shuffle),
		model_selection.WithStratify(cfg.Split.Stratify),
		model_selection.WithRandomState(cfg.Split.RandomState),
	)
	if err != nil {
		return nil, stageError(log.StageTrain, err)
	}

	scaler, err := preprocessing.NewScaler(cfg.Model.Scaler)
	if err != nil {
		return nil, stageError(log.StageTrain, err)
	}
	XTrain, err := scaler.FitTransform(split.XTrain)
	if err != nil {
		return nil, stageError(log.StageTrain, err)
	}
	XTest, err := scaler.Transform(split.XTest)
	if err != nil {
		return nil, stageError(log.StageTrain, err)
	}

	clf := linear_model.NewLogisticRegression(
		linear_model.WithLRC(cfg.Model.C),
		linear_model.WithLRMaxIter(cfg.Model.MaxIter),
		linear_model.WithLRTol(cfg.Model.Tol),
		linear_model.WithLRMultiClass(cfg.Model.MultiClass),
		linear_model.WithLRRandomState(cfg.Model.RandomState),
	)
	if err := clf.Fit(XTrain, split.YTrain); err != nil {
		return nil, stageError(log.StageTrain, err)
	}
	stageDone(log.StageTrain,
		log.TrainSizeKey, split.YTrain.Len(),
		log.IterationKey, clf.NIter(),
		log.LossKey, clf.Loss(),
	)

	pred, err := clf.Predict(XTest)
	if err != nil {
		return nil, stageError(log.StageEvaluate, err)
	}
	yPred := mat.NewVecDense(split.YTest.Len(), mat.Col(nil, 0, pred))
	acc, err := metrics.Accuracy(split.YTest, yPred)
	if err != nil {
		return nil, stageError(log.StageEvaluate, err)
	}
	cm, err := metrics.ConfusionMatrix(split.YTest, yPred)
	if err != nil {
		return nil, stageError(log.StageEvaluate, err)
	}
	stageDone(log.StageEvaluate, log.TestSizeKey, split.YTest.Len(), log.AccuracyKey, acc)

	return &Result{
		Prepared:  p,
		TrainSize: split.YTrain.Len(),
		TestSize:  split.YTest.Len(),
		Accuracy:  acc,
		Confusion: cm,
		Model:     clf,
		Scaler:    scaler,
	}, nil
}

func stageDone(stage string, fields ...any) {
	log.GetLoggerWithName("pipeline").Info("Stage complete", append([]any{log.StageKey, stage}, fields...)...)
}

func stageError(stage string, err error) error {
	log.GetLoggerWithName("pipeline").Error("Stage failed", err, log.StageKey, stage)
	return errors.Wrapf(err, "%s stage", stage)
}
