package log

// Standard attribute keys. The dotted prefixes group keys for filtering:
// model.*, ml.*, data.*, metrics.*, training.*, config.*, error.*.

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or transformer type.
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed ("fit", "predict", ...).
	OperationKey = "ml.operation"

	// ComponentKey identifies the package doing the work.
	ComponentKey = "ml.component"

	// StageKey names a pipeline stage ("load", "clean", "split", ...).
	StageKey = "ml.stage"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ColumnsKey  = "data.columns"
	ColumnKey   = "data.column"
	PathKey     = "data.path"

	// DroppedKey is the number of rows removed by cleaning.
	DroppedKey = "data.dropped_rows"

	// NullCellsKey is the number of cells coerced to null while loading.
	NullCellsKey = "data.null_cells"
	// MalformedRowsKey is the number of rows loaded as all null because the
	// CSV record itself was malformed.
	MalformedRowsKey = "data.malformed_rows"
)

// Metrics and training.
const (
	AccuracyKey   = "metrics.accuracy"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"
	ClassesKey    = "training.classes"
	TrainSizeKey  = "training.train_size"
	TestSizeKey   = "training.test_size"
	RandomSeedKey = "config.random_seed"
)

// Error context.
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	StageLoad     = "load"
	StageClean    = "clean"
	StageSplit    = "split"
	StageFlatten  = "flatten"
	StageEncode   = "encode"
	StageTrain    = "train"
	StageEvaluate = "evaluate"
)
