package log

// Attribute keys shared by every package that logs. Hierarchical names
// ("pipeline.name", "data.samples") keep the JSON output filterable.

// Component and operation context.
const (
	// ModelNameKey identifies the component type, e.g. "Logistic Regression Classifier".
	ModelNameKey = "model.name"

	// OperationKey is one of the Operation* values below.
	OperationKey = "ml.operation"

	// ComponentKey names the package or subsystem emitting the record.
	ComponentKey = "ml.component"

	PipelineNameKey = "pipeline.name"
	PipelineIDKey   = "pipeline.id"

	// NodeKey is the name of a node inside a component graph.
	NodeKey = "component.node"

	ProblemTypeKey = "pipeline.problem_type"
	ObjectiveKey   = "pipeline.objective"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
)

// Performance and results.
const (
	DurationMsKey = "perf.duration_ms"
	ScoreKey      = "metrics.score"
	IterationKey  = "training.iteration"
	LossKey       = "metrics.loss"

	// ThresholdKey records a decision threshold chosen by the sweep.
	ThresholdKey = "preds.threshold"
	BinsKey      = "sweep.bins"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Configuration.
const (
	RandomSeedKey = "config.random_seed"
	NJobsKey      = "config.n_jobs"
)

const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationPredictProba = "predict_proba"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationSweep        = "threshold_sweep"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
