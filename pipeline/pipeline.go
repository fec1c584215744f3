// Package pipeline assembles components into a validated graph and runs
// the fit/predict lifecycle over it.
//
// A pipeline is described either as a linear chain
//
//	spec := pipeline.Linear(
//	    pipeline.Key("Simple Imputer"),
//	    pipeline.Key("Standard Scaler"),
//	    pipeline.Key("Logistic Regression Classifier"),
//	)
//
// or as a graph whose nodes name their inputs ("X", "y", "<node>.x",
// "<node>.y"). Both forms are normalised into one ComponentGraph before
// validation; Build fails with a StructuralError on any wiring violation,
// before anything is fitted.
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/core/parallel"
	"github.com/YuminosukeSato/goautoml/objectives"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
	"github.com/YuminosukeSato/goautoml/pkg/monitor"
	"github.com/YuminosukeSato/goautoml/preprocessing"
)

type config struct {
	parameters map[string]model.Parameters
	objective  objectives.Objective
	seed       int64
	nJobs      interface{}
	name       string
	logger     log.Logger
	metrics    *monitor.Metrics
	threshold  *float64
}

// Option configures Build.
type Option func(*config)

// WithParameters overrides component parameters by node name.
func WithParameters(params map[string]model.Parameters) Option {
	return func(c *config) { c.parameters = params }
}

// WithObjective sets the objective Score uses. The default depends on the
// problem type (see objectives.DefaultFor).
func WithObjective(o objectives.Objective) Option {
	return func(c *config) { c.objective = o }
}

// WithRandomSeed sets the seed given to every seeded component that was
// not constructed with an explicit random_seed. Default 0.
func WithRandomSeed(seed int64) Option {
	return func(c *config) { c.seed = seed }
}

// WithNJobs sets n_jobs for components built from a registry key that did
// not get one through WithParameters. nil means -1 (all CPUs); zero and
// non-integers are rejected.
func WithNJobs(n interface{}) Option {
	return func(c *config) { c.nJobs = n }
}

// WithCustomName replaces the generated "<Estimator> w/ ..." name.
func WithCustomName(name string) Option {
	return func(c *config) { c.name = name }
}

func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

func WithMetrics(m *monitor.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithThreshold makes a binary pipeline predict the positive class when
// its probability is at least t, instead of using the estimator's own
// decision rule.
func WithThreshold(t float64) Option {
	return func(c *config) { c.threshold = &t }
}

// Pipeline is a validated component graph with its metadata. The wiring is
// fixed at Build; only the learned state changes, through Fit.
type Pipeline struct {
	id          string
	name        string
	customName  bool
	problemType model.ProblemType
	spec        Spec
	opts        []Option
	graph       *ComponentGraph
	objective   objectives.Objective
	seed        int64
	nJobs       int
	threshold   *float64
	encoder     *preprocessing.LabelEncoder
	state       *model.StateManager
	logger      log.Logger
	metrics     *monitor.Metrics
}

// Build normalises spec, constructs its components and validates the graph.
func Build(problemType model.ProblemType, spec Spec, opts ...Option) (*Pipeline, error) {
	const op = "pipeline.Build"
	if problemType.String() == "Unknown" {
		return nil, errors.NewValidationError("problem_type", "unknown problem type", int(problemType))
	}
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	nJobs, err := parallel.ValidateNJobs(cfg.nJobs)
	if err != nil {
		return nil, err
	}

	nodes := spec.nodes()
	if err := checkWiring(nodes); err != nil {
		return nil, err
	}
	declared := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		declared[n.Name] = true
	}
	for name := range cfg.parameters {
		if !declared[name] {
			return nil, errors.NewStructuralErrorf(op, "parameters given for %q, which is not in the component graph", name)
		}
	}

	comps := make([]components.Component, len(nodes))
	for i, n := range nodes {
		if comps[i], err = instantiate(n.Component, cfg.parameters[n.Name], cfg.seed, nJobs); err != nil {
			return nil, errors.Wrapf(err, "%s: component %q", op, n.Name)
		}
	}
	g, err := newComponentGraph(nodes, comps, spec.IsLinear())
	if err != nil {
		return nil, err
	}
	est := g.estimator()
	if !components.Supports(est, problemType) {
		return nil, errors.NewStructuralErrorf(op, "%s does not support %s problems", est.Name(), problemType)
	}

	objective := cfg.objective
	if objective == nil {
		objective = objectives.DefaultFor(problemType)
	}
	if !objectives.Supports(objective, problemType) {
		return nil, errors.NewValueError(op, fmt.Sprintf("objective %q is not compatible with a %s pipeline", objective.Name(), problemType))
	}
	if cfg.threshold != nil {
		t := *cfg.threshold
		if !problemType.IsBinary() {
			return nil, errors.NewValueError(op, "a threshold only applies to binary classification pipelines")
		}
		if math.IsNaN(t) || t < 0 || t > 1 {
			return nil, errors.NewValidationError("threshold", "must be within [0, 1]", t)
		}
	}

	p := &Pipeline{
		id:          uuid.NewString(),
		name:        cfg.name,
		customName:  cfg.name != "",
		problemType: problemType,
		spec:        spec,
		opts:        append([]Option(nil), opts...),
		graph:       g,
		objective:   objective,
		seed:        cfg.seed,
		nJobs:       nJobs,
		threshold:   cfg.threshold,
		state:       model.NewStateManager(),
		metrics:     cfg.metrics,
	}
	if !p.customName {
		p.name = generatedName(g)
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.GetLoggerWithName("pipeline")
	}
	p.logger = logger.With(log.PipelineNameKey, p.name, log.PipelineIDKey, p.id)
	return p, nil
}

// instantiate builds the component for one node. Parameter overrides are
// laid over an instance's own parameters; the pipeline seed and n_jobs
// only fill in what the caller did not set.
func instantiate(it Item, override model.Parameters, seed int64, nJobs int) (components.Component, error) {
	var c components.Component
	var err error
	switch {
	case it.instance != nil && len(override) == 0:
		c, err = components.Clone(it.instance)
	case it.instance != nil:
		c, err = components.New(it.instance.Name(), userParams(it.instance).Merge(override))
	default:
		c, err = components.New(it.key, override.Clone())
		if err == nil && c.Parameters().Has("n_jobs") && !override.Has("n_jobs") {
			c, err = components.New(it.key, override.Merge(model.Parameters{"n_jobs": nJobs}))
		}
	}
	if err != nil {
		return nil, err
	}
	return components.WithSeed(c, seed)
}

// userParams drops a random_seed that came from the component defaults.
func userParams(c components.Component) model.Parameters {
	params := c.Parameters()
	if s, ok := c.(components.Seeded); ok && !s.SeedExplicit() {
		delete(params, "random_seed")
	}
	return params
}

// generatedName is "<estimator> w/ <first> + <second> ..." in execution order.
func generatedName(g *ComponentGraph) string {
	name := g.estimator().Name()
	sep := " w/ "
	for _, gn := range g.order {
		if gn == g.terminal {
			continue
		}
		name += sep + gn.component.Name()
		sep = " + "
	}
	return name
}

func (p *Pipeline) ID() string                      { return p.id }
func (p *Pipeline) Name() string                    { return p.name }
func (p *Pipeline) ProblemType() model.ProblemType  { return p.problemType }
func (p *Pipeline) Objective() objectives.Objective { return p.objective }
func (p *Pipeline) RandomSeed() int64               { return p.seed }
func (p *Pipeline) NJobs() int                      { return p.nJobs }
func (p *Pipeline) IsFitted() bool                  { return p.state.IsFitted() }

// Graph returns the pipeline's component graph.
func (p *Pipeline) Graph() *ComponentGraph { return p.graph }

// Estimator returns the final component.
func (p *Pipeline) Estimator() components.Estimator { return p.graph.estimator() }

// ProblemTypes lists what the final estimator supports.
func (p *Pipeline) ProblemTypes() []model.ProblemType {
	return p.graph.estimator().SupportedProblemTypes()
}

func (p *Pipeline) ModelFamily() model.ModelFamily { return p.graph.estimator().ModelFamily() }

// Threshold returns the binary decision threshold, if one was set.
func (p *Pipeline) Threshold() (float64, bool) {
	if p.threshold == nil {
		return 0, false
	}
	return *p.threshold, true
}

// Parameters returns every component's effective parameters by node name.
func (p *Pipeline) Parameters() map[string]model.Parameters {
	out := make(map[string]model.Parameters, len(p.graph.nodes))
	for _, gn := range p.graph.nodes {
		out[gn.name] = gn.component.Parameters()
	}
	return out
}

// Classes returns the class labels in encoded order, or nil before Fit and
// for regression.
func (p *Pipeline) Classes() []string {
	if p.encoder == nil {
		return nil
	}
	return append([]string(nil), p.encoder.Classes...)
}

// Clone returns an unfitted pipeline built from the same spec and options.
func (p *Pipeline) Clone() (*Pipeline, error) {
	return Build(p.problemType, p.spec, p.opts...)
}

// Fit trains every component in execution order. Classification targets
// are label-encoded first; the last class is the positive class of a
// binary problem.
func (p *Pipeline) Fit(X mat.Matrix, y model.Target) error {
	start := time.Now()
	err := p.fit(X, y)
	elapsed := time.Since(start)
	p.metrics.ObserveFit(p.graph.estimator().Name(), elapsed, err)
	if err != nil {
		p.logger.Error("pipeline fit failed", err, log.OperationKey, log.OperationFit)
		return err
	}
	p.logger.Debug("pipeline fitted", log.OperationKey, log.OperationFit, log.DurationMsKey, elapsed.Milliseconds())
	return nil
}

func (p *Pipeline) fit(X mat.Matrix, y model.Target) error {
	const op = "pipeline.Fit"
	if X == nil {
		return errors.NewValueError(op, "X is nil")
	}
	rows, cols := X.Dims()
	var target *mat.VecDense
	var encoder *preprocessing.LabelEncoder
	if !y.IsNil() {
		if y.Len() != rows {
			return errors.NewDimensionError(op, rows, y.Len(), 0)
		}
		var err error
		if target, encoder, err = p.encodeForFit(y); err != nil {
			return err
		}
	}

	p.state.Reset()
	p.encoder = nil
	classification := p.problemType.IsClassification()
	if err := p.graph.fit(X, target, classification, p.logger); err != nil {
		return err
	}
	p.encoder = encoder
	p.state.SetDimensions(cols, rows)
	p.state.SetFitted()
	return nil
}

func (p *Pipeline) encodeForFit(y model.Target) (*mat.VecDense, *preprocessing.LabelEncoder, error) {
	const op = "pipeline.Fit"
	if !p.problemType.IsClassification() {
		v := y.Vector()
		for i := 0; i < v.Len(); i++ {
			if math.IsNaN(v.AtVec(i)) {
				return nil, nil, errors.NewValueError(op, "regression targets must be numeric")
			}
		}
		return v, nil, nil
	}
	enc := preprocessing.NewLabelEncoder()
	codes, err := enc.FitTransform(y)
	if err != nil {
		return nil, nil, err
	}
	if p.problemType.IsBinary() && enc.NClasses() != 2 {
		return nil, nil, errors.NewValueError(op, fmt.Sprintf("Binary pipelines require y to have 2 unique classes, got %d", enc.NClasses()))
	}
	return mat.NewVecDense(len(codes), codes), enc, nil
}

// EncodeTargets maps y to the encoded values the components were trained
// on: class indices for classification, the values themselves otherwise.
func (p *Pipeline) EncodeTargets(y model.Target) (*mat.VecDense, error) {
	if err := p.state.RequireFitted(p.name, "EncodeTargets"); err != nil {
		return nil, err
	}
	if y.IsNil() || y.Len() == 0 {
		return nil, errors.Wrap(errors.ErrTargetIsNone, "pipeline.EncodeTargets")
	}
	if p.encoder == nil {
		return y.Vector(), nil
	}
	codes, err := p.encoder.Transform(y)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(codes), codes), nil
}

func (p *Pipeline) requireFitted(method string, X mat.Matrix) error {
	if err := p.state.RequireFitted(p.name, method); err != nil {
		return err
	}
	if X == nil {
		return errors.NewValueError("pipeline."+method, "X is nil")
	}
	_, cols := X.Dims()
	return p.state.RequireFeatures("pipeline."+method, cols)
}

// predictEncoded returns encoded predictions.
func (p *Pipeline) predictEncoded(X mat.Matrix) (*mat.VecDense, error) {
	if err := p.requireFitted("Predict", X); err != nil {
		return nil, err
	}
	in, err := p.graph.finalInput(X, p.problemType.IsClassification())
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	p.metrics.ObservePredictions(log.OperationPredict, rows)
	if p.threshold != nil {
		proba, err := p.graph.estimator().PredictProba(in)
		if err != nil {
			return nil, err
		}
		r, c := proba.Dims()
		out := mat.NewVecDense(r, nil)
		for i := 0; i < r; i++ {
			if proba.At(i, c-1) >= *p.threshold {
				out.SetVec(i, 1)
			}
		}
		return out, nil
	}
	return p.graph.estimator().Predict(in)
}

// Predict returns predictions in the original label space.
func (p *Pipeline) Predict(X mat.Matrix) (model.Target, error) {
	encoded, err := p.predictEncoded(X)
	if err != nil {
		return model.Target{}, err
	}
	if p.encoder == nil {
		return model.FromVector(encoded), nil
	}
	codes := make([]float64, encoded.Len())
	for i := range codes {
		codes[i] = encoded.AtVec(i)
	}
	return p.encoder.InverseTransform(codes)
}

// PredictProba returns one column per class, ordered as Classes.
func (p *Pipeline) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if err := p.requireFitted("PredictProba", X); err != nil {
		return nil, err
	}
	if !p.problemType.IsClassification() {
		return nil, errors.NewNotImplementedError("predict_proba", p.name, "predict_proba is only available for classification pipelines")
	}
	in, err := p.graph.finalInput(X, true)
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	p.metrics.ObservePredictions(log.OperationPredictProba, rows)
	return p.graph.estimator().PredictProba(in)
}

// Score evaluates the pipeline objective, or objs when given, on (X, y).
// Scores are keyed by objective name.
func (p *Pipeline) Score(X mat.Matrix, y model.Target, objs ...objectives.Objective) (map[string]float64, error) {
	if len(objs) == 0 {
		objs = []objectives.Objective{p.objective}
	}
	if err := p.requireFitted("Score", X); err != nil {
		return nil, err
	}
	yTrue, err := p.EncodeTargets(y)
	if err != nil {
		return nil, err
	}

	var yPred *mat.VecDense
	var proba *mat.Dense
	scores := make(map[string]float64, len(objs))
	for _, o := range objs {
		if !objectives.Supports(o, p.problemType) {
			return nil, errors.NewValueError("pipeline.Score", fmt.Sprintf("objective %q does not support %s", o.Name(), p.problemType))
		}
		if o.ScoreNeedsProba() && proba == nil {
			if proba, err = p.PredictProba(X); err != nil {
				return nil, err
			}
		}
		if !o.ScoreNeedsProba() && yPred == nil {
			if yPred, err = p.predictEncoded(X); err != nil {
				return nil, err
			}
		}
		s, err := o.ObjectiveFunction(yTrue, yPred, proba, X)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline.Score: %s", o.Name())
		}
		scores[o.Name()] = s
		p.metrics.ObserveScore(p.name, o.Name(), s)
	}
	p.logger.Debug("pipeline scored", log.OperationKey, log.OperationScore, log.ObjectiveKey, p.objective.Name())
	return scores, nil
}

// FeatureImportance returns the final estimator's importances, one per
// column it was trained on.
func (p *Pipeline) FeatureImportance() ([]float64, error) {
	if err := p.state.RequireFitted(p.name, "FeatureImportance"); err != nil {
		return nil, err
	}
	return p.graph.estimator().FeatureImportance()
}

// Len returns the number of components.
func (p *Pipeline) Len() int { return len(p.graph.order) }

// Component returns the i-th component in execution order.
func (p *Pipeline) Component(i int) (components.Component, error) {
	if i < 0 || i >= len(p.graph.order) {
		return nil, errors.NewValueError("pipeline.Component", fmt.Sprintf("index %d out of range [0, %d)", i, len(p.graph.order)))
	}
	return p.graph.order[i].component, nil
}

// ComponentByName returns the component of the named node.
func (p *Pipeline) ComponentByName(name string) (components.Component, error) {
	gn, ok := p.graph.byName[name]
	if !ok {
		return nil, errors.NewValueError("pipeline.ComponentByName", fmt.Sprintf("Component %q is not in the graph", name))
	}
	return gn.component, nil
}

// Get looks a component up by position (int) or node name (string).
func (p *Pipeline) Get(key interface{}) (components.Component, error) {
	switch k := key.(type) {
	case int:
		return p.Component(k)
	case string:
		return p.ComponentByName(k)
	default:
		return nil, errors.NewValueError("pipeline.Get", fmt.Sprintf("index must be an int or a component name, got %T", key))
	}
}

// Set always fails: the structure of a built pipeline is immutable.
func (p *Pipeline) Set(key interface{}, c components.Component) error {
	return errors.NewUnsupportedOperationError("pipeline.Set", "Setting pipeline components is not supported.")
}

// Slice always fails.
func (p *Pipeline) Slice(start, end int) (*Pipeline, error) {
	return nil, errors.NewUnsupportedOperationError("pipeline.Slice", "Slicing pipelines is currently not supported.")
}
