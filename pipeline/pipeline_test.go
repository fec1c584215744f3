package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/objectives"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
)

// binaryData は x0 の符号でクラスが決まる分離可能なデータ
func binaryData(n int, positiveEvery int) (*mat.Dense, model.Target) {
	X := mat.NewDense(n, 2, nil)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		sign, label := -1.0, "no"
		if i%positiveEvery == 0 {
			sign, label = 1.0, "yes"
		}
		X.Set(i, 0, sign*(1+float64(i%5)*0.3))
		X.Set(i, 1, float64(i%7)/7)
		labels[i] = label
	}
	return X, model.Labels(labels)
}

func regressionData(n int) (*mat.Dense, model.Target) {
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := float64(i%10), float64(i%3)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y[i] = 3*a - 2*b + 1
	}
	return X, model.Floats(y)
}

func lrSpec() Spec {
	return Linear(
		Key(components.SimpleImputerName),
		Key(components.OneHotEncoderName),
		Key(components.StandardScalerName),
		Key(components.LogisticRegressionClassifierName),
	)
}

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func TestBuildLinear(t *testing.T) {
	p, err := Build(model.Binary, lrSpec(), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, "Logistic Regression Classifier w/ Simple Imputer + One Hot Encoder + Standard Scaler", p.Name())
	assert.Equal(t, model.LinearModel, p.ModelFamily())
	assert.Equal(t, []model.ProblemType{model.Binary, model.Multiclass, model.TimeSeriesBinary, model.TimeSeriesMulticlass}, p.ProblemTypes())
	assert.Equal(t, objectives.LogLossBinaryName, p.Objective().Name())
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []string{
		components.SimpleImputerName,
		components.OneHotEncoderName,
		components.StandardScalerName,
		components.LogisticRegressionClassifierName,
	}, p.Graph().Order())
	assert.NotEmpty(t, p.ID())
	assert.Equal(t, -1, p.NJobs())
}

func TestCustomName(t *testing.T) {
	p, err := Build(model.Binary, lrSpec(), WithCustomName("My Pipeline"), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, "My Pipeline", p.Name())
}

func TestIndexing(t *testing.T) {
	p, err := Build(model.Binary, lrSpec(), WithLogger(quietLogger()))
	require.NoError(t, err)

	c, err := p.Get(1)
	require.NoError(t, err)
	assert.Equal(t, components.OneHotEncoderName, c.Name())

	c, err = p.Get(components.StandardScalerName)
	require.NoError(t, err)
	assert.Equal(t, components.StandardScalerName, c.Name())

	_, err = p.Get(10)
	assert.Error(t, err)
	_, err = p.Get("Missing")
	assert.Error(t, err)
	_, err = p.Get(1.5)
	assert.Error(t, err)

	enc, _ := components.New(components.OneHotEncoderName, nil)
	err = p.Set(1, enc)
	var ue *errors.UnsupportedOperationError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Setting pipeline components is not supported.", err.Error())

	_, err = p.Slice(0, 1)
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Slicing pipelines is currently not supported.", err.Error())
}

func TestEstimatorNotLast(t *testing.T) {
	spec := Linear(
		Key(components.OneHotEncoderName),
		Key(components.SimpleImputerName),
		Key(components.LogisticRegressionClassifierName),
		Key(components.StandardScalerName),
	)
	_, err := Build(model.Binary, spec)
	var se *errors.StructuralError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, linearEstimatorMessage, se.Reason)
}

func TestBuildGraphValidation(t *testing.T) {
	lr := Key(components.LogisticRegressionClassifierName)
	scaler := Key(components.StandardScalerName)

	tests := []struct {
		name  string
		nodes []Node
		want  string
	}{
		{"empty", nil, "at least one component"},
		{"undefined reference", []Node{
			{Name: "Scaler", Component: scaler, Inputs: []string{"X"}},
			{Name: "LR", Component: lr, Inputs: []string{"Imputer.x", "y"}},
		}, "does not match any component"},
		{"duplicate name", []Node{
			{Name: "LR", Component: scaler, Inputs: []string{"X"}},
			{Name: "LR", Component: lr, Inputs: []string{"LR.x", "y"}},
		}, "Duplicate component name"},
		{"cycle", []Node{
			{Name: "A", Component: scaler, Inputs: []string{"B.x"}},
			{Name: "B", Component: scaler, Inputs: []string{"A.x"}},
			{Name: "LR", Component: lr, Inputs: []string{"B.x", "y"}},
		}, "cycle"},
		{"two final components", []Node{
			{Name: "Scaler", Component: scaler, Inputs: []string{"X"}},
			{Name: "LR", Component: lr, Inputs: []string{"X", "y"}},
		}, "exactly one final component"},
		{"final transformer", []Node{
			{Name: "LR", Component: lr, Inputs: []string{"X", "y"}},
			{Name: "Scaler", Component: scaler, Inputs: []string{"LR.x"}},
		}, "must be an Estimator"},
		{"no x input", []Node{
			{Name: "LR", Component: lr, Inputs: []string{"y"}},
		}, "no feature (x) input"},
		{"two y inputs", []Node{
			{Name: "Scaler", Component: scaler, Inputs: []string{"X", "y"}},
			{Name: "LR", Component: lr, Inputs: []string{"Scaler.x", "Scaler.y", "y"}},
		}, "more than one target"},
		{"bad selector", []Node{
			{Name: "Scaler", Component: scaler, Inputs: []string{"X"}},
			{Name: "LR", Component: lr, Inputs: []string{"Scaler.z", "y"}},
		}, "invalid output selector"},
		{"self reference", []Node{
			{Name: "LR", Component: lr, Inputs: []string{"LR.x", "y"}},
		}, "its own output"},
		{"unknown component", []Node{
			{Name: "RF", Component: Key("Random Forest Classifier"), Inputs: []string{"X", "y"}},
		}, "Unknown component name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(model.Binary, Graph(tt.nodes...))
			var se *errors.StructuralError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProblemTypeMismatch(t *testing.T) {
	_, err := Build(model.Regression, lrSpec())
	var se *errors.StructuralError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Reason, "does not support Regression")
}

func TestExecutionOrderFollowsDeclarationOnTies(t *testing.T) {
	nodes := []Node{
		{Name: "Select", Component: Key(components.SelectColumnsName), Inputs: []string{"Imputer.x"}},
		{Name: "Scaler", Component: Key(components.StandardScalerName), Inputs: []string{"X"}},
		{Name: "Imputer", Component: Key(components.SimpleImputerName), Inputs: []string{"X"}},
		{Name: "LR", Component: Key(components.LogisticRegressionClassifierName), Inputs: []string{"Scaler.x", "Select.x", "y"}},
	}
	p, err := Build(model.Binary, Graph(nodes...),
		WithParameters(map[string]model.Parameters{"Select": {"columns": []int{0}}}),
		WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Scaler", "Imputer", "Select", "LR"}, p.Graph().Order())
	assert.Equal(t, "LR", p.Graph().Terminal())
	assert.Equal(t, []string{"Scaler.x", "Select.x", "y"}, p.Graph().Inputs("LR"))

	X, y := binaryData(40, 2)
	require.NoError(t, p.Fit(X, y))
	importance, err := p.FeatureImportance()
	require.NoError(t, err)
	assert.Len(t, importance, 3) // 2 scaled + 1 selected
}

func TestDuplicateLinearComponentsAreRenamed(t *testing.T) {
	spec := Linear(
		Key(components.StandardScalerName),
		Key(components.StandardScalerName),
		Key(components.LogisticRegressionClassifierName),
	)
	p, err := Build(model.Binary, spec, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Standard Scaler_0", "Standard Scaler_1", components.LogisticRegressionClassifierName}, p.Graph().Order())
}

func TestFitPredictScore(t *testing.T) {
	X, y := binaryData(40, 2)
	p, err := Build(model.Binary, lrSpec(), WithObjective(objectives.MustGet(objectives.AccuracyBinaryName)), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))
	assert.True(t, p.IsFitted())
	assert.Equal(t, []string{"no", "yes"}, p.Classes())

	pred, err := p.Predict(X)
	require.NoError(t, err)
	require.Equal(t, y.Len(), pred.Len())
	for _, label := range pred.Strings() {
		assert.Contains(t, []string{"no", "yes"}, label)
	}

	proba, err := p.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 40, r)
	assert.Equal(t, 2, c)

	scores, err := p.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scores[objectives.AccuracyBinaryName], 0.9)

	scores, err = p.Score(X, y, objectives.MustGet(objectives.AUCName), objectives.MustGet(objectives.LogLossBinaryName))
	require.NoError(t, err)
	assert.Len(t, scores, 2)
	assert.Greater(t, scores[objectives.AUCName], 0.9)

	_, err = p.Score(X, y, objectives.MustGet(objectives.R2Name))
	assert.Error(t, err)
}

func TestBinaryRequiresTwoClasses(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	p, err := Build(model.Binary, lrSpec(), WithLogger(quietLogger()))
	require.NoError(t, err)
	err = p.Fit(X, model.Labels([]string{"a", "b", "c"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 unique classes")
}

func TestPredictBeforeFit(t *testing.T) {
	X, y := binaryData(10, 2)
	p, err := Build(model.Binary, lrSpec(), WithLogger(quietLogger()))
	require.NoError(t, err)

	var nf *errors.NotFittedError
	_, err = p.Predict(X)
	assert.True(t, errors.As(err, &nf))
	_, err = p.PredictProba(X)
	assert.True(t, errors.As(err, &nf))
	_, err = p.Score(X, y)
	assert.True(t, errors.As(err, &nf))
	_, err = p.FeatureImportance()
	assert.True(t, errors.As(err, &nf))
}

func TestFitWithoutTarget(t *testing.T) {
	X, _ := binaryData(10, 2)
	p, err := Build(model.Binary, lrSpec(), WithLogger(quietLogger()))
	require.NoError(t, err)
	err = p.Fit(X, model.Target{})
	assert.True(t, errors.Is(err, errors.ErrTargetIsNone), "got %v", err)
	assert.False(t, p.IsFitted())
}

func TestRegressionPipeline(t *testing.T) {
	X, y := regressionData(30)
	p, err := Build(model.Regression, Linear(Key(components.StandardScalerName), Key(components.LinearRegressorName)),
		WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	scores, err := p.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[objectives.R2Name], 1e-6)

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.True(t, pred.IsNumeric())
	assert.Nil(t, p.Classes())

	_, err = p.PredictProba(X)
	var ni *errors.NotImplementedError
	assert.True(t, errors.As(err, &ni))
}

func TestSeedPropagation(t *testing.T) {
	lr, err := components.New(components.LogisticRegressionClassifierName, model.Parameters{"random_seed": 3})
	require.NoError(t, err)

	p, err := Build(model.Binary, Linear(Key(components.OversamplerName), Use(lr)),
		WithRandomSeed(5), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.RandomSeed())

	sampler, err := p.Get(components.OversamplerName)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sampler.(components.Seeded).RandomSeed())

	got, err := p.Get(components.LogisticRegressionClassifierName)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.(components.Seeded).RandomSeed())

	// the instance passed in is not shared with the pipeline
	assert.NotSame(t, lr, got)
}

func TestReproducibility(t *testing.T) {
	X, y := binaryData(40, 4)
	build := func() *Pipeline {
		p, err := Build(model.Binary, Linear(Key(components.OversamplerName), Key(components.LogisticRegressionClassifierName)),
			WithRandomSeed(7), WithObjective(objectives.MustGet(objectives.F1Name)), WithLogger(quietLogger()))
		require.NoError(t, err)
		require.NoError(t, p.Fit(X, y))
		return p
	}
	a, err := build().Score(X, y)
	require.NoError(t, err)
	b, err := build().Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNJobs(t *testing.T) {
	for _, bad := range []interface{}{0, "5", 1.5} {
		_, err := Build(model.Binary, lrSpec(), WithNJobs(bad))
		require.Error(t, err, "n_jobs=%v", bad)
		assert.Contains(t, err.Error(), "n_jobs must be an non-zero integer")
	}
	for _, ok := range []interface{}{-4, 4, nil} {
		_, err := Build(model.Binary, lrSpec(), WithNJobs(ok), WithLogger(quietLogger()))
		assert.NoError(t, err, "n_jobs=%v", ok)
	}

	p, err := Build(model.Binary, lrSpec(), WithNJobs(2), WithLogger(quietLogger()),
		WithParameters(map[string]model.Parameters{components.StandardScalerName: {}}))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Parameters()[components.LogisticRegressionClassifierName]["n_jobs"])
}

func TestParameterOverrides(t *testing.T) {
	p, err := Build(model.Binary, lrSpec(), WithLogger(quietLogger()),
		WithParameters(map[string]model.Parameters{
			components.LogisticRegressionClassifierName: {"C": 0.5, "penalty": "l2"},
			components.SimpleImputerName:                {"impute_strategy": "mean"},
		}))
	require.NoError(t, err)
	params := p.Parameters()
	assert.Equal(t, 0.5, params[components.LogisticRegressionClassifierName]["C"])
	assert.Equal(t, "mean", params[components.SimpleImputerName]["impute_strategy"])

	_, err = Build(model.Binary, lrSpec(), WithParameters(map[string]model.Parameters{"Missing": {"a": 1}}))
	var se *errors.StructuralError
	assert.True(t, errors.As(err, &se))

	_, err = Build(model.Binary, lrSpec(), WithParameters(map[string]model.Parameters{
		components.StandardScalerName: {"not_a_param": 1},
	}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestDescribe(t *testing.T) {
	p, err := Build(model.Binary, lrSpec(), WithObjective(objectives.MustGet(objectives.RecallName)), WithLogger(quietLogger()))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.DescribeTo(&buf))
	out := buf.String()

	assert.Contains(t, out, "Logistic Regression Classifier w/ Simple Imputer + One Hot Encoder + Standard Scaler")
	assert.Contains(t, out, "Problem Types: Binary Classification, Multiclass Classification")
	assert.Contains(t, out, "Model Type: Linear Model")
	assert.Contains(t, out, "Objective to Optimize: Recall (greater is better)")
	assert.NotContains(t, out, "Number of features")
	for i := 0; i < p.Len(); i++ {
		c, _ := p.Component(i)
		assert.Contains(t, out, c.Name())
		for _, param := range c.Parameters().Keys() {
			assert.Contains(t, out, "\t * "+param+" : ")
		}
	}

	X, y := binaryData(20, 2)
	require.NoError(t, p.Fit(X, y))
	buf.Reset()
	require.NoError(t, p.DescribeTo(&buf))
	assert.Contains(t, buf.String(), "Number of features: 2")
}

func TestCloneIsUnfitted(t *testing.T) {
	X, y := binaryData(20, 2)
	p, err := Build(model.Binary, lrSpec(), WithRandomSeed(4), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	clone, err := p.Clone()
	require.NoError(t, err)
	assert.False(t, clone.IsFitted())
	assert.Equal(t, p.Name(), clone.Name())
	assert.Equal(t, p.Parameters(), clone.Parameters())
	assert.NotEqual(t, p.ID(), clone.ID())
}

func TestThreshold(t *testing.T) {
	X, y := binaryData(20, 2)
	p, err := Build(model.Binary, lrSpec(), WithThreshold(0), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))
	th, ok := p.Threshold()
	assert.True(t, ok)
	assert.Equal(t, 0.0, th)

	pred, err := p.Predict(X)
	require.NoError(t, err)
	for _, label := range pred.Strings() {
		assert.Equal(t, "yes", label)
	}

	_, err = Build(model.Regression, Linear(Key(components.LinearRegressorName)), WithThreshold(0.5))
	assert.Error(t, err)
	_, err = Build(model.Binary, lrSpec(), WithThreshold(1.5))
	assert.Error(t, err)
}

func TestFitLogsAndMetrics(t *testing.T) {
	logger, buf := log.NewTestLogger(log.LevelDebug)
	X, y := binaryData(20, 2)
	p, err := Build(model.Binary, lrSpec(), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	assert.True(t, logger.ContainsMessage("pipeline fitted"))
	assert.True(t, logger.ContainsField(log.NodeKey, components.StandardScalerName))
	assert.Contains(t, buf.String(), p.ID())
}
