package components

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/preprocessing"
)

const (
	BaselineClassifierName = "Baseline Classifier"
	BaselineRegressorName  = "Baseline Regressor"
)

func init() {
	Register(BaselineClassifierName, func(p model.Parameters) (Component, error) { return NewBaselineClassifier(p) })
	Register(BaselineRegressorName, func(p model.Parameters) (Component, error) { return NewBaselineRegressor(p) })
}

type baselineState struct {
	State     model.ModelState
	Classes   []float64
	Weights   []float64
	Mode      float64
	Value     float64
	NFeatures int
}

// BaselineClassifier predicts without looking at X. Strategies: "mode"
// always predicts the most frequent class, "random" draws uniformly and
// "random_weighted" draws by class frequency.
type BaselineClassifier struct {
	base
	strategy string
	state    *model.StateManager
	st       baselineState
}

func NewBaselineClassifier(params model.Parameters) (*BaselineClassifier, error) {
	defaults := model.Parameters{"strategy": "mode", "random_seed": 0}
	ranges := map[string]Range{}
	b, err := newBase(BaselineClassifierName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}
	strategy, _ := b.params.String("strategy", "mode")
	switch strategy {
	case "mode", "random", "random_weighted":
	default:
		return nil, errors.NewValueError("BaselineClassifier", "'strategy' parameter must equal either 'mode', 'random', or 'random_weighted'")
	}
	return &BaselineClassifier{base: b, strategy: strategy, state: model.NewStateManager()}, nil
}

func (c *BaselineClassifier) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireTarget("BaselineClassifier.Fit", y); err != nil {
		return err
	}
	if err := requireRows("BaselineClassifier.Fit", X, y); err != nil {
		return err
	}
	classes := distinctClasses(y)
	counts := make(map[float64]float64, len(classes))
	for i := 0; i < y.Len(); i++ {
		counts[y.AtVec(i)]++
	}
	weights := make([]float64, len(classes))
	mode := classes[0]
	for i, cls := range classes {
		weights[i] = counts[cls] / float64(y.Len())
		if counts[cls] > counts[mode] {
			mode = cls
		}
	}
	r, cols := X.Dims()
	c.st = baselineState{Classes: classes, Weights: weights, Mode: mode, NFeatures: cols}
	c.state.SetDimensions(cols, r)
	c.state.SetFitted()
	return nil
}

func (c *BaselineClassifier) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := c.state.RequireFitted(BaselineClassifierName, "Predict"); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := mat.NewVecDense(r, nil)
	rng := rand.New(rand.NewSource(c.seed))
	for i := 0; i < r; i++ {
		switch c.strategy {
		case "mode":
			out.SetVec(i, c.st.Mode)
		case "random":
			out.SetVec(i, c.st.Classes[rng.Intn(len(c.st.Classes))])
		default:
			out.SetVec(i, c.st.Classes[weightedChoice(rng, c.st.Weights)])
		}
	}
	return out, nil
}

func weightedChoice(rng *rand.Rand, weights []float64) int {
	u := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	return len(weights) - 1
}

// PredictProba は戦略ごとの固定確率を返す
func (c *BaselineClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if err := c.state.RequireFitted(BaselineClassifierName, "PredictProba"); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	k := len(c.st.Classes)
	row := make([]float64, k)
	for j, cls := range c.st.Classes {
		switch c.strategy {
		case "mode":
			if cls == c.st.Mode {
				row[j] = 1
			}
		case "random":
			row[j] = 1 / float64(k)
		default:
			row[j] = c.st.Weights[j]
		}
	}
	out := mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		out.SetRow(i, row)
	}
	return out, nil
}

func (c *BaselineClassifier) ModelFamily() model.ModelFamily { return model.Baseline }

func (c *BaselineClassifier) SupportedProblemTypes() []model.ProblemType {
	return []model.ProblemType{model.Binary, model.Multiclass}
}

// FeatureImportance is all zeros.
func (c *BaselineClassifier) FeatureImportance() ([]float64, error) {
	if err := c.state.RequireFitted(BaselineClassifierName, "FeatureImportance"); err != nil {
		return nil, err
	}
	return make([]float64, c.st.NFeatures), nil
}

func (c *BaselineClassifier) IsFitted() bool { return c.state.IsFitted() }

func (c *BaselineClassifier) ExportState() ([]byte, error) {
	st := c.st
	st.State = c.state.GetState()
	return model.EncodeGob(st)
}

func (c *BaselineClassifier) ImportState(data []byte) error {
	if err := model.DecodeGob(data, &c.st); err != nil {
		return err
	}
	c.state.SetState(c.st.State)
	return nil
}

// BaselineRegressor predicts the training mean or median.
type BaselineRegressor struct {
	base
	strategy string
	state    *model.StateManager
	st       baselineState
}

func NewBaselineRegressor(params model.Parameters) (*BaselineRegressor, error) {
	b, err := newBase(BaselineRegressorName, model.Parameters{"strategy": "mean"}, params, nil)
	if err != nil {
		return nil, err
	}
	strategy, _ := b.params.String("strategy", "mean")
	if strategy != "mean" && strategy != "median" {
		return nil, errors.NewValueError("BaselineRegressor", "'strategy' parameter must equal either 'mean' or 'median'")
	}
	return &BaselineRegressor{base: b, strategy: strategy, state: model.NewStateManager()}, nil
}

func (r *BaselineRegressor) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireTarget("BaselineRegressor.Fit", y); err != nil {
		return err
	}
	if err := requireRows("BaselineRegressor.Fit", X, y); err != nil {
		return err
	}
	values := vecData(y)
	value := stat.Mean(values, nil)
	if r.strategy == "median" {
		value = preprocessing.Median(values)
	}
	rows, cols := X.Dims()
	r.st = baselineState{Value: value, NFeatures: cols}
	r.state.SetDimensions(cols, rows)
	r.state.SetFitted()
	return nil
}

func (r *BaselineRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := r.state.RequireFitted(BaselineRegressorName, "Predict"); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, r.st.Value)
	}
	return out, nil
}

func (r *BaselineRegressor) PredictProba(mat.Matrix) (*mat.Dense, error) {
	return nil, notProbabilistic(BaselineRegressorName)
}

func (r *BaselineRegressor) ModelFamily() model.ModelFamily { return model.Baseline }

func (r *BaselineRegressor) SupportedProblemTypes() []model.ProblemType {
	return []model.ProblemType{model.Regression, model.TimeSeriesRegression}
}

func (r *BaselineRegressor) FeatureImportance() ([]float64, error) {
	if err := r.state.RequireFitted(BaselineRegressorName, "FeatureImportance"); err != nil {
		return nil, err
	}
	return make([]float64, r.st.NFeatures), nil
}

func (r *BaselineRegressor) IsFitted() bool { return r.state.IsFitted() }

func (r *BaselineRegressor) ExportState() ([]byte, error) {
	st := r.st
	st.State = r.state.GetState()
	return model.EncodeGob(st)
}

func (r *BaselineRegressor) ImportState(data []byte) error {
	if err := model.DecodeGob(data, &r.st); err != nil {
		return err
	}
	r.state.SetState(r.st.State)
	return nil
}
