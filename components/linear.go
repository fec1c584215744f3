package components

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/core/parallel"
	"github.com/YuminosukeSato/goautoml/linear"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/sklearn/linear_model"
)

const (
	LogisticRegressionClassifierName = "Logistic Regression Classifier"
	LinearRegressorName              = "Linear Regressor"
)

func init() {
	Register(LogisticRegressionClassifierName, func(p model.Parameters) (Component, error) {
		return NewLogisticRegressionClassifier(p)
	})
	Register(LinearRegressorName, func(p model.Parameters) (Component, error) { return NewLinearRegressor(p) })
}

func nJobsParam(params model.Parameters) (int, error) {
	return parallel.ValidateNJobs(params["n_jobs"])
}

// LogisticRegressionClassifier wraps linear_model.LogisticRegression.
type LogisticRegressionClassifier struct {
	base
	lr *linear_model.LogisticRegression
}

func NewLogisticRegressionClassifier(params model.Parameters) (*LogisticRegressionClassifier, error) {
	defaults := model.Parameters{
		"penalty":     "l2",
		"C":           1.0,
		"max_iter":    100,
		"n_jobs":      -1,
		"random_seed": 0,
	}
	ranges := map[string]Range{
		"penalty": Categorical("l2"),
		"C":       Real(0.01, 10),
	}
	b, err := newBase(LogisticRegressionClassifierName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}

	penalty, err := b.params.String("penalty", "l2")
	if err != nil || (penalty != "l2" && penalty != "none") {
		return nil, errors.NewValidationError("penalty", "must be \"l2\" or \"none\"", b.params["penalty"])
	}
	c, err := b.params.Float("C", 1.0)
	if err != nil || c <= 0 {
		return nil, errors.NewValidationError("C", "must be a positive number", b.params["C"])
	}
	maxIter, err := b.params.Int("max_iter", 100)
	if err != nil || maxIter <= 0 {
		return nil, errors.NewValidationError("max_iter", "must be a positive integer", b.params["max_iter"])
	}
	nJobs, err := nJobsParam(b.params)
	if err != nil {
		return nil, err
	}

	lr := linear_model.NewLogisticRegression(
		linear_model.WithLRPenalty(penalty),
		linear_model.WithLRC(c),
		linear_model.WithLRMaxIter(maxIter),
		linear_model.WithLRNJobs(nJobs),
		linear_model.WithLRRandomState(b.seed),
	)
	return &LogisticRegressionClassifier{base: b, lr: lr}, nil
}

func (c *LogisticRegressionClassifier) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireTarget("LogisticRegressionClassifier.Fit", y); err != nil {
		return err
	}
	if err := requireRows("LogisticRegressionClassifier.Fit", X, y); err != nil {
		return err
	}
	return c.lr.Fit(X, asColumn(y))
}

func (c *LogisticRegressionClassifier) Predict(X mat.Matrix) (*mat.VecDense, error) {
	pred, err := c.lr.Predict(X)
	if err != nil {
		return nil, err
	}
	return column(pred), nil
}

func (c *LogisticRegressionClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	proba, err := c.lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	if d, ok := proba.(*mat.Dense); ok {
		return d, nil
	}
	return mat.DenseCopyOf(proba), nil
}

func (c *LogisticRegressionClassifier) ModelFamily() model.ModelFamily { return model.LinearModel }

func (c *LogisticRegressionClassifier) SupportedProblemTypes() []model.ProblemType {
	return []model.ProblemType{model.Binary, model.Multiclass, model.TimeSeriesBinary, model.TimeSeriesMulticlass}
}

// FeatureImportance is the coefficient vector for binary problems and the
// per-feature L2 norm across the one-vs-rest models otherwise.
func (c *LogisticRegressionClassifier) FeatureImportance() ([]float64, error) {
	if !c.lr.IsFitted() {
		return nil, errors.NewNotFittedError(LogisticRegressionClassifierName, "FeatureImportance")
	}
	coef := c.lr.Coef()
	if len(coef) == 1 {
		return coef[0], nil
	}
	out := make([]float64, len(coef[0]))
	col := make([]float64, len(coef))
	for j := range out {
		for m := range coef {
			col[m] = coef[m][j]
		}
		out[j] = floats.Norm(col, 2)
	}
	return out, nil
}

func (c *LogisticRegressionClassifier) IsFitted() bool { return c.lr.IsFitted() }

func (c *LogisticRegressionClassifier) ExportState() ([]byte, error) { return c.lr.ExportState() }

func (c *LogisticRegressionClassifier) ImportState(data []byte) error { return c.lr.ImportState(data) }

// LinearRegressor wraps linear.LinearRegression.
type LinearRegressor struct {
	base
	lr *linear.LinearRegression
}

func NewLinearRegressor(params model.Parameters) (*LinearRegressor, error) {
	defaults := model.Parameters{"fit_intercept": true, "n_jobs": -1}
	ranges := map[string]Range{"fit_intercept": Categorical(true, false)}
	b, err := newBase(LinearRegressorName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}
	fitIntercept, err := b.params.Bool("fit_intercept", true)
	if err != nil {
		return nil, errors.NewValidationError("fit_intercept", err.Error(), b.params["fit_intercept"])
	}
	nJobs, err := nJobsParam(b.params)
	if err != nil {
		return nil, err
	}
	lr := linear.NewLinearRegression()
	lr.FitIntercept = fitIntercept
	lr.NJobs = nJobs
	return &LinearRegressor{base: b, lr: lr}, nil
}

func (r *LinearRegressor) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireTarget("LinearRegressor.Fit", y); err != nil {
		return err
	}
	if err := requireRows("LinearRegressor.Fit", X, y); err != nil {
		return err
	}
	return r.lr.Fit(X, asColumn(y))
}

func (r *LinearRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	pred, err := r.lr.Predict(X)
	if err != nil {
		return nil, err
	}
	return column(pred), nil
}

func (r *LinearRegressor) PredictProba(mat.Matrix) (*mat.Dense, error) {
	return nil, notProbabilistic(LinearRegressorName)
}

func (r *LinearRegressor) ModelFamily() model.ModelFamily { return model.LinearModel }

func (r *LinearRegressor) SupportedProblemTypes() []model.ProblemType {
	return []model.ProblemType{model.Regression, model.TimeSeriesRegression}
}

// FeatureImportance returns the fitted coefficients.
func (r *LinearRegressor) FeatureImportance() ([]float64, error) {
	if !r.lr.IsFitted() {
		return nil, errors.NewNotFittedError(LinearRegressorName, "FeatureImportance")
	}
	return r.lr.Weights(), nil
}

func (r *LinearRegressor) IsFitted() bool { return r.lr.IsFitted() }

func (r *LinearRegressor) ExportState() ([]byte, error) { return r.lr.ExportState() }

func (r *LinearRegressor) ImportState(data []byte) error { return r.lr.ImportState(data) }
