package components

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const ExponentialSmoothingRegressorName = "Exponential Smoothing Regressor"

func init() {
	Register(ExponentialSmoothingRegressorName, func(p model.Parameters) (Component, error) {
		return NewExponentialSmoothingRegressor(p)
	})
}

// 減衰係数の探索範囲
const (
	minDamping = 0.8
	maxDamping = 0.98
)

// ExponentialSmoothingRegressor forecasts y with additive Holt-Winters
// smoothing. X is only used for its row count: Predict forecasts that many
// steps past the end of the training series.
type ExponentialSmoothingRegressor struct {
	base
	trend    bool
	damped   bool
	seasonal bool
	sp       int

	state *model.StateManager
	fit   smoothingState
}

type smoothingState struct {
	State model.ModelState

	Alpha float64
	Beta  float64
	Gamma float64
	Phi   float64

	Level  float64
	Slope  float64
	Season []float64
	N      int
	SSE    float64
}

// NewExponentialSmoothingRegressor accepts trend (nil or "additive"),
// damped_trend, seasonal (nil or "additive") and sp, the season length.
func NewExponentialSmoothingRegressor(params model.Parameters) (*ExponentialSmoothingRegressor, error) {
	defaults := model.Parameters{"trend": nil, "damped_trend": false, "seasonal": nil, "sp": 2}
	ranges := map[string]Range{
		"trend":        Categorical(nil, "additive"),
		"damped_trend": Categorical(true, false),
		"seasonal":     Categorical(nil, "additive"),
		"sp":           Integer(2, 8),
	}
	b, err := newBase(ExponentialSmoothingRegressorName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}
	e := &ExponentialSmoothingRegressor{base: b, state: model.NewStateManager()}

	for _, key := range []string{"trend", "seasonal"} {
		v, err := b.params.String(key, "")
		if err != nil || (v != "" && v != "additive") {
			return nil, errors.NewValidationError(key, "must be nil or \"additive\"", b.params[key])
		}
		if key == "trend" {
			e.trend = v == "additive"
		} else {
			e.seasonal = v == "additive"
		}
	}
	if e.damped, err = b.params.Bool("damped_trend", false); err != nil {
		return nil, errors.NewValidationError("damped_trend", err.Error(), b.params["damped_trend"])
	}
	if e.damped && !e.trend {
		return nil, errors.NewValidationError("damped_trend", "requires trend=\"additive\"", true)
	}
	if e.sp, err = b.params.Int("sp", 2); err != nil || e.sp < 1 {
		return nil, errors.NewValidationError("sp", "must be a positive integer", b.params["sp"])
	}
	return e, nil
}

// Fit estimates the smoothing parameters by minimising the one-step-ahead
// squared error with Nelder-Mead.
func (e *ExponentialSmoothingRegressor) Fit(X mat.Matrix, y *mat.VecDense) error {
	if y == nil || y.Len() == 0 {
		return errors.NewValueError(ExponentialSmoothingRegressorName, "Exponential Smoothing Regressor requires y as input.")
	}
	if X != nil {
		if r, _ := X.Dims(); r != y.Len() {
			return errors.NewDimensionError("ExponentialSmoothingRegressor.Fit", y.Len(), r, 0)
		}
	}
	series := vecData(y)
	minLen := 2
	if e.seasonal {
		minLen = 2 * e.sp
	}
	if len(series) < minLen {
		return errors.NewValueError("ExponentialSmoothingRegressor.Fit",
			"series is too short for the requested trend and seasonal components")
	}

	problem := optimize.Problem{Func: func(u []float64) float64 {
		st := e.run(series, e.unpack(u))
		return st.SSE
	}}
	x0 := make([]float64, e.nParams())
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if result == nil {
		return errors.Wrap(err, "ExponentialSmoothingRegressor.Fit")
	}
	st := e.run(series, e.unpack(result.X))
	if err := errors.CheckScalar("ExponentialSmoothingRegressor.Fit", st.SSE, result.Stats.MajorIterations); err != nil {
		return err
	}
	e.fit = st

	cols := 0
	if X != nil {
		_, cols = X.Dims()
	}
	e.state.SetDimensions(cols, len(series))
	e.state.SetFitted()
	return nil
}

func (e *ExponentialSmoothingRegressor) nParams() int {
	n := 1
	if e.trend {
		n++
	}
	if e.seasonal {
		n++
	}
	if e.damped {
		n++
	}
	return n
}

func logistic(u float64) float64 { return 1 / (1 + math.Exp(-u)) }

// unpack maps unconstrained optimiser coordinates to alpha, beta, gamma, phi.
func (e *ExponentialSmoothingRegressor) unpack(u []float64) smoothingState {
	st := smoothingState{Phi: 1}
	i := 0
	st.Alpha = logistic(u[i])
	i++
	if e.trend {
		st.Beta = logistic(u[i])
		i++
	}
	if e.seasonal {
		st.Gamma = logistic(u[i])
		i++
	}
	if e.damped {
		st.Phi = minDamping + (maxDamping-minDamping)*logistic(u[i])
	}
	return st
}

// run filters the series with the given smoothing parameters and returns
// the final components together with the sum of squared one-step errors.
func (e *ExponentialSmoothingRegressor) run(y []float64, st smoothingState) smoothingState {
	sp := 1
	if e.seasonal {
		sp = e.sp
	}
	season := make([]float64, sp)
	level := y[0]
	slope := 0.0
	if e.seasonal {
		level = mean(y[:sp])
		for j := 0; j < sp; j++ {
			season[j] = y[j] - level
		}
		if e.trend {
			slope = (mean(y[sp:2*sp]) - level) / float64(sp)
		}
	} else if e.trend {
		slope = y[1] - y[0]
	}

	var sse float64
	for t, obs := range y {
		s := season[t%sp]
		forecast := level + st.Phi*slope + s
		diff := obs - forecast
		sse += diff * diff

		prevLevel := level
		level = st.Alpha*(obs-s) + (1-st.Alpha)*(prevLevel+st.Phi*slope)
		if e.trend {
			slope = st.Beta*(level-prevLevel) + (1-st.Beta)*st.Phi*slope
		}
		if e.seasonal {
			season[t%sp] = st.Gamma*(obs-level) + (1-st.Gamma)*s
		}
	}
	st.Level, st.Slope, st.Season, st.N, st.SSE = level, slope, season, len(y), sse
	return st
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// Predict forecasts one value per row of X, starting one step after the
// training series.
func (e *ExponentialSmoothingRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := e.state.RequireFitted(ExponentialSmoothingRegressorName, "Predict"); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := mat.NewVecDense(r, nil)
	damp := 0.0
	phiPow := 1.0
	for h := 1; h <= r; h++ {
		phiPow *= e.fit.Phi
		damp += phiPow
		v := e.fit.Level + damp*e.fit.Slope
		if len(e.fit.Season) > 0 {
			v += e.fit.Season[(e.fit.N+h-1)%len(e.fit.Season)]
		}
		out.SetVec(h-1, v)
	}
	return out, nil
}

func (e *ExponentialSmoothingRegressor) PredictProba(mat.Matrix) (*mat.Dense, error) {
	return nil, notProbabilistic(ExponentialSmoothingRegressorName)
}

// SmoothingParameters returns the fitted alpha, beta, gamma and phi.
func (e *ExponentialSmoothingRegressor) SmoothingParameters() (alpha, beta, gamma, phi float64) {
	return e.fit.Alpha, e.fit.Beta, e.fit.Gamma, e.fit.Phi
}

func (e *ExponentialSmoothingRegressor) ModelFamily() model.ModelFamily {
	return model.ExponentialSmoothing
}

func (e *ExponentialSmoothingRegressor) SupportedProblemTypes() []model.ProblemType {
	return []model.ProblemType{model.TimeSeriesRegression}
}

// FeatureImportance is a single zero: the forecast ignores X.
func (e *ExponentialSmoothingRegressor) FeatureImportance() ([]float64, error) {
	return []float64{0}, nil
}

func (e *ExponentialSmoothingRegressor) IsFitted() bool { return e.state.IsFitted() }

func (e *ExponentialSmoothingRegressor) ExportState() ([]byte, error) {
	st := e.fit
	st.State = e.state.GetState()
	return model.EncodeGob(st)
}

func (e *ExponentialSmoothingRegressor) ImportState(data []byte) error {
	if err := model.DecodeGob(data, &e.fit); err != nil {
		return err
	}
	e.state.SetState(e.fit.State)
	return nil
}
