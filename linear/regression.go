// Package linear provides ordinary least squares regression.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/core/parallel"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	state *model.StateManager

	FitIntercept bool
	NJobs        int

	weights   []float64
	intercept float64
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{state: model.NewStateManager(), FitIntercept: true, NJobs: -1}
}

// Fit はモデルを訓練データで学習させる。
// [1, X] w = y の最小ノルム最小二乗解を特異値分解で求めるため、
// one-hot 列が切片と共線でも失敗しない。
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	offset := 0
	if lr.FitIntercept {
		offset = 1
	}
	design := mat.NewDense(r, c+offset, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, parallel.ResolveNJobs(lr.NJobs), func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var svd mat.SVD
	if !svd.Factorize(design, mat.SVDThin) {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	var w mat.VecDense
	svd.SolveVecTo(&w, yVec, rank)

	lr.intercept = 0
	if offset == 1 {
		lr.intercept = w.AtVec(0)
	}
	lr.weights = make([]float64, c)
	for j := 0; j < c; j++ {
		lr.weights[j] = w.AtVec(j + offset)
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", &w, w.Len(), 1, 0); err != nil {
		return err
	}

	lr.state.SetDimensions(c, r)
	lr.state.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う（n x 1）
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression.Predict", c); err != nil {
		return nil, err
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Weights は学習された重み（係数）を返す
func (lr *LinearRegression) Weights() []float64 {
	return append([]float64(nil), lr.weights...)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}

func (lr *LinearRegression) IsFitted() bool { return lr.state.IsFitted() }

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPred.At(i, 0)) * (yTrue - yPred.At(i, 0))
	}
	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// GetParams returns the hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"fit_intercept": lr.FitIntercept, "n_jobs": lr.NJobs}
}

type regressionState struct {
	State     model.ModelState
	Weights   []float64
	Intercept float64
}

// ExportState implements model.StateExporter.
func (lr *LinearRegression) ExportState() ([]byte, error) {
	return model.EncodeGob(regressionState{State: lr.state.GetState(), Weights: lr.weights, Intercept: lr.intercept})
}

// ImportState implements model.StateExporter.
func (lr *LinearRegression) ImportState(data []byte) error {
	var st regressionState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	lr.weights, lr.intercept = st.Weights, st.Intercept
	lr.state.SetState(st.State)
	return nil
}
