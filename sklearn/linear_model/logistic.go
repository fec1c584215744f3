// Package linear_model provides the logistic regression learner used by
// the "Logistic Regression Classifier" component.
package linear_model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/core/parallel"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// rowParallelThreshold 以下の行数では逐次処理を使う
const rowParallelThreshold = 2048

// LogisticRegression implements L2-regularised logistic regression trained
// by gradient descent. Two classes give a single sigmoid model; more
// classes are fitted one-vs-rest and combined with a softmax.
type LogisticRegression struct {
	state *model.StateManager

	penalty      string  // "l2" or "none"
	C            float64 // inverse regularization strength
	fitIntercept bool
	randomState  int64
	maxIter      int
	tol          float64
	nJobs        int

	coef      [][]float64 // n_models x n_features
	intercept []float64
	classes   []float64
	nIter     []int

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		randomState:  0,
		maxIter:      100,
		tol:          1e-4,
		nJobs:        -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.rand = rand.New(rand.NewSource(lr.randomState))
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none").
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLRRandomState seeds the weight initialisation.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.randomState = seed }
}

// WithLRNJobs bounds the worker count used for one-vs-rest fitting and row scoring.
func WithLRNJobs(n int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.nJobs = n }
}

// Fit trains the model. y is a column of class labels (any float values,
// typically already encoded as 0..k-1).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}

	lr.extractClasses(y)
	if len(lr.classes) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "needs samples of at least 2 classes in the data")
	}

	nModels := len(lr.classes)
	if nModels == 2 {
		nModels = 1
	}
	lr.initializeWeights(nModels, nFeatures)

	targetFor := func(m int) []float64 {
		positive := lr.classes[len(lr.classes)-1]
		if nModels > 1 {
			positive = lr.classes[m]
		}
		t := make([]float64, nSamples)
		for i := range t {
			if y.At(i, 0) == positive {
				t[i] = 1
			}
		}
		return t
	}

	workers := parallel.ResolveNJobs(lr.nJobs)
	err := parallel.Map(nModels, workers, func(m int) error {
		return lr.fitBinaryModel(X, targetFor(m), m)
	})
	if err != nil {
		return err
	}

	for m, it := range lr.nIter {
		if it >= lr.maxIter {
			errors.Warn(errors.NewConvergenceWarning("LogisticRegression", it,
				"gradient did not fall below tol for model "+formatClass(lr.classes, m, nModels)))
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

func formatClass(classes []float64, m, nModels int) string {
	if nModels == 1 {
		return "binary"
	}
	return model.Floats(classes).Label(m)
}

func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[float64]struct{})
	lr.classes = lr.classes[:0]
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			lr.classes = append(lr.classes, v)
		}
	}
	sort.Float64s(lr.classes)
}

func (lr *LogisticRegression) initializeWeights(nModels, nFeatures int) {
	lr.coef = make([][]float64, nModels)
	for i := range lr.coef {
		lr.coef[i] = make([]float64, nFeatures)
		for j := range lr.coef[i] {
			lr.coef[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept = make([]float64, nModels)
	lr.nIter = make([]int, nModels)
}

// fitBinaryModel runs gradient descent for model m against 0/1 targets.
func (lr *LogisticRegression) fitBinaryModel(X mat.Matrix, target []float64, m int) error {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef[m]
	intercept := &lr.intercept[m]

	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1.0 / (lr.C * float64(nSamples))
	}

	const baseLearningRate = 1.0
	gradWeights := make([]float64, nFeatures)

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			diff := sigmoid(z) - target[i]
			gradIntercept += diff
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += diff * X.At(i, j)
			}
		}

		maxGrad := 0.0
		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*weights[j]
			maxGrad = math.Max(maxGrad, math.Abs(gradWeights[j]))
		}
		gradIntercept /= float64(nSamples)
		if lr.fitIntercept {
			maxGrad = math.Max(maxGrad, math.Abs(gradIntercept))
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}
		lr.nIter[m] = iter + 1

		if maxGrad < lr.tol {
			break
		}
	}
	return errors.CheckMatrix("LogisticRegression.Fit", mat.NewDense(1, nFeatures, weights), 1, nFeatures, lr.nIter[m])
}

// PredictProba returns an n x n_classes matrix of class probabilities, in
// ascending class order.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	nClasses := len(lr.classes)
	probas := mat.NewDense(nSamples, nClasses, nil)
	workers := parallel.ResolveNJobs(lr.nJobs)

	parallel.ParallelizeWithThreshold(nSamples, rowParallelThreshold, workers, func(start, end int) {
		scores := make([]float64, len(lr.coef))
		for i := start; i < end; i++ {
			for m := range lr.coef {
				z := lr.intercept[m]
				for j := 0; j < nFeatures; j++ {
					z += X.At(i, j) * lr.coef[m][j]
				}
				scores[m] = z
			}
			if nClasses == 2 {
				p := sigmoid(scores[0])
				probas.Set(i, 0, 1-p)
				probas.Set(i, 1, p)
				continue
			}
			lse := errors.LogSumExp(scores)
			for c := 0; c < nClasses; c++ {
				probas.Set(i, c, math.Exp(scores[c]-lse))
			}
		}
	})
	return probas, nil
}

// Predict returns the most probable class label per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, nClasses := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < nClasses; c++ {
			if probas.At(i, c) > probas.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, lr.classes[best])
	}
	return predictions, nil
}

// Classes returns the sorted labels seen during Fit.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.classes...)
}

// Coef returns a copy of the coefficient rows (one row for binary problems).
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef))
	for i, row := range lr.coef {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// NIter reports the iterations used per fitted model.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter...)
}

// IsFitted reports whether Fit has completed.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"n_jobs":        lr.nJobs,
	}
}

type logisticState struct {
	State     model.ModelState
	Coef      [][]float64
	Intercept []float64
	Classes   []float64
	NIter     []int
}

// ExportState implements model.StateExporter.
func (lr *LogisticRegression) ExportState() ([]byte, error) {
	return model.EncodeGob(logisticState{
		State:     lr.state.GetState(),
		Coef:      lr.coef,
		Intercept: lr.intercept,
		Classes:   lr.classes,
		NIter:     lr.nIter,
	})
}

// ImportState implements model.StateExporter.
func (lr *LogisticRegression) ImportState(data []byte) error {
	var st logisticState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	lr.coef, lr.intercept, lr.classes, lr.nIter = st.Coef, st.Intercept, st.Classes, st.NIter
	lr.state.SetState(st.State)
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + errors.StabilizeExp(-z))
	}
	e := errors.StabilizeExp(z)
	return e / (1.0 + e)
}
