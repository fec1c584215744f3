package objectives

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/metrics"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const (
	AccuracyBinaryName             = "Accuracy Binary"
	AccuracyMulticlassName         = "Accuracy Multiclass"
	BalancedAccuracyBinaryName     = "Balanced Accuracy Binary"
	BalancedAccuracyMulticlassName = "Balanced Accuracy Multiclass"
	PrecisionName                  = "Precision"
	RecallName                     = "Recall"
	F1Name                         = "F1"
	AUCName                        = "AUC"
	LogLossBinaryName              = "Log Loss Binary"
	LogLossMulticlassName          = "Log Loss Multiclass"
	MSEName                        = "MSE"
	MAEName                        = "MAE"
	R2Name                         = "R2"
	MAPEName                       = "Mean Absolute Percentage Error"
	ExpVarianceName                = "ExpVariance"
)

var (
	binaryTypes     = []model.ProblemType{model.Binary, model.TimeSeriesBinary}
	multiclassTypes = []model.ProblemType{model.Multiclass, model.TimeSeriesMulticlass}
	regressionTypes = []model.ProblemType{model.Regression, model.TimeSeriesRegression}
)

type labelMetric func(yTrue, yPred *mat.VecDense) (float64, error)

// metricObjective adapts a function from the metrics package.
type metricObjective struct {
	name    string
	greater bool
	proba   bool
	types   []model.ProblemType
	fn      func(yTrue, yPred *mat.VecDense, proba *mat.Dense) (float64, error)
}

func (m *metricObjective) Name() string                      { return m.name }
func (m *metricObjective) GreaterIsBetter() bool             { return m.greater }
func (m *metricObjective) ScoreNeedsProba() bool             { return m.proba }
func (m *metricObjective) ProblemTypes() []model.ProblemType { return m.types }

func (m *metricObjective) ObjectiveFunction(yTrue, yPred *mat.VecDense, proba *mat.Dense, _ mat.Matrix) (float64, error) {
	if m.proba && proba == nil {
		return 0, errors.NewValueError(m.name, "objective needs predicted probabilities")
	}
	if !m.proba && yPred == nil {
		return 0, errors.NewValueError(m.name, "objective needs predictions")
	}
	return m.fn(yTrue, yPred, proba)
}

func onLabels(f labelMetric) func(yTrue, yPred *mat.VecDense, _ *mat.Dense) (float64, error) {
	return func(yTrue, yPred *mat.VecDense, _ *mat.Dense) (float64, error) { return f(yTrue, yPred) }
}

// positiveColumn は二値分類の陽性クラス（最後の列）の確率を返す
func positiveColumn(proba *mat.Dense) *mat.VecDense {
	r, c := proba.Dims()
	v := mat.NewVecDense(r, nil)
	v.CopyVec(proba.ColView(c - 1))
	return v
}

func onPositiveProba(f labelMetric) func(yTrue, _ *mat.VecDense, proba *mat.Dense) (float64, error) {
	return func(yTrue, _ *mat.VecDense, proba *mat.Dense) (float64, error) {
		return f(yTrue, positiveColumn(proba))
	}
}

func builtin(o *metricObjective) {
	Register(o.name, func(params model.Parameters) (Objective, error) {
		if len(params) > 0 {
			return nil, errors.NewValidationError(o.name, "objective takes no parameters", params.Keys())
		}
		return o, nil
	})
}

func init() {
	builtin(&metricObjective{AccuracyBinaryName, true, false, binaryTypes, onLabels(metrics.Accuracy)})
	builtin(&metricObjective{AccuracyMulticlassName, true, false, multiclassTypes, onLabels(metrics.Accuracy)})
	builtin(&metricObjective{BalancedAccuracyBinaryName, true, false, binaryTypes, onLabels(metrics.BalancedAccuracy)})
	builtin(&metricObjective{BalancedAccuracyMulticlassName, true, false, multiclassTypes, onLabels(metrics.BalancedAccuracy)})
	builtin(&metricObjective{PrecisionName, true, false, binaryTypes, onLabels(metrics.Precision)})
	builtin(&metricObjective{RecallName, true, false, binaryTypes, onLabels(metrics.Recall)})
	builtin(&metricObjective{F1Name, true, false, binaryTypes, onLabels(metrics.F1)})
	builtin(&metricObjective{AUCName, true, true, binaryTypes, onPositiveProba(metrics.AUC)})
	builtin(&metricObjective{LogLossBinaryName, false, true, binaryTypes, onPositiveProba(metrics.BinaryLogLoss)})
	builtin(&metricObjective{LogLossMulticlassName, false, true, multiclassTypes,
		func(yTrue, _ *mat.VecDense, proba *mat.Dense) (float64, error) {
			return metrics.MulticlassLogLoss(yTrue, proba)
		}})
	builtin(&metricObjective{MSEName, false, false, regressionTypes, onLabels(metrics.MSE)})
	builtin(&metricObjective{MAEName, false, false, regressionTypes, onLabels(metrics.MAE)})
	builtin(&metricObjective{R2Name, true, false, regressionTypes, onLabels(metrics.R2Score)})
	builtin(&metricObjective{MAPEName, false, false, []model.ProblemType{model.TimeSeriesRegression}, onLabels(metrics.MAPE)})
	builtin(&metricObjective{ExpVarianceName, true, false, regressionTypes, onLabels(metrics.ExplainedVarianceScore)})
}
