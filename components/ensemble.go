package components

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const (
	StackedEnsembleClassifierName = "Stacked Ensemble Classifier"
	StackedEnsembleRegressorName  = "Stacked Ensemble Regressor"

	stackedFeatureImportanceMessage = "feature_importance is not implemented for StackedEnsembleClassifier and StackedEnsembleRegressor"
)

func init() {
	Register(StackedEnsembleClassifierName, func(p model.Parameters) (Component, error) {
		return NewStackedEnsembleClassifier(p)
	})
	Register(StackedEnsembleRegressorName, func(p model.Parameters) (Component, error) {
		return NewStackedEnsembleRegressor(p)
	})
}

// StackedEnsemble fits final_estimator on the concatenated outputs of the
// estimators feeding it. The base estimators are ordinary graph nodes; this
// component only sees their predictions as X.
type StackedEnsemble struct {
	base
	classifier bool
	nJobs      int
	final      Estimator
	state      *model.StateManager
}

// NewStackedEnsembleClassifier accepts final_estimator (an Estimator or a
// registry name, default "Logistic Regression Classifier") and n_jobs.
func NewStackedEnsembleClassifier(params model.Parameters) (*StackedEnsemble, error) {
	return newStackedEnsemble(StackedEnsembleClassifierName, LogisticRegressionClassifierName, true, params)
}

// NewStackedEnsembleRegressor is the regression counterpart, defaulting to
// "Linear Regressor".
func NewStackedEnsembleRegressor(params model.Parameters) (*StackedEnsemble, error) {
	return newStackedEnsemble(StackedEnsembleRegressorName, LinearRegressorName, false, params)
}

func newStackedEnsemble(name, defaultFinal string, classifier bool, params model.Parameters) (*StackedEnsemble, error) {
	defaults := model.Parameters{"final_estimator": defaultFinal, "n_jobs": -1}
	b, err := newBase(name, defaults, params, nil)
	if err != nil {
		return nil, err
	}
	if b.params["final_estimator"] == nil {
		b.params["final_estimator"] = defaultFinal
	}
	nJobs, err := nJobsParam(b.params)
	if err != nil {
		return nil, err
	}
	s := &StackedEnsemble{base: b, classifier: classifier, nJobs: nJobs, state: model.NewStateManager()}
	if s.final, err = s.newFinal(); err != nil {
		return nil, err
	}
	return s, nil
}

// newFinal builds an unfitted final estimator from the final_estimator parameter.
func (s *StackedEnsemble) newFinal() (Estimator, error) {
	var c Component
	var err error
	switch v := s.params["final_estimator"].(type) {
	case string:
		c, err = New(v, nil)
	case Component:
		c, err = Clone(v)
	default:
		return nil, errors.NewValidationError("final_estimator", "must be an Estimator or a component name", v)
	}
	if err != nil {
		return nil, err
	}
	e, ok := c.(Estimator)
	if !ok {
		return nil, errors.NewValidationError("final_estimator", "must be an Estimator", c.Name())
	}
	return e, nil
}

// FinalEstimator returns the meta-learner.
func (s *StackedEnsemble) FinalEstimator() Estimator { return s.final }

// NJobs returns the validated n_jobs parameter.
func (s *StackedEnsemble) NJobs() int { return s.nJobs }

func (s *StackedEnsemble) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireTarget(s.name+".Fit", y); err != nil {
		return err
	}
	if err := requireRows(s.name+".Fit", X, y); err != nil {
		return err
	}
	final, err := s.newFinal()
	if err != nil {
		return err
	}
	if err := final.Fit(X, y); err != nil {
		return errors.Wrapf(err, "%s: fitting final estimator %s", s.name, final.Name())
	}
	s.final = final
	r, c := X.Dims()
	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

func (s *StackedEnsemble) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := s.state.RequireFitted(s.name, "Predict"); err != nil {
		return nil, err
	}
	return s.final.Predict(X)
}

func (s *StackedEnsemble) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !s.classifier {
		return nil, notProbabilistic(s.name)
	}
	if err := s.state.RequireFitted(s.name, "PredictProba"); err != nil {
		return nil, err
	}
	return s.final.PredictProba(X)
}

func (s *StackedEnsemble) ModelFamily() model.ModelFamily { return model.Ensemble }

func (s *StackedEnsemble) SupportedProblemTypes() []model.ProblemType {
	if s.classifier {
		return []model.ProblemType{model.Binary, model.Multiclass, model.TimeSeriesBinary, model.TimeSeriesMulticlass}
	}
	return []model.ProblemType{model.Regression, model.TimeSeriesRegression}
}

// FeatureImportance has no single per-feature answer for a meta-estimator.
func (s *StackedEnsemble) FeatureImportance() ([]float64, error) {
	return nil, errors.NewNotImplementedError("feature_importance", s.name, stackedFeatureImportanceMessage)
}

func (s *StackedEnsemble) IsFitted() bool { return s.state.IsFitted() }

type stackedState struct {
	State model.ModelState
	Final []byte
}

func (s *StackedEnsemble) ExportState() ([]byte, error) {
	var final []byte
	if s.state.IsFitted() {
		var err error
		if final, err = s.final.ExportState(); err != nil {
			return nil, err
		}
	}
	return model.EncodeGob(stackedState{State: s.state.GetState(), Final: final})
}

// ImportState rebuilds the final estimator from final_estimator and loads
// its learned state.
func (s *StackedEnsemble) ImportState(data []byte) error {
	var st stackedState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	final, err := s.newFinal()
	if err != nil {
		return err
	}
	if st.Final != nil {
		if err := final.ImportState(st.Final); err != nil {
			return err
		}
	}
	s.final = final
	s.state.SetState(st.State)
	return nil
}
