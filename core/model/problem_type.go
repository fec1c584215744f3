package model

import (
	"strings"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// ProblemType は機械学習タスクの種類を表す
type ProblemType int

const (
	// Binary は二値分類
	Binary ProblemType = iota + 1
	// Multiclass は多クラス分類
	Multiclass
	// Regression は回帰
	Regression
	// TimeSeriesRegression は時系列回帰
	TimeSeriesRegression
	// TimeSeriesBinary は時系列二値分類
	TimeSeriesBinary
	// TimeSeriesMulticlass は時系列多クラス分類
	TimeSeriesMulticlass
)

var problemTypeKeys = map[ProblemType]string{
	Binary:               "binary",
	Multiclass:           "multiclass",
	Regression:           "regression",
	TimeSeriesRegression: "time series regression",
	TimeSeriesBinary:     "time series binary",
	TimeSeriesMulticlass: "time series multiclass",
}

var problemTypeNames = map[ProblemType]string{
	Binary:               "Binary Classification",
	Multiclass:           "Multiclass Classification",
	Regression:           "Regression",
	TimeSeriesRegression: "Time Series Regression",
	TimeSeriesBinary:     "Time Series Binary",
	TimeSeriesMulticlass: "Time Series Multiclass",
}

// AllProblemTypes lists every problem type in declaration order.
func AllProblemTypes() []ProblemType {
	return []ProblemType{Binary, Multiclass, Regression, TimeSeriesRegression, TimeSeriesBinary, TimeSeriesMulticlass}
}

// String returns the display name, e.g. "Binary Classification".
func (p ProblemType) String() string {
	if s, ok := problemTypeNames[p]; ok {
		return s
	}
	return "Unknown"
}

// Key returns the lower-case identifier used in config files, e.g. "time series binary".
func (p ProblemType) Key() string {
	return problemTypeKeys[p]
}

func (p ProblemType) IsClassification() bool {
	return p == Binary || p == Multiclass || p == TimeSeriesBinary || p == TimeSeriesMulticlass
}

func (p ProblemType) IsBinary() bool { return p == Binary || p == TimeSeriesBinary }

func (p ProblemType) IsMulticlass() bool { return p == Multiclass || p == TimeSeriesMulticlass }

func (p ProblemType) IsRegression() bool { return p == Regression || p == TimeSeriesRegression }

func (p ProblemType) IsTimeSeries() bool {
	return p == TimeSeriesRegression || p == TimeSeriesBinary || p == TimeSeriesMulticlass
}

// ParseProblemType accepts a key ("binary", "time_series_regression") or a
// display name ("Binary Classification"), case-insensitively.
func ParseProblemType(s string) (ProblemType, error) {
	norm := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
	for p, key := range problemTypeKeys {
		if norm == key || norm == strings.ToLower(problemTypeNames[p]) {
			return p, nil
		}
	}
	return 0, errors.NewValidationError("problem_type", "problem type does not exist", s)
}

func (p ProblemType) MarshalText() ([]byte, error) {
	return []byte(p.Key()), nil
}

func (p *ProblemType) UnmarshalText(text []byte) error {
	v, err := ParseProblemType(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// JoinProblemTypes renders display names separated by ", ".
func JoinProblemTypes(types []ProblemType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

// ModelFamily はモデルの系統（線形モデル、アンサンブルなど）を表す
type ModelFamily int

const (
	FamilyNone ModelFamily = iota
	LinearModel
	Ensemble
	ExponentialSmoothing
	Baseline
)

var modelFamilyNames = map[ModelFamily][2]string{
	FamilyNone:           {"none", "None"},
	LinearModel:          {"linear_model", "Linear Model"},
	Ensemble:             {"ensemble", "Ensemble"},
	ExponentialSmoothing: {"exponential_smoothing", "Exponential Smoothing"},
	Baseline:             {"baseline", "Baseline"},
}

// AllModelFamilies lists the families in declaration order, excluding FamilyNone.
func AllModelFamilies() []ModelFamily {
	return []ModelFamily{LinearModel, Ensemble, ExponentialSmoothing, Baseline}
}

func (f ModelFamily) String() string { return modelFamilyNames[f][1] }

func (f ModelFamily) Key() string { return modelFamilyNames[f][0] }

// ParseModelFamily accepts a key or display name.
func ParseModelFamily(s string) (ModelFamily, error) {
	norm := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, " ", "_")))
	for f, names := range modelFamilyNames {
		if norm == names[0] {
			return f, nil
		}
	}
	return FamilyNone, errors.NewValidationError("model_family", "unknown model family", s)
}
