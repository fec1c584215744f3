// Package components provides the named processing units a pipeline is
// assembled from. Every component is created through the registry by its
// display name ("Standard Scaler", "Logistic Regression Classifier", ...)
// with a Parameters map; defaults are filled in and unknown keys rejected.
//
// Inside a pipeline the target travels as a *mat.VecDense of encoded
// values (class indices for classification problems). A nil vector means
// no target was supplied.
package components

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// Component is one step of a pipeline.
type Component interface {
	// Name is the registry key, e.g. "One Hot Encoder".
	Name() string
	// Parameters returns a copy of the effective parameters, defaults included.
	Parameters() model.Parameters
	HyperparameterRanges() map[string]Range
	IsFitted() bool

	model.StateExporter
}

// Transformer は入力を変換するコンポーネント
type Transformer interface {
	Component
	Fit(X mat.Matrix, y *mat.VecDense) error
	// Transform may return a different target, e.g. when rows are resampled.
	Transform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error)
	FitTransform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error)
}

// Sampler is a Transformer whose FitTransform returns resampled rows. Its
// Transform passes data through, so downstream predictions stay aligned
// with the caller's rows.
type Sampler interface {
	Transformer
	ResamplesOnFit() bool
}

// Estimator は予測を行うコンポーネント
type Estimator interface {
	Component
	Fit(X mat.Matrix, y *mat.VecDense) error
	Predict(X mat.Matrix) (*mat.VecDense, error)
	// PredictProba returns one column per encoded class. Regressors return
	// a NotImplementedError.
	PredictProba(X mat.Matrix) (*mat.Dense, error)

	ModelFamily() model.ModelFamily
	SupportedProblemTypes() []model.ProblemType
	FeatureImportance() ([]float64, error)
}

// Seeded is implemented by components taking a "random_seed" parameter.
type Seeded interface {
	Component
	RandomSeed() int64
	// SeedExplicit reports whether random_seed was passed at construction
	// rather than filled in from the defaults.
	SeedExplicit() bool
}

// Supports reports whether e lists problemType.
func Supports(e Estimator, problemType model.ProblemType) bool {
	for _, pt := range e.SupportedProblemTypes() {
		if pt == problemType {
			return true
		}
	}
	return false
}

// IsClassifier reports whether e supports any classification problem type.
func IsClassifier(e Estimator) bool {
	for _, pt := range e.SupportedProblemTypes() {
		if pt.IsClassification() {
			return true
		}
	}
	return false
}

// RangeKind は探索空間の種類
type RangeKind int

const (
	RangeReal RangeKind = iota
	RangeInteger
	RangeCategorical
)

// Range describes the search space of one hyperparameter.
type Range struct {
	Kind      RangeKind
	Low, High float64
	Choices   []interface{}
}

func Real(low, high float64) Range { return Range{Kind: RangeReal, Low: low, High: high} }

func Integer(low, high int) Range {
	return Range{Kind: RangeInteger, Low: float64(low), High: float64(high)}
}

func Categorical(choices ...interface{}) Range {
	return Range{Kind: RangeCategorical, Choices: choices}
}

func (r Range) String() string {
	switch r.Kind {
	case RangeInteger:
		return fmt.Sprintf("Integer(%d, %d)", int(r.Low), int(r.High))
	case RangeCategorical:
		return fmt.Sprintf("Categorical(%v)", r.Choices)
	default:
		return fmt.Sprintf("Real(%g, %g)", r.Low, r.High)
	}
}

// base holds what every component shares: its name, effective parameters
// and search space.
type base struct {
	name    string
	params  model.Parameters
	ranges  map[string]Range
	seed    int64
	seedSet bool
}

// newBase merges user over defaults and rejects keys not in defaults.
func newBase(name string, defaults, user model.Parameters, ranges map[string]Range) (base, error) {
	var unknown []string
	for k := range user {
		if !defaults.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return base{}, errors.NewValidationError(name, "unexpected parameters", unknown)
	}
	b := base{name: name, params: defaults.Merge(user), ranges: ranges}
	if defaults.Has("random_seed") {
		seed, err := b.params.Int("random_seed", 0)
		if err != nil {
			return base{}, errors.NewValidationError("random_seed", err.Error(), b.params["random_seed"])
		}
		b.seed = int64(seed)
		b.seedSet = user.Has("random_seed")
	}
	return b, nil
}

func (b *base) Name() string                 { return b.name }
func (b *base) Parameters() model.Parameters { return b.params.Clone() }

func (b *base) HyperparameterRanges() map[string]Range {
	out := make(map[string]Range, len(b.ranges))
	for k, v := range b.ranges {
		out[k] = v
	}
	return out
}

func (b *base) RandomSeed() int64  { return b.seed }
func (b *base) SeedExplicit() bool { return b.seedSet }

func (b *base) String() string {
	return fmt.Sprintf("%s(%v)", b.name, map[string]interface{}(b.params))
}

func requireTarget(op string, y *mat.VecDense) error {
	if y == nil || y.Len() == 0 {
		return errors.Wrap(errors.ErrTargetIsNone, op)
	}
	return nil
}

func requireRows(op string, X mat.Matrix, y *mat.VecDense) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y != nil && y.Len() != r {
		return errors.NewDimensionError(op, r, y.Len(), 0)
	}
	return nil
}

// column は n×1 行列をベクトルに変換する
func column(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

func asColumn(v *mat.VecDense) *mat.Dense {
	return mat.NewDense(v.Len(), 1, vecData(v))
}

func vecData(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// distinctClasses は昇順のクラス値を返す
func distinctClasses(y *mat.VecDense) []float64 {
	seen := make(map[float64]struct{})
	var classes []float64
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return classes
}

func notProbabilistic(name string) error {
	return errors.NewNotImplementedError("predict_proba", name, "")
}
