package components

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/preprocessing"
)

const (
	StandardScalerName = "Standard Scaler"
	SimpleImputerName  = "Simple Imputer"
	OneHotEncoderName  = "One Hot Encoder"
	SelectColumnsName  = "Select Columns"
)

func init() {
	Register(StandardScalerName, func(p model.Parameters) (Component, error) { return NewStandardScaler(p) })
	Register(SimpleImputerName, func(p model.Parameters) (Component, error) { return NewSimpleImputer(p) })
	Register(OneHotEncoderName, func(p model.Parameters) (Component, error) { return NewOneHotEncoder(p) })
	Register(SelectColumnsName, func(p model.Parameters) (Component, error) { return NewSelectColumns(p) })
}

// matrixTransformer is the shape shared by the preprocessing transformers.
type matrixTransformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	IsFitted() bool
	ExportState() ([]byte, error)
	ImportState(data []byte) error
}

// wrapped adapts a preprocessing transformer to the Transformer contract.
// y passes through unchanged.
type wrapped struct {
	base
	inner matrixTransformer
}

func (w *wrapped) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireRows(w.name+".Fit", X, y); err != nil {
		return err
	}
	return w.inner.Fit(X)
}

func (w *wrapped) Transform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error) {
	out, err := w.inner.Transform(X)
	if err != nil {
		return nil, nil, err
	}
	return out, y, nil
}

func (w *wrapped) FitTransform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error) {
	if err := w.Fit(X, y); err != nil {
		return nil, nil, err
	}
	return w.Transform(X, y)
}

func (w *wrapped) IsFitted() bool { return w.inner.IsFitted() }

func (w *wrapped) ExportState() ([]byte, error) { return w.inner.ExportState() }

func (w *wrapped) ImportState(data []byte) error { return w.inner.ImportState(data) }

// NewStandardScaler standardises every column to zero mean and unit variance.
func NewStandardScaler(params model.Parameters) (Transformer, error) {
	b, err := newBase(StandardScalerName, model.Parameters{}, params, nil)
	if err != nil {
		return nil, err
	}
	return &wrapped{base: b, inner: preprocessing.NewStandardScaler(true, true)}, nil
}

// NewSimpleImputer fills NaN cells. Parameters: impute_strategy
// ("mean", "median", "most_frequent", "constant") and fill_value.
func NewSimpleImputer(params model.Parameters) (Transformer, error) {
	defaults := model.Parameters{"impute_strategy": "most_frequent", "fill_value": nil}
	ranges := map[string]Range{"impute_strategy": Categorical("mean", "median", "most_frequent")}
	b, err := newBase(SimpleImputerName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}
	strategy, err := b.params.String("impute_strategy", "most_frequent")
	if err != nil {
		return nil, errors.NewValidationError("impute_strategy", err.Error(), b.params["impute_strategy"])
	}
	fill, err := b.params.Float("fill_value", 0)
	if err != nil {
		return nil, errors.NewValidationError("fill_value", err.Error(), b.params["fill_value"])
	}
	inner, err := preprocessing.NewSimpleImputer(strategy, fill)
	if err != nil {
		return nil, err
	}
	return &wrapped{base: b, inner: inner}, nil
}

// NewOneHotEncoder encodes the columns listed in features_to_encode,
// keeping the top_n most frequent categories per column (nil keeps all).
func NewOneHotEncoder(params model.Parameters) (Transformer, error) {
	defaults := model.Parameters{"top_n": 10, "features_to_encode": nil}
	ranges := map[string]Range{"top_n": Integer(1, 50)}
	b, err := newBase(OneHotEncoderName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}
	topN, err := b.params.Int("top_n", 0)
	if err != nil || topN < 0 {
		return nil, errors.NewValidationError("top_n", "must be a non-negative integer or nil", b.params["top_n"])
	}
	cols, err := b.params.Ints("features_to_encode")
	if err != nil {
		return nil, errors.NewValidationError("features_to_encode", err.Error(), b.params["features_to_encode"])
	}
	return &wrapped{base: b, inner: preprocessing.NewOneHotEncoder(cols, topN)}, nil
}

// SelectColumns keeps the listed column indices, in the listed order.
type SelectColumns struct {
	base
	columns []int
	state   *model.StateManager
}

func NewSelectColumns(params model.Parameters) (*SelectColumns, error) {
	b, err := newBase(SelectColumnsName, model.Parameters{"columns": nil}, params, nil)
	if err != nil {
		return nil, err
	}
	cols, err := b.params.Ints("columns")
	if err != nil {
		return nil, errors.NewValidationError("columns", err.Error(), b.params["columns"])
	}
	return &SelectColumns{base: b, columns: cols, state: model.NewStateManager()}, nil
}

func (s *SelectColumns) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireRows("SelectColumns.Fit", X, y); err != nil {
		return err
	}
	if len(s.columns) == 0 {
		return errors.NewValidationError("columns", "at least one column must be selected", s.columns)
	}
	r, c := X.Dims()
	for _, col := range s.columns {
		if col < 0 || col >= c {
			return errors.NewValidationError("columns", "column index out of range", col)
		}
	}
	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

func (s *SelectColumns) Transform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error) {
	if err := s.state.RequireFitted(SelectColumnsName, "Transform"); err != nil {
		return nil, nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("SelectColumns.Transform", c); err != nil {
		return nil, nil, err
	}
	out := mat.NewDense(r, len(s.columns), nil)
	for j, col := range s.columns {
		for i := 0; i < r; i++ {
			out.Set(i, j, X.At(i, col))
		}
	}
	return out, y, nil
}

func (s *SelectColumns) FitTransform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error) {
	if err := s.Fit(X, y); err != nil {
		return nil, nil, err
	}
	return s.Transform(X, y)
}

func (s *SelectColumns) IsFitted() bool { return s.state.IsFitted() }

func (s *SelectColumns) ExportState() ([]byte, error) {
	return model.EncodeGob(s.state.GetState())
}

func (s *SelectColumns) ImportState(data []byte) error {
	var st model.ModelState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	s.state.SetState(st)
	return nil
}
