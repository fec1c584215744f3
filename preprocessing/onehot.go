package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// OneHotEncoder expands the designated categorical columns into indicator
// columns. Untouched columns keep their order and come first; indicator
// blocks follow in the order of Columns. Each block holds the TopN most
// frequent categories (ties broken by smaller value). Unseen or NaN
// values encode as all zeros.
type OneHotEncoder struct {
	state *model.StateManager

	Columns []int
	TopN    int // 0 keeps every category

	Categories [][]float64
}

func NewOneHotEncoder(columns []int, topN int) *OneHotEncoder {
	return &OneHotEncoder{state: model.NewStateManager(), Columns: columns, TopN: topN}
}

func (e *OneHotEncoder) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	seen := make(map[int]bool, len(e.Columns))
	for _, col := range e.Columns {
		if col < 0 || col >= c {
			return errors.NewValidationError("features_to_encode", "column index out of range", col)
		}
		if seen[col] {
			return errors.NewValidationError("features_to_encode", "duplicate column index", col)
		}
		seen[col] = true
	}

	e.Categories = make([][]float64, len(e.Columns))
	for k, col := range e.Columns {
		counts := make(map[float64]int)
		for i := 0; i < r; i++ {
			if v := X.At(i, col); !math.IsNaN(v) {
				counts[v]++
			}
		}
		cats := make([]float64, 0, len(counts))
		for v := range counts {
			cats = append(cats, v)
		}
		sort.Slice(cats, func(a, b int) bool {
			if counts[cats[a]] != counts[cats[b]] {
				return counts[cats[a]] > counts[cats[b]]
			}
			return cats[a] < cats[b]
		})
		if e.TopN > 0 && len(cats) > e.TopN {
			cats = cats[:e.TopN]
		}
		sort.Float64s(cats)
		e.Categories[k] = cats
	}
	e.state.SetDimensions(c, r)
	e.state.SetFitted()
	return nil
}

// NOutputFeatures is the column count produced by Transform.
func (e *OneHotEncoder) NOutputFeatures() int {
	nIn, _ := e.state.GetDimensions()
	n := nIn - len(e.Columns)
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

func (e *OneHotEncoder) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := e.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := e.state.RequireFeatures("OneHotEncoder.Transform", c); err != nil {
		return nil, err
	}
	encoded := make(map[int]bool, len(e.Columns))
	for _, col := range e.Columns {
		encoded[col] = true
	}

	out := mat.NewDense(r, e.NOutputFeatures(), nil)
	for i := 0; i < r; i++ {
		o := 0
		for j := 0; j < c; j++ {
			if !encoded[j] {
				out.Set(i, o, X.At(i, j))
				o++
			}
		}
		for k, col := range e.Columns {
			v := X.At(i, col)
			cats := e.Categories[k]
			if idx := sort.SearchFloat64s(cats, v); idx < len(cats) && cats[idx] == v {
				out.Set(i, o+idx, 1)
			}
			o += len(cats)
		}
	}
	return out, nil
}

func (e *OneHotEncoder) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

func (e *OneHotEncoder) IsFitted() bool { return e.state.IsFitted() }

type oneHotState struct {
	State      model.ModelState
	Categories [][]float64
}

func (e *OneHotEncoder) ExportState() ([]byte, error) {
	return model.EncodeGob(oneHotState{State: e.state.GetState(), Categories: e.Categories})
}

func (e *OneHotEncoder) ImportState(data []byte) error {
	var st oneHotState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	e.Categories = st.Categories
	e.state.SetState(st.State)
	return nil
}
