package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// Imputation strategies accepted by SimpleImputer.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// SimpleImputer は NaN を列ごとの統計量で置き換える
type SimpleImputer struct {
	state *model.StateManager

	Strategy  string
	FillValue float64

	Statistics []float64
}

// NewSimpleImputer validates strategy and returns an unfitted imputer.
func NewSimpleImputer(strategy string, fillValue float64) (*SimpleImputer, error) {
	switch strategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
	default:
		return nil, errors.NewValidationError("impute_strategy", "must be one of mean, median, most_frequent, constant", strategy)
	}
	return &SimpleImputer{state: model.NewStateManager(), Strategy: strategy, FillValue: fillValue}, nil
}

// Fit computes the fill value of every column from its non-NaN entries.
// Columns with no observed value fall back to FillValue.
func (im *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	im.Statistics = make([]float64, c)
	for j := 0; j < c; j++ {
		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		im.Statistics[j] = im.statistic(observed)
	}
	im.state.SetDimensions(c, r)
	im.state.SetFitted()
	return nil
}

func (im *SimpleImputer) statistic(observed []float64) float64 {
	if len(observed) == 0 || im.Strategy == StrategyConstant {
		return im.FillValue
	}
	switch im.Strategy {
	case StrategyMedian:
		return Median(observed)
	case StrategyMostFrequent:
		counts := make(map[float64]int)
		for _, v := range observed {
			counts[v]++
		}
		best, bestCount := 0.0, -1
		for v, n := range counts {
			// 同数なら小さい値を選ぶ
			if n > bestCount || (n == bestCount && v < best) {
				best, bestCount = v, n
			}
		}
		return best
	default:
		return stat.Mean(observed, nil)
	}
}

// Transform replaces NaN entries with the fitted statistics.
func (im *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.state.RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := im.state.RequireFeatures("SimpleImputer.Transform", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return im.Statistics[j]
		}
		return v
	}, X)
	return out, nil
}

func (im *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

func (im *SimpleImputer) IsFitted() bool { return im.state.IsFitted() }

type imputerState struct {
	State      model.ModelState
	Statistics []float64
}

func (im *SimpleImputer) ExportState() ([]byte, error) {
	return model.EncodeGob(imputerState{State: im.state.GetState(), Statistics: im.Statistics})
}

func (im *SimpleImputer) ImportState(data []byte) error {
	var st imputerState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	im.Statistics = st.Statistics
	im.state.SetState(st.State)
	return nil
}

// Median returns the middle value, averaging the two middle values for an
// even count. values is sorted in place.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
