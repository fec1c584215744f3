package preprocessing

import (
	"sort"
	"strconv"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// LabelEncoder maps target classes to 0..k-1. Numeric targets are ordered
// numerically and label targets lexically; the last class is treated as
// the positive class of a binary problem.
type LabelEncoder struct {
	Numeric bool
	Classes []string
	Values  []float64 // numeric class values when Numeric

	index map[string]int
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit collects the distinct classes of y.
func (le *LabelEncoder) Fit(y model.Target) error {
	if y.IsNil() || y.Len() == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty target", errors.ErrEmptyData)
	}
	le.Numeric = y.IsNumeric()
	if le.Numeric {
		seen := make(map[float64]struct{})
		le.Values = le.Values[:0]
		for i := 0; i < y.Len(); i++ {
			v := y.Float(i)
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				le.Values = append(le.Values, v)
			}
		}
		sort.Float64s(le.Values)
		le.Classes = make([]string, len(le.Values))
		for i, v := range le.Values {
			le.Classes[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	} else {
		seen := make(map[string]struct{})
		le.Classes = le.Classes[:0]
		for i := 0; i < y.Len(); i++ {
			s := y.Label(i)
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				le.Classes = append(le.Classes, s)
			}
		}
		sort.Strings(le.Classes)
		le.Values = nil
	}
	le.BuildIndex()
	return nil
}

// BuildIndex rebuilds the class lookup. Call it once after decoding an
// encoder, before sharing it between goroutines.
func (le *LabelEncoder) BuildIndex() {
	le.index = classIndex(le.Classes)
}

func classIndex(classes []string) map[string]int {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return index
}

// IsFitted reports whether classes are known.
func (le *LabelEncoder) IsFitted() bool { return len(le.Classes) > 0 }

// NClasses returns the number of distinct classes.
func (le *LabelEncoder) NClasses() int { return len(le.Classes) }

// Transform encodes y. Classes unseen during Fit are a ValueError.
func (le *LabelEncoder) Transform(y model.Target) ([]float64, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	index := le.index
	if index == nil {
		index = classIndex(le.Classes)
	}
	out := make([]float64, y.Len())
	for i := range out {
		key := y.Label(i)
		if le.Numeric && !y.IsNumeric() {
			key = strconv.FormatFloat(y.Float(i), 'g', -1, 64)
		}
		idx, ok := index[key]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", "y contains previously unseen label "+key)
		}
		out[i] = float64(idx)
	}
	return out, nil
}

// FitTransform fits and encodes y.
func (le *LabelEncoder) FitTransform(y model.Target) ([]float64, error) {
	if err := le.Fit(y); err != nil {
		return nil, err
	}
	return le.Transform(y)
}

// InverseTransform maps encoded values back to the original classes.
func (le *LabelEncoder) InverseTransform(encoded []float64) (model.Target, error) {
	if !le.IsFitted() {
		return model.Target{}, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}
	if le.Numeric {
		out := make([]float64, len(encoded))
		for i, e := range encoded {
			idx := int(e)
			if idx < 0 || idx >= len(le.Values) {
				return model.Target{}, errors.NewValueError("LabelEncoder.InverseTransform", "encoded value out of range")
			}
			out[i] = le.Values[idx]
		}
		return model.Floats(out), nil
	}
	out := make([]string, len(encoded))
	for i, e := range encoded {
		idx := int(e)
		if idx < 0 || idx >= len(le.Classes) {
			return model.Target{}, errors.NewValueError("LabelEncoder.InverseTransform", "encoded value out of range")
		}
		out[i] = le.Classes[idx]
	}
	return model.Labels(out), nil
}
