package model

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Target は教師データの目的変数列を表す。
// 数値（float64）か文字列ラベルのどちらか一方を保持し、ゼロ値は「目的変数なし」を意味する。
type Target struct {
	floats []float64
	labels []string
}

// Floats wraps numeric target values. A nil slice gives the empty target.
func Floats(v []float64) Target {
	return Target{floats: v}
}

// Labels wraps string class labels.
func Labels(v []string) Target {
	return Target{labels: v}
}

// FromVector copies a gonum vector into a numeric target.
func FromVector(v mat.Vector) Target {
	if v == nil {
		return Target{}
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return Floats(out)
}

// IsNil reports whether no target was supplied.
func (t Target) IsNil() bool {
	return t.floats == nil && t.labels == nil
}

func (t Target) Len() int {
	if t.labels != nil {
		return len(t.labels)
	}
	return len(t.floats)
}

// IsNumeric is true for float targets (including the empty target).
func (t Target) IsNumeric() bool {
	return t.labels == nil
}

// Float returns the i-th numeric value; for label targets it parses the
// label and returns NaN if that fails.
func (t Target) Float(i int) float64 {
	if t.labels == nil {
		return t.floats[i]
	}
	f, err := strconv.ParseFloat(t.labels[i], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Label returns the i-th value as a string.
func (t Target) Label(i int) string {
	if t.labels != nil {
		return t.labels[i]
	}
	return strconv.FormatFloat(t.floats[i], 'g', -1, 64)
}

// Values returns the numeric values, or nil for label targets.
func (t Target) Values() []float64 {
	if t.floats == nil {
		return nil
	}
	return append([]float64(nil), t.floats...)
}

// Strings returns every value rendered as a string.
func (t Target) Strings() []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i] = t.Label(i)
	}
	return out
}

// Vector returns the numeric values as a column vector.
func (t Target) Vector() *mat.VecDense {
	if t.Len() == 0 {
		return nil
	}
	v := make([]float64, t.Len())
	for i := range v {
		v[i] = t.Float(i)
	}
	return mat.NewVecDense(len(v), v)
}

// Subset returns the rows at idx, in idx order.
func (t Target) Subset(idx []int) Target {
	if t.IsNil() {
		return t
	}
	if t.labels != nil {
		out := make([]string, len(idx))
		for i, j := range idx {
			out[i] = t.labels[j]
		}
		return Labels(out)
	}
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = t.floats[j]
	}
	return Floats(out)
}
