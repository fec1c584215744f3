package understanding

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// BinEdges returns n+1 equal-width edges over [0, 1].
func BinEdges(n int) ([]float64, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("n_bins", "must be a positive integer", n)
	}
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = float64(i) / float64(n)
	}
	return edges, nil
}

// AutoBinCount picks a bin count for values on [0, 1] the way numpy's
// "auto" estimator does: the narrower of the Sturges and Freedman-Diaconis
// bin widths, falling back to Sturges when the interquartile range is 0.
func AutoBinCount(values []float64) int {
	n := len(values)
	if n == 0 {
		return 1
	}
	width := 1 / (math.Log2(float64(n)) + 1)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	iqr := percentile(sorted, 0.75) - percentile(sorted, 0.25)
	if fd := 2 * iqr * math.Pow(float64(n), -1.0/3); fd > 0 && fd < width {
		width = fd
	}
	count := int(math.Ceil(1 / width))
	if count < 1 {
		return 1
	}
	return count
}

// percentile は線形補間 (numpy の既定, Hyndman-Fan type 7)
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// binIndex returns the bin holding v, or -1 when v is outside the edges.
// Bins are half-open except the last, which includes its upper edge.
func binIndex(edges []float64, v float64) int {
	if i := floats.Within(edges, v); i >= 0 {
		return i
	}
	if v == edges[len(edges)-1] {
		return len(edges) - 2
	}
	return -1
}

func checkEdges(op string, edges []float64) error {
	if len(edges) < 2 {
		return errors.NewValueError(op, fmt.Sprintf("at least 2 bin edges are required, got %d", len(edges)))
	}
	if !sort.Float64sAreSorted(edges) {
		return errors.NewValueError(op, "bin edges must be sorted")
	}
	return nil
}

// Histogram counts values per bin.
func Histogram(values, edges []float64) ([]int, error) {
	if err := checkEdges("understanding.Histogram", edges); err != nil {
		return nil, err
	}
	counts := make([]int, len(edges)-1)
	for _, v := range values {
		if i := binIndex(edges, v); i >= 0 {
			counts[i]++
		}
	}
	return counts, nil
}

// FindDataBetweenRanges returns, per bin, the indices of the first topK
// rows whose probability falls in the bin. topK -1 keeps every row, in
// which case each in-range row appears in exactly one bin.
func FindDataBetweenRanges(probs, edges []float64, topK int) ([][]int, error) {
	const op = "understanding.FindDataBetweenRanges"
	if topK == 0 || topK < -1 {
		return nil, errors.NewValidationError("top_k", "must be positive or -1", topK)
	}
	if err := checkEdges(op, edges); err != nil {
		return nil, err
	}
	out := make([][]int, len(edges)-1)
	for i := range out {
		out[i] = []int{}
	}
	for row, p := range probs {
		b := binIndex(edges, p)
		if b < 0 {
			continue
		}
		if topK == -1 || len(out[b]) < topK {
			out[b] = append(out[b], row)
		}
	}
	return out, nil
}
