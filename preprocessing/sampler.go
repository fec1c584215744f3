package preprocessing

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// RandomOversampler duplicates minority-class rows until every class has
// at least SamplingRatio times the majority count. It only runs while a
// pipeline is fitting; at prediction time samplers pass data through.
type RandomOversampler struct {
	SamplingRatio float64
	RandomSeed    int64
}

func NewRandomOversampler(samplingRatio float64, seed int64) (*RandomOversampler, error) {
	if samplingRatio <= 0 || samplingRatio > 1 {
		return nil, errors.NewValidationError("sampling_ratio", "must be in (0, 1]", samplingRatio)
	}
	return &RandomOversampler{SamplingRatio: samplingRatio, RandomSeed: seed}, nil
}

// Resample returns X and y extended with duplicated rows, plus the source
// row index of every output row. Original rows keep their positions.
func (o *RandomOversampler) Resample(X mat.Matrix, y []float64) (*mat.Dense, []float64, []int, error) {
	r, c := X.Dims()
	if r != len(y) {
		return nil, nil, nil, errors.NewDimensionError("RandomOversampler.Resample", r, len(y), 0)
	}

	byClass := make(map[float64][]int)
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	classes := make([]float64, 0, len(byClass))
	majority := 0
	for cls, rows := range byClass {
		classes = append(classes, cls)
		if len(rows) > majority {
			majority = len(rows)
		}
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewSource(o.RandomSeed))
	index := make([]int, r)
	for i := range index {
		index[i] = i
	}
	target := int(math.Ceil(o.SamplingRatio * float64(majority)))
	for _, cls := range classes {
		rows := byClass[cls]
		for n := len(rows); n < target; n++ {
			index = append(index, rows[rng.Intn(len(rows))])
		}
	}

	outX := mat.NewDense(len(index), c, nil)
	outY := make([]float64, len(index))
	for k, src := range index {
		for j := 0; j < c; j++ {
			outX.Set(k, j, X.At(src, j))
		}
		outY[k] = y[src]
	}
	return outX, outY, index, nil
}
