package components

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/preprocessing"
)

const OversamplerName = "Oversampler"

func init() {
	Register(OversamplerName, func(p model.Parameters) (Component, error) { return NewOversampler(p) })
}

// Oversampler duplicates minority class rows while the pipeline fits.
// Transform outside of fitting passes data through, so predictions are
// made for exactly the rows supplied.
type Oversampler struct {
	base
	sampler *preprocessing.RandomOversampler
	state   *model.StateManager
}

// NewOversampler accepts sampling_ratio (default 0.25) and random_seed.
func NewOversampler(params model.Parameters) (*Oversampler, error) {
	defaults := model.Parameters{"sampling_ratio": 0.25, "random_seed": 0}
	ranges := map[string]Range{"sampling_ratio": Real(0.1, 1)}
	b, err := newBase(OversamplerName, defaults, params, ranges)
	if err != nil {
		return nil, err
	}
	ratio, err := b.params.Float("sampling_ratio", 0.25)
	if err != nil {
		return nil, errors.NewValidationError("sampling_ratio", err.Error(), b.params["sampling_ratio"])
	}
	s, err := preprocessing.NewRandomOversampler(ratio, b.seed)
	if err != nil {
		return nil, err
	}
	return &Oversampler{base: b, sampler: s, state: model.NewStateManager()}, nil
}

func (o *Oversampler) Fit(X mat.Matrix, y *mat.VecDense) error {
	if err := requireTarget("Oversampler.Fit", y); err != nil {
		return err
	}
	if err := requireRows("Oversampler.Fit", X, y); err != nil {
		return err
	}
	r, c := X.Dims()
	o.state.SetDimensions(c, r)
	o.state.SetFitted()
	return nil
}

// Transform is the identity.
func (o *Oversampler) Transform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error) {
	if err := o.state.RequireFitted(OversamplerName, "Transform"); err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

// FitTransform returns the resampled training data.
func (o *Oversampler) FitTransform(X mat.Matrix, y *mat.VecDense) (mat.Matrix, *mat.VecDense, error) {
	if err := o.Fit(X, y); err != nil {
		return nil, nil, err
	}
	outX, outY, _, err := o.sampler.Resample(X, vecData(y))
	if err != nil {
		return nil, nil, err
	}
	return outX, mat.NewVecDense(len(outY), outY), nil
}

func (o *Oversampler) ResamplesOnFit() bool { return true }

func (o *Oversampler) IsFitted() bool { return o.state.IsFitted() }

func (o *Oversampler) ExportState() ([]byte, error) {
	return model.EncodeGob(o.state.GetState())
}

func (o *Oversampler) ImportState(data []byte) error {
	var st model.ModelState
	if err := model.DecodeGob(data, &st); err != nil {
		return err
	}
	o.state.SetState(st)
	return nil
}
