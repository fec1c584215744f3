package pipeline

import (
	"fmt"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// preprocessing steps placed before an estimator of each family.
var familySteps = map[model.ModelFamily][]string{
	model.LinearModel: {components.SimpleImputerName, components.OneHotEncoderName, components.StandardScalerName},
	model.Baseline:    nil,
	// 予測は y のみから作るので前処理は不要
	model.ExponentialSmoothing: nil,
}

// templateEstimators returns, per family, the first registered estimator
// supporting problemType. Ensembles are left out: they need input pipelines.
func templateEstimators(problemType model.ProblemType) map[model.ModelFamily]string {
	out := make(map[model.ModelFamily]string)
	for _, name := range components.EstimatorsFor(problemType) {
		c, err := components.New(name, nil)
		if err != nil {
			continue
		}
		family := c.(components.Estimator).ModelFamily()
		if family == model.Ensemble {
			continue
		}
		if _, ok := out[family]; !ok {
			out[family] = name
		}
	}
	return out
}

// ListModelFamilies returns the model families with a pipeline template
// for problemType, in declaration order.
func ListModelFamilies(problemType model.ProblemType) []model.ModelFamily {
	available := templateEstimators(problemType)
	var out []model.ModelFamily
	for _, f := range model.AllModelFamilies() {
		if _, ok := available[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// GetPipelines builds one unfitted template pipeline per requested family,
// or per available family when none are given.
func GetPipelines(problemType model.ProblemType, families []model.ModelFamily, opts ...Option) ([]*Pipeline, error) {
	available := templateEstimators(problemType)
	if len(families) == 0 {
		families = ListModelFamilies(problemType)
	}
	var out []*Pipeline
	for _, f := range families {
		est, ok := available[f]
		if !ok {
			return nil, errors.NewValueError("pipeline.GetPipelines",
				fmt.Sprintf("Unrecognized model type for problem type %s: %s", problemType, f))
		}
		var items []Item
		for _, step := range familySteps[f] {
			items = append(items, Key(step))
		}
		items = append(items, Key(est))
		p, err := Build(problemType, Linear(items...), opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
