package pipeline

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// MakeStackedEnsemblePipeline copies every component of every input
// pipeline into one graph and feeds their estimators into a stacked
// ensemble. Copies are named "<family> Pipeline[ n] - <node>", where n
// counts repeated model families from 2. Parameters, including
// overrides, are carried over unchanged.
//
// Parameters for the ensemble node go through WithParameters under the
// key "Stacked Ensemble Classifier" or "Stacked Ensemble Regressor".
func MakeStackedEnsemblePipeline(inputs []*Pipeline, problemType model.ProblemType, opts ...Option) (*Pipeline, error) {
	const op = "pipeline.MakeStackedEnsemblePipeline"
	if len(inputs) == 0 {
		return nil, errors.NewValueError(op, "at least one input pipeline is required")
	}
	ensemble := components.StackedEnsembleRegressorName
	if problemType.IsClassification() {
		ensemble = components.StackedEnsembleClassifierName
	}

	var nodes []Node
	var finalInputs []string
	seen := make(map[string]int)
	for _, in := range inputs {
		if in == nil {
			return nil, errors.NewValueError(op, "input pipeline is nil")
		}
		if in.problemType.IsClassification() != problemType.IsClassification() {
			return nil, errors.NewValueError(op, fmt.Sprintf("input pipeline %q solves %s, not %s", in.name, in.problemType, problemType))
		}
		family := in.ModelFamily().String()
		seen[family]++
		prefix := family + " Pipeline"
		if seen[family] > 1 {
			prefix = fmt.Sprintf("%s %d", prefix, seen[family])
		}
		rename := func(node string) string { return prefix + " - " + node }

		for _, gn := range in.graph.nodes {
			refs := make([]string, len(gn.refs))
			for i, ref := range gn.refs {
				if ref == InputX || ref == InputY {
					refs[i] = ref
					continue
				}
				dot := strings.LastIndex(ref, ".")
				refs[i] = rename(ref[:dot]) + ref[dot:]
			}
			nodes = append(nodes, Node{Name: rename(gn.name), Component: Use(gn.component), Inputs: refs})
		}
		finalInputs = append(finalInputs, rename(in.graph.terminal.name)+".x")
	}
	finalInputs = append(finalInputs, InputY)
	nodes = append(nodes, Node{Name: ensemble, Component: Key(ensemble), Inputs: finalInputs})

	return Build(problemType, Graph(nodes...), opts...)
}
