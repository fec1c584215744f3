package pipeline

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/objectives"
)

// Describe writes the pipeline summary to standard output.
func (p *Pipeline) Describe() {
	_ = p.DescribeTo(os.Stdout)
}

// DescribeTo writes a human-readable summary: name, problem types, model
// family, objective and every component with its parameters.
func (p *Pipeline) DescribeTo(w io.Writer) error {
	var b strings.Builder
	title := "* " + p.name + " *"
	border := strings.Repeat("*", len(title))
	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", border, title, border)

	fmt.Fprintf(&b, "Problem Types: %s\n", model.JoinProblemTypes(p.ProblemTypes()))
	fmt.Fprintf(&b, "Model Type: %s\n", p.ModelFamily())
	fmt.Fprintf(&b, "Objective to Optimize: %s (%s)\n", p.objective.Name(), objectives.Direction(p.objective))
	if p.IsFitted() {
		nFeatures, _ := p.state.GetDimensions()
		fmt.Fprintf(&b, "Number of features: %d\n", nFeatures)
	}

	b.WriteString("\nPipeline Steps\n==============\n")
	for i, gn := range p.graph.order {
		label := gn.name
		if gn.name != gn.component.Name() {
			label = fmt.Sprintf("%s (%s)", gn.name, gn.component.Name())
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
		if !p.spec.IsLinear() {
			fmt.Fprintf(&b, "\t * inputs : %s\n", strings.Join(gn.refs, ", "))
		}
		params := gn.component.Parameters()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\t * %s : %s\n", k, formatValue(params[k]))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(v interface{}) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case components.Component:
		return tv.Name()
	default:
		return fmt.Sprintf("%v", tv)
	}
}
