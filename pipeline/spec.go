package pipeline

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// Reserved inputs naming the data given to Fit/Predict.
const (
	InputX = "X"
	InputY = "y"
)

// Item is one component reference: a registry key or a component instance.
// Instances are cloned when the pipeline is built.
type Item struct {
	key      string
	instance components.Component
}

// Key refers to a registered component by name, e.g. "Standard Scaler".
func Key(name string) Item { return Item{key: name} }

// Use wraps an already constructed component.
func Use(c components.Component) Item { return Item{instance: c} }

// Name returns the component name the item resolves to.
func (it Item) Name() string {
	if it.instance != nil {
		return it.instance.Name()
	}
	return it.key
}

// Node is one named vertex of a graph spec. Inputs reference "X", "y" or
// the output of another node as "<node>.x" / "<node>.y".
type Node struct {
	Name      string
	Component Item
	Inputs    []string
}

// Spec is how a pipeline is described: either a linear chain of items
// or an explicit graph. Build it with Linear or Graph.
type Spec struct {
	linear []Item
	graph  []Node
	chain  bool
}

// Linear describes a chain where each component feeds the next. The last
// item must be an estimator.
func Linear(items ...Item) Spec { return Spec{linear: items, chain: true} }

// Graph describes a DAG with explicit inputs.
func Graph(nodes ...Node) Spec { return Spec{graph: nodes} }

// IsLinear reports whether the spec was given as a chain.
func (s Spec) IsLinear() bool { return s.chain }

// nodes normalises either form into graph nodes. A linear chain names each
// node after its component; a repeated name gets "_<position>" appended.
func (s Spec) nodes() []Node {
	if !s.chain {
		out := make([]Node, len(s.graph))
		for i, n := range s.graph {
			out[i] = Node{Name: n.Name, Component: n.Component, Inputs: append([]string(nil), n.Inputs...)}
		}
		return out
	}
	if len(s.linear) == 0 {
		return nil
	}

	count := make(map[string]int)
	for _, it := range s.linear {
		count[it.Name()]++
	}
	out := make([]Node, len(s.linear))
	prev := ""
	for i, it := range s.linear {
		name := it.Name()
		if count[name] > 1 {
			name = name + "_" + strconv.Itoa(i)
		}
		inputs := []string{InputX, InputY}
		if prev != "" {
			inputs = []string{prev + ".x", prev + ".y"}
		}
		out[i] = Node{Name: name, Component: it, Inputs: inputs}
		prev = name
	}
	return out
}

// input is a parsed reference.
type input struct {
	node string // "" for the pipeline inputs
	y    bool
}

func parseInput(ref string) (input, error) {
	switch ref {
	case InputX:
		return input{}, nil
	case InputY:
		return input{y: true}, nil
	}
	dot := strings.LastIndex(ref, ".")
	if dot <= 0 {
		return input{}, errors.NewStructuralErrorf("pipeline.Build", "invalid input %q: expected X, y, <node>.x or <node>.y", ref)
	}
	switch ref[dot+1:] {
	case "x":
		return input{node: ref[:dot]}, nil
	case "y":
		return input{node: ref[:dot], y: true}, nil
	default:
		return input{}, errors.NewStructuralErrorf("pipeline.Build", "invalid output selector in %q: expected .x or .y", ref)
	}
}
