package pipeline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
)

const linearEstimatorMessage = "A pipeline must have an Estimator as the last component in component_list."

// graphNode is a vertex of the component DAG. Its ID is the declaration index.
type graphNode struct {
	id        int64
	name      string
	component components.Component
	refs      []string
	inputs    []input
}

func (n *graphNode) ID() int64 { return n.id }

// ComponentGraph is the validated, immutable wiring of a pipeline.
type ComponentGraph struct {
	nodes    []*graphNode // declaration order
	byName   map[string]*graphNode
	order    []*graphNode // execution order
	terminal *graphNode
	dag      *simple.DirectedGraph
}

// checkWiring validates names and input references. It runs before any
// component is constructed.
func checkWiring(nodes []Node) error {
	const op = "pipeline.Build"
	if len(nodes) == 0 {
		return errors.NewStructuralError(op, "A pipeline must contain at least one component.")
	}
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Name == "" {
			return errors.NewStructuralError(op, "component names must not be empty")
		}
		if n.Name == InputX || n.Name == InputY {
			return errors.NewStructuralErrorf(op, "component name %q is reserved", n.Name)
		}
		if seen[n.Name] {
			return errors.NewStructuralErrorf(op, "Duplicate component name %q", n.Name)
		}
		seen[n.Name] = true
	}
	for _, n := range nodes {
		var xs, ys int
		for _, ref := range n.Inputs {
			in, err := parseInput(ref)
			if err != nil {
				return err
			}
			if in.node != "" && !seen[in.node] {
				return errors.NewStructuralErrorf(op, "input %q of %q does not match any component in the graph", ref, n.Name)
			}
			if in.node == n.Name {
				return errors.NewStructuralErrorf(op, "component %q cannot take its own output as input", n.Name)
			}
			if in.y {
				ys++
			} else {
				xs++
			}
		}
		if xs == 0 {
			return errors.NewStructuralErrorf(op, "component %q has no feature (x) input", n.Name)
		}
		if ys > 1 {
			return errors.NewStructuralErrorf(op, "component %q has more than one target (y) input", n.Name)
		}
	}
	return nil
}

// newComponentGraph links instantiated components. comps[i] belongs to nodes[i].
func newComponentGraph(nodes []Node, comps []components.Component, linear bool) (*ComponentGraph, error) {
	const op = "pipeline.Build"
	g := &ComponentGraph{
		byName: make(map[string]*graphNode, len(nodes)),
		dag:    simple.NewDirectedGraph(),
	}
	for i, n := range nodes {
		gn := &graphNode{id: int64(i), name: n.Name, component: comps[i], refs: n.Inputs}
		for _, ref := range n.Inputs {
			in, _ := parseInput(ref)
			gn.inputs = append(gn.inputs, in)
		}
		g.nodes = append(g.nodes, gn)
		g.byName[gn.name] = gn
		g.dag.AddNode(gn)
	}
	for _, gn := range g.nodes {
		for _, in := range gn.inputs {
			if in.node == "" {
				continue
			}
			from := g.byName[in.node]
			if !g.dag.HasEdgeFromTo(from.id, gn.id) {
				g.dag.SetEdge(g.dag.NewEdge(from, gn))
			}
		}
	}

	if _, err := topo.Sort(g.dag); err != nil {
		if cycles, ok := err.(topo.Unorderable); ok {
			var parts []string
			for _, cycle := range cycles {
				names := make([]string, len(cycle))
				for i, n := range cycle {
					names[i] = n.(*graphNode).name
				}
				parts = append(parts, "["+strings.Join(names, ", ")+"]")
			}
			return nil, errors.NewStructuralErrorf(op, "component graph contains a cycle: %s", strings.Join(parts, " "))
		}
		return nil, errors.Wrap(err, op)
	}

	var sinks []*graphNode
	for _, gn := range g.nodes {
		if g.dag.From(gn.id).Len() == 0 {
			sinks = append(sinks, gn)
		}
	}
	if linear {
		last := g.nodes[len(g.nodes)-1]
		if _, ok := last.component.(components.Estimator); !ok {
			return nil, errors.NewStructuralError(op, linearEstimatorMessage)
		}
	}
	if len(sinks) != 1 {
		names := make([]string, len(sinks))
		for i, s := range sinks {
			names[i] = s.name
		}
		return nil, errors.NewStructuralErrorf(op, "component graph must have exactly one final component, found %d: %s",
			len(sinks), strings.Join(names, ", "))
	}
	g.terminal = sinks[0]
	if _, ok := g.terminal.component.(components.Estimator); !ok {
		return nil, errors.NewStructuralErrorf(op, "the final component %q must be an Estimator", g.terminal.name)
	}

	g.order = g.kahn()
	return g, nil
}

// kahn orders nodes topologically; among ready nodes the one declared first runs first.
func (g *ComponentGraph) kahn() []*graphNode {
	indeg := make([]int, len(g.nodes))
	for _, gn := range g.nodes {
		indeg[gn.id] = g.dag.To(gn.id).Len()
	}
	ready := make([]bool, len(g.nodes))
	for i, d := range indeg {
		ready[i] = d == 0
	}
	order := make([]*graphNode, 0, len(g.nodes))
	for len(order) < len(g.nodes) {
		next := -1
		for i, ok := range ready {
			if ok {
				next = i
				break
			}
		}
		ready[next] = false
		gn := g.nodes[next]
		order = append(order, gn)
		succ := g.dag.From(gn.id)
		for succ.Next() {
			id := succ.Node().ID()
			indeg[id]--
			if indeg[id] == 0 {
				ready[id] = true
			}
		}
	}
	return order
}

// Order returns node names in execution order.
func (g *ComponentGraph) Order() []string {
	out := make([]string, len(g.order))
	for i, gn := range g.order {
		out[i] = gn.name
	}
	return out
}

// Inputs returns the declared inputs of node, or nil if there is no such node.
func (g *ComponentGraph) Inputs(node string) []string {
	gn, ok := g.byName[node]
	if !ok {
		return nil
	}
	return append([]string(nil), gn.refs...)
}

// Terminal returns the name of the final estimator node.
func (g *ComponentGraph) Terminal() string { return g.terminal.name }

func (g *ComponentGraph) estimator() components.Estimator {
	return g.terminal.component.(components.Estimator)
}

// needsTarget reports whether any node declares a y input.
func (g *ComponentGraph) needsTarget() bool {
	for _, gn := range g.nodes {
		for _, in := range gn.inputs {
			if in.y {
				return true
			}
		}
	}
	return false
}

type stream struct {
	x mat.Matrix
	y *mat.VecDense
}

// gather assembles the input of gn. Several x inputs are concatenated
// column-wise in declaration order; without a y input the pipeline target
// is used.
func (g *ComponentGraph) gather(gn *graphNode, src stream, outs map[string]stream) (stream, error) {
	var xs []mat.Matrix
	y := src.y
	for _, in := range gn.inputs {
		s := src
		if in.node != "" {
			s = outs[in.node]
		}
		if in.y {
			y = s.y
		} else {
			xs = append(xs, s.x)
		}
	}
	x, err := hstack(gn.name, xs)
	if err != nil {
		return stream{}, err
	}
	return stream{x: x, y: y}, nil
}

// fit trains every node in order. Downstream of a sampler two row sets
// exist: the resampled rows components learn from and the caller's rows.
// An estimator used as a transformer is trained on the former but emits
// features for the latter, so its consumers see the caller's rows again.
func (g *ComponentGraph) fit(X mat.Matrix, y *mat.VecDense, classification bool, logger log.Logger) error {
	if y == nil && g.needsTarget() {
		return errors.Wrap(errors.ErrTargetIsNone, "pipeline.Fit")
	}
	st := &fitState{
		src:       stream{x: X, y: y},
		fitOuts:   make(map[string]stream, len(g.nodes)),
		evalOuts:  make(map[string]stream, len(g.nodes)),
		resampled: make(map[string]bool, len(g.nodes)),
	}
	for _, gn := range g.order {
		if err := g.fitNode(gn, st, classification, logger); err != nil {
			return err
		}
	}
	return nil
}

type fitState struct {
	src       stream
	fitOuts   map[string]stream
	evalOuts  map[string]stream
	resampled map[string]bool
}

// fitNode trains one node. A panic inside the component becomes a PanicError.
func (g *ComponentGraph) fitNode(gn *graphNode, st *fitState, classification bool, logger log.Logger) (err error) {
	defer errors.Recover(&err, gn.name+".Fit")

	in, err := g.gather(gn, st.src, st.fitOuts)
	if err != nil {
		return err
	}
	rows, cols := in.x.Dims()
	logger.Debug("fitting component", log.NodeKey, gn.name, log.SamplesKey, rows, log.FeaturesKey, cols)

	if gn == g.terminal {
		if err := g.estimator().Fit(in.x, in.y); err != nil {
			return errors.Wrapf(err, "pipeline: fit %q", gn.name)
		}
		return nil
	}

	diverged := false
	for _, ref := range gn.inputs {
		diverged = diverged || (ref.node != "" && st.resampled[ref.node])
	}
	evalIn := in
	if diverged {
		if evalIn, err = g.gather(gn, st.src, st.evalOuts); err != nil {
			return err
		}
	}

	switch c := gn.component.(type) {
	case components.Transformer:
		x, yy, err := c.FitTransform(in.x, in.y)
		if err != nil {
			return errors.Wrapf(err, "pipeline: fit %q", gn.name)
		}
		if yy == nil {
			yy = in.y
		}
		st.fitOuts[gn.name] = stream{x: x, y: yy}
		_, sampler := c.(components.Sampler)
		if !diverged && !sampler {
			st.evalOuts[gn.name] = st.fitOuts[gn.name]
			return nil
		}
		ex, ey, err := c.Transform(evalIn.x, evalIn.y)
		if err != nil {
			return errors.Wrapf(err, "pipeline: transform %q", gn.name)
		}
		if ey == nil {
			ey = evalIn.y
		}
		st.evalOuts[gn.name] = stream{x: ex, y: ey}
		st.resampled[gn.name] = true
	case components.Estimator:
		if err := c.Fit(in.x, in.y); err != nil {
			return errors.Wrapf(err, "pipeline: fit %q", gn.name)
		}
		x, err := estimatorFeatures(c, evalIn.x, classification)
		if err != nil {
			return errors.Wrapf(err, "pipeline: predict %q", gn.name)
		}
		st.fitOuts[gn.name] = stream{x: x, y: evalIn.y}
		st.evalOuts[gn.name] = st.fitOuts[gn.name]
	default:
		return errors.NewStructuralErrorf("pipeline.Fit", "component %q is neither a Transformer nor an Estimator", gn.name)
	}
	return nil
}

// finalInput runs every node but the last on X and returns what the final
// estimator receives.
func (g *ComponentGraph) finalInput(X mat.Matrix, classification bool) (mat.Matrix, error) {
	src := stream{x: X}
	outs := make(map[string]stream, len(g.nodes))
	for _, gn := range g.order {
		in, err := g.gather(gn, src, outs)
		if err != nil {
			return nil, err
		}
		if gn == g.terminal {
			return in.x, nil
		}
		if err := g.transformNode(gn, in, outs, classification); err != nil {
			return nil, err
		}
	}
	return nil, errors.NewStructuralError("pipeline.Predict", "final component was not reached")
}

func (g *ComponentGraph) transformNode(gn *graphNode, in stream, outs map[string]stream, classification bool) (err error) {
	defer errors.Recover(&err, gn.name+".Transform")

	switch c := gn.component.(type) {
	case components.Transformer:
		x, y, err := c.Transform(in.x, in.y)
		if err != nil {
			return errors.Wrapf(err, "pipeline: transform %q", gn.name)
		}
		outs[gn.name] = stream{x: x, y: y}
	case components.Estimator:
		x, err := estimatorFeatures(c, in.x, classification)
		if err != nil {
			return errors.Wrapf(err, "pipeline: predict %q", gn.name)
		}
		outs[gn.name] = stream{x: x, y: in.y}
	}
	return nil
}

// estimatorFeatures is what an estimator emits as ".x" when another node
// consumes it: class probabilities for classifiers (only the positive class
// for two classes) and the prediction otherwise.
func estimatorFeatures(e components.Estimator, X mat.Matrix, classification bool) (mat.Matrix, error) {
	if classification && components.IsClassifier(e) {
		proba, err := e.PredictProba(X)
		if err != nil {
			return nil, err
		}
		r, c := proba.Dims()
		if c == 2 {
			return proba.Slice(0, r, 1, 2), nil
		}
		return proba, nil
	}
	pred, err := e.Predict(X)
	if err != nil {
		return nil, err
	}
	return pred, nil
}

// hstack は行数の等しい行列を横に連結する
func hstack(node string, ms []mat.Matrix) (mat.Matrix, error) {
	if len(ms) == 1 {
		return ms[0], nil
	}
	rows, _ := ms[0].Dims()
	total := 0
	for _, m := range ms {
		r, c := m.Dims()
		if r != rows {
			return nil, errors.NewDimensionError(fmt.Sprintf("pipeline: inputs of %q", node), rows, r, 0)
		}
		total += c
	}
	if rows == 0 || total == 0 {
		return nil, errors.NewValueError("pipeline", fmt.Sprintf("inputs of %q are empty", node))
	}
	out := mat.NewDense(rows, total, nil)
	col := 0
	for _, m := range ms {
		_, c := m.Dims()
		out.Slice(0, rows, col, col+c).(*mat.Dense).Copy(m)
		col += c
	}
	return out, nil
}
