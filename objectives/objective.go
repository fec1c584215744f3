// Package objectives defines the scoring objectives a pipeline optimises
// and reports. Objectives are looked up by name through a registry so a
// saved pipeline can rebuild the objective it was trained with, including
// custom ones registered by the caller.
package objectives

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// Objective scores predictions against the true target.
type Objective interface {
	Name() string
	GreaterIsBetter() bool
	// ScoreNeedsProba reports whether ObjectiveFunction reads proba rather
	// than yPred.
	ScoreNeedsProba() bool
	ProblemTypes() []model.ProblemType

	// ObjectiveFunction computes the score. yTrue and yPred hold encoded
	// class indices for classification; proba has one column per class and
	// is nil for regression. X is the pipeline input, used by cost-based
	// objectives.
	ObjectiveFunction(yTrue, yPred *mat.VecDense, proba *mat.Dense, X mat.Matrix) (float64, error)
}

// Configurable is implemented by objectives with parameters. The returned
// Parameters, passed back to the registered factory, must rebuild an
// equivalent objective.
type Configurable interface {
	Objective
	Parameters() model.Parameters
}

// Factory builds an objective from its parameters (nil for defaults).
type Factory func(params model.Parameters) (Objective, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register makes an objective available by name. Registering a name twice
// replaces the earlier factory so tests and plugins can override objectives.
func Register(name string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()
	registry.factories[name] = factory
}

// Unregister removes name from the registry.
func Unregister(name string) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.factories, name)
}

// Get builds the objective registered under name. An unknown name is an
// UnregisteredTypeError.
func Get(name string, params model.Parameters) (Objective, error) {
	registry.RLock()
	factory, ok := registry.factories[name]
	registry.RUnlock()
	if !ok {
		return nil, errors.NewUnregisteredTypeError("objective", name)
	}
	return factory(params)
}

// MustGet is Get for built-in names; it panics on error.
func MustGet(name string) Objective {
	o, err := Get(name, nil)
	if err != nil {
		panic(err)
	}
	return o
}

// Names lists every registered objective, sorted.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]string, 0, len(registry.factories))
	for k := range registry.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParametersOf returns the parameters of a Configurable objective, or nil.
func ParametersOf(o Objective) model.Parameters {
	if c, ok := o.(Configurable); ok {
		return c.Parameters()
	}
	return nil
}

// Supports reports whether o can score problemType.
func Supports(o Objective, problemType model.ProblemType) bool {
	for _, pt := range o.ProblemTypes() {
		if pt == problemType {
			return true
		}
	}
	return false
}

// DefaultFor returns the objective a pipeline uses when none is given.
func DefaultFor(problemType model.ProblemType) Objective {
	switch {
	case problemType.IsBinary():
		return MustGet(LogLossBinaryName)
	case problemType.IsMulticlass():
		return MustGet(LogLossMulticlassName)
	default:
		return MustGet(R2Name)
	}
}

// Direction renders "greater is better" or "lower is better".
func Direction(o Objective) string {
	if o.GreaterIsBetter() {
		return "greater is better"
	}
	return "lower is better"
}
