package components

import (
	"sort"
	"sync"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// Factory creates a component from user parameters.
type Factory func(params model.Parameters) (Component, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register makes a component available under name. It panics if name is
// empty or already registered, like database/sql.Register.
func Register(name string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()
	if name == "" || factory == nil {
		panic("components: Register with empty name or nil factory")
	}
	if _, dup := registry.factories[name]; dup {
		panic("components: Register called twice for " + name)
	}
	registry.factories[name] = factory
}

// IsRegistered reports whether name has a factory.
func IsRegistered(name string) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, ok := registry.factories[name]
	return ok
}

// New looks up name and builds the component with params.
func New(name string, params model.Parameters) (Component, error) {
	registry.RLock()
	factory, ok := registry.factories[name]
	registry.RUnlock()
	if !ok {
		return nil, errors.NewStructuralErrorf("components.New", "Unknown component name %q", name)
	}
	return factory(params)
}

// Keys returns every registered name, sorted.
func Keys() []string {
	registry.RLock()
	defer registry.RUnlock()
	keys := make([]string, 0, len(registry.factories))
	for k := range registry.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EstimatorsFor lists the registered estimators supporting problemType.
func EstimatorsFor(problemType model.ProblemType) []string {
	var out []string
	for _, name := range Keys() {
		c, err := New(name, nil)
		if err != nil {
			continue
		}
		if e, ok := c.(Estimator); ok && Supports(e, problemType) {
			out = append(out, name)
		}
	}
	return out
}

// Clone returns an unfitted component with the same parameters. A seed that
// was filled in from the defaults stays implicit on the copy.
func Clone(c Component) (Component, error) {
	params := c.Parameters()
	if s, ok := c.(Seeded); ok && !s.SeedExplicit() {
		delete(params, "random_seed")
	}
	return New(c.Name(), params)
}

// WithSeed returns c unchanged when it takes no random_seed or its seed was
// set explicitly, otherwise an unfitted copy using seed.
func WithSeed(c Component, seed int64) (Component, error) {
	s, ok := c.(Seeded)
	params := c.Parameters()
	if !ok || s.SeedExplicit() || !params.Has("random_seed") {
		return c, nil
	}
	params["random_seed"] = int(seed)
	return New(c.Name(), params)
}
