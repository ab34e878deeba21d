// Package builtin implements the stock two-argument functions available to
// formula environments assembled from data files or API requests.
package builtin

import (
	"fmt"

	"github.com/gamekitlabs/formula-engine/pkg/formula"
)

// Registry holds named two-argument int32 functions.
type Registry struct {
	funcs map[string]formula.Func
}

// NewRegistry creates a registry with all stock functions registered.
func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]formula.Func),
	}
	r.registerMath()
	return r
}

func (r *Registry) registerMath() {
	r.Register("min", func(a, b int32) (int32, error) {
		if a < b {
			return a, nil
		}
		return b, nil
	})
	r.Register("max", func(a, b int32) (int32, error) {
		if a > b {
			return a, nil
		}
		return b, nil
	})
	r.Register("pow", pow)
	r.Register("mod", mod)
}

// Register adds a function to the registry, replacing any previous binding.
func (r *Registry) Register(name string, fn formula.Func) {
	r.funcs[name] = fn
}

// Lookup returns the named function.
func (r *Registry) Lookup(name string) (formula.Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Functions returns a copy of the registry as an environment table.
func (r *Registry) Functions() map[string]formula.Func {
	out := make(map[string]formula.Func, len(r.funcs))
	for name, fn := range r.funcs {
		out[name] = fn
	}
	return out
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

// pow raises a to the b-th power with wrapping int32 multiplication,
// square-and-multiply so large exponents stay cheap. A negative exponent is
// an error; pow(x, 0) is 1.
func pow(a, b int32) (int32, error) {
	if b < 0 {
		return 0, fmt.Errorf("negative exponent %d", b)
	}
	result := int32(1)
	base := a
	for e := uint32(b); e > 0; e >>= 1 {
		if e&1 == 1 {
			result *= base
		}
		base *= base
	}
	return result, nil
}

// mod returns a modulo b, zero-tolerant like formula division: mod(x, 0) is 0.
func mod(a, b int32) (int32, error) {
	if b == 0 {
		return 0, nil
	}
	return a % b, nil
}
