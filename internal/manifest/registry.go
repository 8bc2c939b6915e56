package manifest

import (
	"fmt"
	"strings"

	"github.com/funvibe/specnode/internal/builtins"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// Registry binds the names used in manifests to Go code. A registry hands out
// one Predicate per reference, so "p(0)" and "!p(0)" in different
// specializations test the same guard.
type Registry struct {
	Lattice *typesystem.Lattice

	bodies      map[string]specialization.Body
	predicates  map[string]specialization.PredicateFunc
	errors      map[string]error
	assumptions map[string]*specialization.Assumption
	declared    map[string]*specialization.Predicate
}

// NewRegistry creates an empty registry over l.
func NewRegistry(l *typesystem.Lattice) *Registry {
	if l == nil {
		l = typesystem.NewStandardLattice()
	}
	return &Registry{
		Lattice:     l,
		bodies:      make(map[string]specialization.Body),
		predicates:  make(map[string]specialization.PredicateFunc),
		errors:      make(map[string]error),
		assumptions: make(map[string]*specialization.Assumption),
		declared:    make(map[string]*specialization.Predicate),
	}
}

// StandardRegistry is the registry the command line uses.
func StandardRegistry() *Registry {
	r := NewRegistry(typesystem.NewStandardLattice())

	r.RegisterBody("addInts", builtins.AddInts)
	r.RegisterBody("mulInts", builtins.MulInts)
	r.RegisterBody("addDoubles", builtins.AddDoubles)
	r.RegisterBody("mulDoubles", builtins.MulDoubles)
	r.RegisterBody("addBigInts", builtins.AddBigInts)
	r.RegisterBody("concat", builtins.Concat)
	r.RegisterBody("addBoxed", builtins.AddBoxed)
	r.RegisterBody("mulBoxed", builtins.MulBoxed)
	r.RegisterBody("identity", builtins.Identity)
	r.RegisterBody("describe", builtins.Describe)
	r.RegisterBody("one", builtins.Constant(1))
	r.RegisterBody("zero", builtins.Constant(0))
	r.RegisterBody("minusOne", builtins.Constant(-1))

	r.RegisterPredicate("isPositive", builtins.IsPositive)
	r.RegisterPredicate("isZero", builtins.IsZero)
	r.RegisterPredicate("isEven", builtins.IsEven)
	r.RegisterPredicate("isEmpty", builtins.IsEmpty)
	r.RegisterPredicate("equal", builtins.Equal)

	r.RegisterError("overflow", builtins.ErrOverflow)
	return r
}

func (r *Registry) RegisterBody(name string, body specialization.Body) {
	r.bodies[name] = body
}

func (r *Registry) RegisterPredicate(name string, fn specialization.PredicateFunc) {
	r.predicates[name] = fn
}

func (r *Registry) RegisterError(name string, err error) {
	r.errors[name] = err
}

// Assumption returns the named assumption, creating it on first use.
func (r *Registry) Assumption(name string) *specialization.Assumption {
	a, ok := r.assumptions[name]
	if !ok {
		a = specialization.NewAssumption(name)
		r.assumptions[name] = a
	}
	return a
}

// Body looks up a registered body.
func (r *Registry) Body(name string) (specialization.Body, bool) {
	b, ok := r.bodies[name]
	return b, ok
}

// Error looks up a registered error.
func (r *Registry) Error(name string) (error, bool) {
	err, ok := r.errors[name]
	return err, ok
}

// predicate returns the shared Predicate for name over params.
func (r *Registry) predicate(name string, params []int) (*specialization.Predicate, bool) {
	fn, ok := r.predicates[name]
	if !ok {
		return nil, false
	}
	key := predicateKey(name, params)
	if p, ok := r.declared[key]; ok {
		return p, true
	}
	p := specialization.NewPredicate(name, fn, params...)
	r.declared[key] = p
	return p, true
}

func predicateKey(name string, params []int) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}
