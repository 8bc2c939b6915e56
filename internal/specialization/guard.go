package specialization

import (
	"fmt"
	"strings"

	"github.com/funvibe/specnode/internal/typesystem"
)

// PredicateFunc is a side-effect-free test over argument values.
type PredicateFunc func(values []any) (bool, error)

// Predicate is a declared guard test. Its identity is the pointer: two
// predicates with the same name and code are still different guards.
type Predicate struct {
	Name string

	// Params selects the argument positions passed to Fn, in order.
	// An empty list passes every argument.
	Params []int
	Fn     PredicateFunc
}

// NewPredicate declares a predicate over the given argument positions.
func NewPredicate(name string, fn PredicateFunc, params ...int) *Predicate {
	return &Predicate{Name: name, Params: params, Fn: fn}
}

// Guard returns the guard testing p.
func (p *Predicate) Guard() Guard { return Guard{Predicate: p} }

// Not returns the guard testing the negation of p.
func (p *Predicate) Not() Guard { return Guard{Predicate: p, Negated: true} }

// Reads returns the argument positions p reads, for an operation of the given arity.
func (p *Predicate) Reads(arity int) []int {
	if len(p.Params) > 0 {
		return p.Params
	}
	all := make([]int, arity)
	for i := range all {
		all[i] = i
	}
	return all
}

func (p *Predicate) String() string {
	params := make([]string, len(p.Params))
	for i, idx := range p.Params {
		params[i] = fmt.Sprintf("arg%d", idx)
	}
	return p.Name + "(" + strings.Join(params, ", ") + ")"
}

// Guard is an explicit guard: a predicate, optionally negated.
// Guards are comparable; equality is predicate identity plus negation.
type Guard struct {
	Predicate *Predicate
	Negated   bool
}

// IsNegationOf reports whether g and other test the same predicate with
// opposite polarity.
func (g Guard) IsNegationOf(other Guard) bool {
	return g.Predicate == other.Predicate && g.Negated != other.Negated
}

// Evaluate runs the guard over the (already converted) argument values.
func (g Guard) Evaluate(args []any) (bool, error) {
	p := g.Predicate
	values := args
	if len(p.Params) > 0 {
		values = make([]any, len(p.Params))
		for i, idx := range p.Params {
			values[i] = args[idx]
		}
	}
	ok, err := p.Fn(values)
	if err != nil {
		return false, fmt.Errorf("guard %s: %w", p.Name, err)
	}
	return ok != g.Negated, nil
}

func (g Guard) String() string {
	if g.Negated {
		return "!" + g.Predicate.String()
	}
	return g.Predicate.String()
}

// TypeGuard requires the argument at Index to be (convertible to) Type.
type TypeGuard struct {
	Index int
	Type  typesystem.TCon
}

func (t TypeGuard) String() string {
	return fmt.Sprintf("arg%d is %s", t.Index, t.Type)
}
