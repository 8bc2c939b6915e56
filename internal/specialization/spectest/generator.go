package spectest

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// ByteSource uses a byte slice as a source of randomness, so fuzz inputs map
// to reproducible operations. It yields zeros once exhausted.
type ByteSource struct {
	data []byte
	pos  int
}

func (s *ByteSource) Intn(n int) int {
	if n <= 0 || s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

// ErrGenerated is raised by the fragile guard on negative numbers. Generated
// specializations sometimes declare it as their fallback error.
var ErrGenerated = errors.New("generated guard failure")

// Generator builds random operations over the standard lattice. Bodies are
// pure and guards are deterministic, so any two selections over the same
// arguments are comparable.
type Generator struct {
	src   *ByteSource
	preds []*specialization.Predicate
}

var generatedTypes = []typesystem.TCon{
	typesystem.Int, typesystem.Double, typesystem.BigInt,
	typesystem.String, typesystem.Bool, typesystem.Any,
}

// GeneratedArgs are the values generated operations are called with.
var GeneratedArgs = []any{0, 1, -3, 12, 2.5, -0.5, "a", "", true, big.NewInt(5)}

func NewFromData(data []byte) *Generator {
	return &Generator{src: &ByteSource{data: data}}
}

func (g *Generator) Intn(n int) int {
	return g.src.Intn(n)
}

// Operation generates an operation of arity 1 or 2 with up to four
// specializations and, most of the time, an all-Any Generic.
func (g *Generator) Operation() *specialization.Operation {
	arity := g.Intn(2) + 1
	g.preds = []*specialization.Predicate{
		specialization.NewPredicate("small", small, g.Intn(arity)),
		specialization.NewPredicate("truthy", truthy, g.Intn(arity)),
		specialization.NewPredicate("fragile", fragile, g.Intn(arity)),
	}

	count := g.Intn(4) + 1
	ds := make([]*specialization.Descriptor, 0, count+1)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("s%d", i)
		sig := make([]typesystem.TCon, arity)
		for j := range sig {
			sig[j] = generatedTypes[g.Intn(len(generatedTypes))]
		}
		d := specialization.New(name, label(name), sig...)
		if n := g.Intn(3); n > 0 {
			guards := make([]specialization.Guard, 0, n)
			for k := 0; k < n; k++ {
				p := g.preds[g.Intn(len(g.preds))]
				if g.Intn(2) == 0 {
					guards = append(guards, p.Guard())
				} else {
					guards = append(guards, p.Not())
				}
			}
			d.WithGuards(guards...)
			if g.Intn(2) == 0 {
				d.WithRewriteOn(ErrGenerated)
			}
		}
		ds = append(ds, d)
	}
	if g.Intn(4) != 0 {
		sig := make([]typesystem.TCon, arity)
		for j := range sig {
			sig[j] = typesystem.Any
		}
		ds = append(ds, specialization.NewGeneric("generic", label("generic"), sig...))
	}
	return specialization.NewOperation("generated", typesystem.NewStandardLattice(), ds...)
}

// Args picks an argument list for an operation of the given arity.
func (g *Generator) Args(arity int) []any {
	args := make([]any, arity)
	for i := range args {
		args[i] = GeneratedArgs[g.Intn(len(GeneratedArgs))]
	}
	return args
}

func label(name string) specialization.Body {
	return func(_ context.Context, args []any) (any, error) {
		return fmt.Sprintf("%s%v", name, args), nil
	}
}

func small(values []any) (bool, error) {
	switch n := values[0].(type) {
	case int:
		return n > -10 && n < 10, nil
	case float64:
		return n > -10 && n < 10, nil
	}
	return false, nil
}

func truthy(values []any) (bool, error) {
	switch v := values[0].(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		return v != "", nil
	case *big.Int:
		return v.Sign() != 0, nil
	}
	return false, nil
}

func fragile(values []any) (bool, error) {
	switch n := values[0].(type) {
	case int:
		if n < 0 {
			return false, ErrGenerated
		}
		return n%2 == 0, nil
	case float64:
		if n < 0 {
			return false, ErrGenerated
		}
		return n > 1, nil
	}
	return true, nil
}
