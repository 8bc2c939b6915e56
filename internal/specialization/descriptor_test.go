package specialization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/typesystem"
)

var errOverflow = errors.New("overflow")

func isPositive(values []any) (bool, error) {
	return values[0].(int) > 0, nil
}

func echo(_ context.Context, args []any) (any, error) {
	return args, nil
}

func TestGuardIdentity(t *testing.T) {
	p := NewPredicate("isPositive", isPositive, 0)
	q := NewPredicate("isPositive", isPositive, 0)

	assert.Equal(t, p.Guard(), p.Guard())
	assert.NotEqual(t, p.Guard(), q.Guard(), "same name, different declaration")
	assert.True(t, p.Not().IsNegationOf(p.Guard()))
	assert.False(t, q.Not().IsNegationOf(p.Guard()))
	assert.Equal(t, "!isPositive(arg0)", p.Not().String())
	assert.Equal(t, []int{0, 1}, NewPredicate("both", isPositive).Reads(2))
}

func TestGuardEvaluate(t *testing.T) {
	p := NewPredicate("isPositive", isPositive, 1)

	ok, err := p.Guard().Evaluate([]any{-1, 5})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Not().Evaluate([]any{-1, 5})
	require.NoError(t, err)
	assert.False(t, ok)

	failing := NewPredicate("boom", func([]any) (bool, error) { return false, errOverflow })
	_, err = failing.Guard().Evaluate([]any{1})
	assert.ErrorIs(t, err, errOverflow)
}

func TestAssumption(t *testing.T) {
	a := NewAssumption("stable")
	assert.True(t, a.IsValid())
	assert.True(t, a.Invalidate())
	assert.False(t, a.Invalidate(), "second invalidation is a no-op")
	assert.False(t, a.IsValid())
	assert.Equal(t, "stable(invalid)", a.String())
	assert.False(t, AllValid([]*Assumption{NewAssumption("x"), a}))
}

func TestSignatureGenerality(t *testing.T) {
	l := typesystem.NewStandardLattice()
	ii := Signature{typesystem.Int, typesystem.Int}
	dd := Signature{typesystem.Double, typesystem.Double}
	aa := Signature{typesystem.Any, typesystem.Any}
	si := Signature{typesystem.String, typesystem.Int}

	assert.True(t, dd.IsMoreGeneralThan(ii, l))
	assert.True(t, aa.IsMoreGeneralThan(dd, l))
	assert.False(t, ii.IsMoreGeneralThan(dd, l))
	assert.False(t, ii.IsMoreGeneralThan(ii, l), "equal signatures are not strictly more general")
	assert.False(t, dd.IsMoreGeneralThan(si, l))
	assert.True(t, aa.IsAny())
	assert.Equal(t, "(Int, Int)", ii.String())
}

func TestDescriptorMatch(t *testing.T) {
	l := typesystem.NewStandardLattice()
	positive := NewPredicate("isPositive", isPositive, 0)
	valid := NewAssumption("valid")

	d := New("doAddDouble", echo, typesystem.Double, typesystem.Double).
		WithAssumptions(valid)

	conv, ok, err := d.Match(l, []any{1, 2.5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.5}, conv)

	_, ok, _ = d.Match(l, []any{"a", 2.5})
	assert.False(t, ok)
	_, ok, _ = d.Match(l, []any{1.0})
	assert.False(t, ok, "arity mismatch")

	valid.Invalidate()
	_, ok, _ = d.Match(l, []any{1.0, 2.0})
	assert.False(t, ok, "broken assumption")

	g := New("doPositive", echo, typesystem.Int).WithGuards(positive.Guard())
	_, ok, _ = g.Match(l, []any{3})
	assert.True(t, ok)
	_, ok, _ = g.Match(l, []any{-3})
	assert.False(t, ok)
}

func TestDescriptorPredicates(t *testing.T) {
	p := NewPredicate("isPositive", isPositive, 0)
	a := NewAssumption("a")

	total := NewGeneric("generic", echo, typesystem.Any)
	assert.True(t, total.IsTotal())
	assert.False(t, New("x", echo, typesystem.Int).IsTotal())
	assert.False(t, NewGeneric("g", echo, typesystem.Any).WithRewriteOn(errOverflow).IsTotal())

	x := New("x", echo, typesystem.Int).WithGuards(p.Guard()).WithAssumptions(a)
	y := New("y", echo, typesystem.Int).WithAssumptions(a).WithGuards(p.Guard())
	z := New("z", echo, typesystem.Int).WithGuards(p.Not()).WithAssumptions(a)
	assert.True(t, x.EqualsGuards(y))
	assert.False(t, x.EqualsGuards(z))

	o := New("o", echo, typesystem.Int).WithRewriteOn(errOverflow)
	assert.True(t, o.RewritesOn(errOverflow))
	assert.True(t, o.RewritesOn(errors.Join(errors.New("context"), errOverflow)))
	assert.False(t, o.RewritesOn(errors.New("other")))
	assert.False(t, o.RewritesOn(nil))

	c := x.Clone()
	c.Guards[0] = p.Not()
	assert.Equal(t, p.Guard(), x.Guards[0], "clone owns its slices")

	_, err := (&Descriptor{Name: "nobody"}).Invoke(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, x.String(), "x(Int) isPositive(arg0) @a")
}
