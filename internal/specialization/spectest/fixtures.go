// Package spectest provides ready-made operations for tests of the packages
// built on specialization.
package spectest

import (
	"sync/atomic"

	"github.com/funvibe/specnode/internal/builtins"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

var (
	ErrOverflow = builtins.ErrOverflow
	AddInts     = builtins.AddInts
	AddDoubles  = builtins.AddDoubles
	Concat      = builtins.Concat
	AddBoxed    = builtins.AddBoxed
	Identity    = builtins.Identity
)

// Add is the overflow-checked addition: an int specialization that falls back
// on ErrOverflow, then the boxed Generic.
func Add() *specialization.Operation {
	return specialization.NewOperation("add", typesystem.NewStandardLattice(),
		specialization.New("doAdd", AddInts, typesystem.Int, typesystem.Int).WithRewriteOn(ErrOverflow),
		specialization.NewGeneric("addGeneric", AddBoxed, typesystem.Any, typesystem.Any),
	)
}

// Plus has three monomorphic specializations and a boxed Generic.
func Plus() *specialization.Operation {
	return specialization.NewOperation("plus", typesystem.NewStandardLattice(),
		specialization.New("addInt", AddInts, typesystem.Int, typesystem.Int).WithRewriteOn(ErrOverflow),
		specialization.New("addDouble", AddDoubles, typesystem.Double, typesystem.Double),
		specialization.New("concat", Concat, typesystem.String, typesystem.String),
		specialization.NewGeneric("plusGeneric", AddBoxed, typesystem.Any, typesystem.Any),
	)
}

// IsPositive is the predicate "arg0 > 0".
var IsPositive = specialization.NewPredicate("isPositive", builtins.IsPositive, 0)

// Sign splits Int arguments on IsPositive and its negation.
func Sign() *specialization.Operation {
	return SignWith(IsPositive)
}

// SignWith is Sign over a caller-supplied predicate, so tests can count calls.
func SignWith(p *specialization.Predicate) *specialization.Operation {
	return specialization.NewOperation("sign", typesystem.NewStandardLattice(),
		specialization.New("positive", builtins.Constant(1), typesystem.Int).WithGuards(p.Guard()),
		specialization.New("nonPositive", builtins.Constant(-1), typesystem.Int).WithGuards(p.Not()),
		specialization.NewGeneric("signGeneric", builtins.Constant(0), typesystem.Any),
	)
}

// CountingPredicate wraps fn and counts its invocations.
func CountingPredicate(name string, fn specialization.PredicateFunc, params ...int) (*specialization.Predicate, *atomic.Int64) {
	var calls atomic.Int64
	p := specialization.NewPredicate(name, func(values []any) (bool, error) {
		calls.Add(1)
		return fn(values)
	}, params...)
	return p, &calls
}
