package typesystem

import (
	"fmt"

	set "github.com/hashicorp/go-set/v3"
)

// Check reports whether a runtime value is an instance of a type.
type Check func(v any) bool

// Conversion widens a value of a source type into a target type.
type Conversion func(v any) any

type declaration struct {
	t      TCon
	check  Check
	supers []TCon

	// casts maps a source type to the conversion producing a value of t.
	// castOrder keeps declaration order for deterministic lookups.
	casts     map[TCon]Conversion
	castOrder []TCon
}

// Lattice is the partial order over declared types together with the
// implicit conversions between them. It is built once and read-only afterwards,
// so concurrent queries need no locking.
type Lattice struct {
	decls map[TCon]*declaration
	order []TCon
}

// NewLattice creates a lattice that only knows Any.
func NewLattice() *Lattice {
	l := &Lattice{decls: make(map[TCon]*declaration)}
	l.decls[Any] = &declaration{
		t:     Any,
		check: func(any) bool { return true },
		casts: make(map[TCon]Conversion),
	}
	l.order = append(l.order, Any)
	return l
}

// Declare registers t with its runtime check and direct supertypes.
// Supertypes must already be declared, which keeps the order acyclic.
func (l *Lattice) Declare(t TCon, check Check, supers ...TCon) error {
	if _, ok := l.decls[t]; ok {
		return &DuplicateTypeError{Type: t}
	}
	if check == nil {
		return fmt.Errorf("type %s declared without a check", t)
	}
	for _, s := range supers {
		if !l.Has(s) {
			return NewUnknownTypeError(s)
		}
	}
	l.decls[t] = &declaration{
		t:      t,
		check:  check,
		supers: append([]TCon(nil), supers...),
		casts:  make(map[TCon]Conversion),
	}
	l.order = append(l.order, t)
	return nil
}

// DeclareCast registers an implicit conversion from one type into another.
func (l *Lattice) DeclareCast(from, to TCon, conv Conversion) error {
	if !l.Has(from) {
		return NewUnknownTypeError(from)
	}
	target, ok := l.decls[to]
	if !ok {
		return NewUnknownTypeError(to)
	}
	if from == to || to.IsAny() {
		return fmt.Errorf("implicit cast %s -> %s is redundant", from, to)
	}
	if conv == nil {
		return fmt.Errorf("implicit cast %s -> %s has no conversion", from, to)
	}
	if _, exists := target.casts[from]; !exists {
		target.castOrder = append(target.castOrder, from)
	}
	target.casts[from] = conv
	return nil
}

// Has reports whether t is declared.
func (l *Lattice) Has(t TCon) bool {
	_, ok := l.decls[t]
	return ok
}

// Lookup finds a declared type by its printed name.
func (l *Lattice) Lookup(name string) (TCon, bool) {
	t := ParseTCon(name)
	if l.Has(t) {
		return t, true
	}
	return TCon{}, false
}

// Types returns all declared types in declaration order, Any first.
func (l *Lattice) Types() []TCon {
	return append([]TCon(nil), l.order...)
}

// IsSubtype reports whether a <: b. The relation is reflexive and transitive,
// and every type is a subtype of Any.
func (l *Lattice) IsSubtype(a, b TCon) bool {
	if a == b || b.IsAny() {
		return true
	}
	d, ok := l.decls[a]
	if !ok {
		return false
	}
	for _, s := range d.supers {
		if l.IsSubtype(s, b) {
			return true
		}
	}
	return false
}

// castFrom returns the conversion that turns a value of type from into to,
// or nil when there is none.
func (l *Lattice) castFrom(from, to TCon) Conversion {
	d, ok := l.decls[to]
	if !ok {
		return nil
	}
	if conv, ok := d.casts[from]; ok {
		return conv
	}
	for _, src := range d.castOrder {
		if l.IsSubtype(from, src) {
			return d.casts[src]
		}
	}
	return nil
}

// NeedsCast reports whether a value of type from reaches to only through an
// implicit conversion.
func (l *Lattice) NeedsCast(from, to TCon) bool {
	return !l.IsSubtype(from, to) && l.castFrom(from, to) != nil
}

// IsAssignable reports whether a value of type from can be used where to is
// expected, either directly or through an implicit conversion.
func (l *Lattice) IsAssignable(from, to TCon) bool {
	return l.IsSubtype(from, to) || l.castFrom(from, to) != nil
}

// ImplicitSources returns the concrete types whose values widen to to,
// to itself included. Any itself is never part of the result.
func (l *Lattice) ImplicitSources(to TCon) *set.Set[TCon] {
	sources := set.New[TCon](len(l.order))
	if !l.Has(to) {
		return sources
	}
	for _, t := range l.order {
		if t.IsAny() {
			continue
		}
		if l.IsAssignable(t, to) {
			sources.Insert(t)
		}
	}
	return sources
}

// LUB returns the least declared type every argument is assignable to, or Any
// when no unique least bound exists.
func (l *Lattice) LUB(ts ...TCon) TCon {
	if len(ts) == 0 {
		return Any
	}
	var candidates []TCon
	for _, u := range l.order {
		ok := true
		for _, t := range ts {
			if !l.IsAssignable(t, u) {
				ok = false
				break
			}
		}
		if ok {
			candidates = append(candidates, u)
		}
	}
	for _, u := range candidates {
		least := true
		for _, other := range candidates {
			if !l.IsAssignable(u, other) {
				least = false
				break
			}
		}
		if least {
			return u
		}
	}
	return Any
}

// TypeOf classifies a runtime value: the most specific declared type whose
// check accepts it, or Any.
func (l *Lattice) TypeOf(v any) TCon {
	var matches []TCon
	for _, t := range l.order {
		if t.IsAny() {
			continue
		}
		if l.decls[t].check(v) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return Any
	}
	for _, m := range matches {
		specific := true
		for _, other := range matches {
			if !l.IsSubtype(m, other) {
				specific = false
				break
			}
		}
		if specific {
			return m
		}
	}
	return matches[0]
}

// Is reports whether v is an instance of t without conversion.
func (l *Lattice) Is(v any, t TCon) bool {
	d, ok := l.decls[t]
	return ok && d.check(v)
}

// Convert returns v represented as t. Values already of type t are returned
// unchanged; otherwise the implicit conversion registered for the value's
// type is applied. ok is false when no conversion exists.
func (l *Lattice) Convert(v any, t TCon) (any, bool) {
	d, ok := l.decls[t]
	if !ok {
		return nil, false
	}
	if d.check(v) {
		return v, true
	}
	if conv := l.castFrom(l.TypeOf(v), t); conv != nil {
		return conv(v), true
	}
	for _, src := range d.castOrder {
		if l.decls[src].check(v) {
			return d.casts[src](v), true
		}
	}
	return nil, false
}
