// Package grouping compiles the resolved order of an operation into a
// decision tree that tests shared conditions once.
//
// Every group holds the conditions common to the descriptors below it. Leaves
// hold one descriptor and whatever conditions were not factored out. The tree
// selects exactly what the linear scan over the resolved order selects.
package grouping

import (
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

type Group struct {
	Assumptions []*specialization.Assumption
	TypeGuards  []specialization.TypeGuard
	Guards      []specialization.Guard

	// ElseGuards are the guards of this group decided by the previous
	// sibling's failed guard; they cost no evaluation.
	ElseGuards []specialization.Guard

	Descriptor *specialization.Descriptor // set on leaves only
	Children   []*Group
	Parent     *Group

	lattice    *typesystem.Lattice
	genericSig specialization.Signature
	arity      int
}

func (g *Group) IsLeaf() bool { return g.Descriptor != nil }

// Leaves returns the descriptors below g in evaluation order.
func (g *Group) Leaves() []*specialization.Descriptor {
	if g.IsLeaf() {
		return []*specialization.Descriptor{g.Descriptor}
	}
	var out []*specialization.Descriptor
	for _, c := range g.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Depth is the number of ancestors of g.
func (g *Group) Depth() int {
	d := 0
	for p := g.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// IsElse reports whether g's first guard is decided by its previous sibling.
func (g *Group) IsElse() bool { return len(g.ElseGuards) > 0 }

func (g *Group) isElseGuard(guard specialization.Guard) bool {
	for _, e := range g.ElseGuards {
		if e == guard {
			return true
		}
	}
	return false
}

func (g *Group) hasConditions() bool {
	return len(g.Assumptions) > 0 || len(g.TypeGuards) > 0 || len(g.Guards) > 0
}

// provenType returns the type the argument at index is known to have at g,
// from g's own type guards or an ancestor's.
func (g *Group) provenType(index int) (typesystem.TCon, bool) {
	for n := g; n != nil; n = n.Parent {
		for _, tg := range n.TypeGuards {
			if tg.Index == index {
				return tg.Type, true
			}
		}
	}
	return typesystem.TCon{}, false
}

// CountEvaluations counts the places in the tree where pred is evaluated.
// Guards decided by an else connection are not evaluations.
func (g *Group) CountEvaluations(pred *specialization.Predicate) int {
	n := 0
	for _, guard := range g.Guards {
		if guard.Predicate == pred && !g.isElseGuard(guard) {
			n++
		}
	}
	for _, c := range g.Children {
		n += c.CountEvaluations(pred)
	}
	return n
}

// ElseConnectableGuards lists, for the whole tree, the guards that are
// answered by the negated guard of the preceding sibling.
func (g *Group) ElseConnectableGuards() []specialization.Guard {
	var out []specialization.Guard
	out = append(out, g.ElseGuards...)
	for _, c := range g.Children {
		out = append(out, c.ElseConnectableGuards()...)
	}
	return out
}

// Walk visits g and its descendants depth first, in evaluation order.
func (g *Group) Walk(fn func(*Group)) {
	fn(g)
	for _, c := range g.Children {
		c.Walk(fn)
	}
}
