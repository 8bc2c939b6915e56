package grouping

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// Build groups the reachable descriptors of res, Generic last, into a tree.
func Build(res *resolver.Resolution) (*Group, error) {
	arity := res.Operation.Arity
	genericSig := make(specialization.Signature, arity)
	for i := range genericSig {
		genericSig[i] = typesystem.Any
	}
	if res.Generic != nil {
		genericSig = res.Generic.Signature
	}

	root := &Group{lattice: res.Lattice, genericSig: genericSig, arity: arity}
	var leaves []*Group
	for _, d := range res.Order {
		if !d.Reachable {
			continue
		}
		leaves = append(leaves, &Group{
			Assumptions: append([]*specialization.Assumption(nil), d.Assumptions...),
			TypeGuards:  append([]specialization.TypeGuard(nil), d.TypeGuards...),
			Guards:      append([]specialization.Guard(nil), d.Guards...),
			Descriptor:  d,
			lattice:     res.Lattice,
			genericSig:  genericSig,
			arity:       arity,
		})
	}
	root.adopt(root.combine(leaves))
	root.connectElse()

	if err := root.Validate(); err != nil {
		return nil, err
	}
	return root, nil
}

// combine splits items into maximal contiguous runs that share a condition
// and factors each run's common conditions into a new parent group.
func (g *Group) combine(items []*Group) []*Group {
	var out []*Group
	for i := 0; i < len(items); {
		var best factor
		j := i + 1
		for ; j < len(items); j++ {
			f := g.commonFactor(items[i : j+1])
			if f.empty() {
				break
			}
			best = f
		}
		if j-i < 2 {
			out = append(out, items[i])
			i++
			continue
		}

		parent := &Group{
			Assumptions: best.assumptions,
			TypeGuards:  best.typeGuards,
			Guards:      best.guards,
			lattice:     g.lattice,
			genericSig:  g.genericSig,
			arity:       g.arity,
		}
		run := items[i:j]
		for _, item := range run {
			best.removeFrom(item)
		}
		parent.Parent = g
		parent.adopt(parent.combine(run))
		out = append(out, parent)
		i = j
	}
	return out
}

func (g *Group) adopt(children []*Group) {
	g.Children = children
	for _, c := range children {
		c.Parent = g
	}
}

type factor struct {
	assumptions []*specialization.Assumption
	typeGuards  []specialization.TypeGuard
	guards      []specialization.Guard
}

func (f factor) empty() bool {
	return len(f.assumptions) == 0 && len(f.typeGuards) == 0 && len(f.guards) == 0
}

func (f factor) removeFrom(item *Group) {
	if len(f.assumptions) > 0 {
		shared := set.From(f.assumptions)
		kept := item.Assumptions[:0:0]
		for _, a := range item.Assumptions {
			if !shared.Contains(a) {
				kept = append(kept, a)
			}
		}
		item.Assumptions = kept
	}
	item.TypeGuards = item.TypeGuards[len(f.typeGuards):]
	item.Guards = item.Guards[len(f.guards):]
}

// commonFactor computes what every item of a run shares: assumptions in any
// order, a common prefix of type guards and a common prefix of guards that
// may be tested before the items' remaining type guards.
func (g *Group) commonFactor(items []*Group) factor {
	var f factor

	others := make([]*set.Set[*specialization.Assumption], 0, len(items)-1)
	for _, item := range items[1:] {
		others = append(others, set.From(item.Assumptions))
	}
	for _, a := range items[0].Assumptions {
		shared := true
		for _, o := range others {
			if !o.Contains(a) {
				shared = false
				break
			}
		}
		if shared {
			f.assumptions = append(f.assumptions, a)
		}
	}

	f.typeGuards = items[0].TypeGuards
	for _, item := range items[1:] {
		f.typeGuards = commonTypeGuardPrefix(f.typeGuards, item.TypeGuards)
	}
	f.typeGuards = append([]specialization.TypeGuard(nil), f.typeGuards...)

	probe := &Group{TypeGuards: f.typeGuards, Parent: g, genericSig: g.genericSig}
	for k, guard := range items[0].Guards {
		same := true
		for _, item := range items[1:] {
			if k >= len(item.Guards) || item.Guards[k] != guard {
				same = false
				break
			}
		}
		if !same || !probe.canHoist(guard, items) {
			break
		}
		f.guards = append(f.guards, guard)
	}
	return f
}

func commonTypeGuardPrefix(a, b []specialization.TypeGuard) []specialization.TypeGuard {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

// canHoist reports whether guard may be evaluated at g for every item. Each
// position the guard reads must have the same declared type in all items, and
// that type must be Any, the Generic's type there, or already proven at g.
// A guard needing an unproven conversion stays below its type test.
func (g *Group) canHoist(guard specialization.Guard, items []*Group) bool {
	for _, idx := range guard.Predicate.Reads(len(g.genericSig)) {
		t := items[0].Descriptor.Signature[idx]
		for _, item := range items[1:] {
			if item.Descriptor.Signature[idx] != t {
				return false
			}
		}
		if t.IsAny() || t == g.genericSig[idx] {
			continue
		}
		if proven, ok := g.provenType(idx); !ok || proven != t {
			return false
		}
	}
	return true
}

// connectElse marks, in every sibling list, the groups whose first guard is
// the negation of the previous sibling's last guard. Both siblings must test
// nothing else first, so one evaluation decides both.
func (g *Group) connectElse() {
	for i, c := range g.Children {
		c.ElseGuards = nil
		if i > 0 && elseConnectable(g.Children[i-1], c) {
			c.ElseGuards = []specialization.Guard{c.Guards[0]}
		}
		c.connectElse()
	}
}

func elseConnectable(prev, next *Group) bool {
	if len(prev.Guards) == 0 || len(next.Guards) == 0 {
		return false
	}
	if len(prev.TypeGuards) > 0 || len(prev.Assumptions) > 0 || len(next.TypeGuards) > 0 || len(next.Assumptions) > 0 {
		return false
	}
	return next.Guards[0].IsNegationOf(prev.Guards[len(prev.Guards)-1])
}
