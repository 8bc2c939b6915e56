package grouping

import "github.com/funvibe/specnode/internal/specialization"

// Select walks the tree and returns the first descriptor accepting args
// together with the arguments converted to its signature. A nil descriptor
// with a nil error means nothing matched.
func (g *Group) Select(args []any) (*specialization.Descriptor, []any, error) {
	return g.SelectWhere(args, nil)
}

// SelectWhere is Select restricted to descriptors for which accept returns
// true. A nil accept admits every descriptor.
func (g *Group) SelectWhere(args []any, accept func(*specialization.Descriptor) bool) (*specialization.Descriptor, []any, error) {
	if len(args) != g.arity {
		return nil, nil, nil
	}
	vals := append([]any(nil), args...)
	return g.selectIn(args, vals, accept)
}

// outcome remembers the last guard a sibling evaluated, so the next sibling's
// else guard can be answered without evaluating it again.
type outcome struct {
	guard  specialization.Guard
	result bool
	valid  bool
}

func (g *Group) selectIn(raw, vals []any, accept func(*specialization.Descriptor) bool) (*specialization.Descriptor, []any, error) {
	if g.IsLeaf() {
		converted, ok := g.convert(raw, vals)
		if !ok {
			return nil, nil, nil
		}
		return g.Descriptor, converted, nil
	}

	var last outcome
	for _, c := range g.Children {
		if accept != nil && !c.admits(accept) {
			last = outcome{}
			continue
		}
		ok, cvals, out, err := c.enter(raw, vals, last)
		last = out
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		d, converted, err := c.selectIn(raw, cvals, accept)
		if err != nil || d != nil {
			return d, converted, err
		}
	}
	return nil, nil, nil
}

func (g *Group) admits(accept func(*specialization.Descriptor) bool) bool {
	if g.IsLeaf() {
		return accept(g.Descriptor)
	}
	for _, c := range g.Children {
		if c.admits(accept) {
			return true
		}
	}
	return false
}

// enter tests g's own conditions: assumptions, then type guards, then guards.
func (g *Group) enter(raw, vals []any, prev outcome) (bool, []any, outcome, error) {
	if !specialization.AllValid(g.Assumptions) {
		return false, nil, outcome{}, nil
	}

	if len(g.TypeGuards) > 0 {
		vals = append([]any(nil), vals...)
		for _, tg := range g.TypeGuards {
			v, ok := g.lattice.Convert(raw[tg.Index], tg.Type)
			if !ok {
				return false, nil, outcome{}, nil
			}
			vals[tg.Index] = v
		}
	}

	var out outcome
	for k, guard := range g.Guards {
		var result bool
		decided := true
		if k == 0 && g.isElseGuard(guard) && prev.valid && guard.IsNegationOf(prev.guard) {
			result = !prev.result
		} else {
			var err error
			result, err = g.evaluate(guard, raw, vals)
			if err != nil {
				if !g.fallsBackOn(err) {
					return false, nil, outcome{}, err
				}
				// A failed guard answers neither itself nor its negation.
				result, decided = false, false
			}
		}
		if k == len(g.Guards)-1 {
			out = outcome{guard: guard, result: result, valid: decided}
		}
		if !result {
			return false, nil, out, nil
		}
	}
	return true, vals, out, nil
}

// evaluate runs guard over the arguments converted to the declared types of
// the positions it reads.
func (g *Group) evaluate(guard specialization.Guard, raw, vals []any) (bool, error) {
	leaf := g.firstLeaf()
	args := append([]any(nil), vals...)
	for _, idx := range guard.Predicate.Reads(g.arity) {
		if _, ok := g.provenType(idx); ok {
			continue
		}
		t := leaf.Signature[idx]
		v, ok := g.lattice.Convert(raw[idx], t)
		if !ok {
			return false, nil
		}
		args[idx] = v
	}
	return guard.Evaluate(args)
}

// fallsBackOn reports whether every descriptor below g treats err as a
// fallback error, so a failing shared guard just rejects them all.
func (g *Group) fallsBackOn(err error) bool {
	for _, d := range g.Leaves() {
		if !d.RewritesOn(err) {
			return false
		}
	}
	return true
}

func (g *Group) firstLeaf() *specialization.Descriptor {
	n := g
	for !n.IsLeaf() {
		n = n.Children[0]
	}
	return n.Descriptor
}

// convert completes the leaf's argument conversion for positions no type
// guard has converted yet.
func (g *Group) convert(raw, vals []any) ([]any, bool) {
	out := make([]any, len(raw))
	for i, t := range g.Descriptor.Signature {
		if _, ok := g.provenType(i); ok {
			out[i] = vals[i]
			continue
		}
		v, ok := g.lattice.Convert(raw[i], t)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
