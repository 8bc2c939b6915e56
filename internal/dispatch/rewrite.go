package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/specialization"
)

type rewriteKey struct{ node *Node }

func rewriting(ctx context.Context, n *Node) bool {
	v, _ := ctx.Value(rewriteKey{n}).(bool)
	return v
}

// executeAndSpecialize is the slow path. It selects the first applicable
// descriptor at or after minIndex that the node has not excluded, runs it,
// and publishes the shape that caches it. A declared fallback error excludes
// the descriptor and resumes the scan after it within the same call.
func (n *Node) executeAndSpecialize(ctx context.Context, args []any, reason Reason, minIndex int) (any, error) {
	if rewriting(ctx, n) {
		return nil, diagnostics.NewError(diagnostics.ErrR002, n.res.Operation.Name, n.res.Operation.Name)
	}
	ctx = context.WithValue(ctx, rewriteKey{n}, true)

	for {
		d, converted, err := n.selectCandidate(args, minIndex)
		if err != nil {
			return nil, err
		}
		if d == nil {
			err := n.res.NoMatch(args)
			n.logger.Error("no specialization matched", zap.Error(err))
			return nil, err
		}

		result, err := d.Invoke(ctx, converted)
		if d.RewritesOn(err) && !d.IsGeneric() {
			n.logger.Debug("fallback error, excluding specialization",
				zap.String("specialization", d.ID), zap.Error(err))
			n.exclude(d)
			reason = FallbackError
			minIndex = d.Index + 1
			continue
		}

		n.publish(d, args, reason)
		return result, err
	}
}

func (n *Node) selectCandidate(args []any, minIndex int) (*specialization.Descriptor, []any, error) {
	n.mu.Lock()
	excluded := n.excluded.Copy()
	n.mu.Unlock()

	accept := func(d *specialization.Descriptor) bool {
		return d.Index >= minIndex && !excluded.Contains(d.Index)
	}
	if n.tree != nil {
		return n.tree.SelectWhere(args, accept)
	}
	for _, d := range n.res.Order {
		if !d.Reachable || !accept(d) {
			continue
		}
		converted, ok, err := d.Match(n.lattice, args)
		if err != nil {
			if d.RewritesOn(err) {
				continue
			}
			return nil, nil, err
		}
		if ok {
			return d, converted, nil
		}
	}
	return nil, nil, nil
}

// publish installs d for the shape of args. It starts from the node's
// current shape, so concurrent rewrites compose: entries that became invalid
// are dropped, an entry already cached is not added twice, and a chain that
// would outgrow its bound collapses to Generic.
func (n *Node) publish(d *specialization.Descriptor, args []any, reason Reason) {
	n.mu.Lock()
	old := n.shape.Load()
	if old.State == specialization.Generic {
		n.mu.Unlock()
		return
	}

	var kept []*ChainNode
	for c := old.Chain; c != nil; c = c.Next {
		if n.excluded.Contains(c.Descriptor.Index) || !specialization.AllValid(c.Descriptor.Assumptions) {
			continue
		}
		kept = append(kept, c)
	}

	var next *Shape
	if d.IsGeneric() {
		next = newShape(specialization.Generic, nil, old.Generation+1)
	} else {
		types := observedTypes(n.lattice, d, args)
		key := shapeKey(d, types)
		cached := false
		for _, c := range kept {
			if c.Key() == key {
				cached = true
				break
			}
		}
		switch {
		case cached && len(kept) == old.Len():
			// Installed by a concurrent rewrite.
			n.mu.Unlock()
			return
		case cached:
			next = newShape(chainState(len(kept)), link(kept), old.Generation+1)
		case n.res.Generic != nil && n.governor.Admit(len(kept), key) == Collapse:
			next = newShape(specialization.Generic, nil, old.Generation+1)
		default:
			n.governor.Observe(key)
			kept = append(kept, &ChainNode{Descriptor: d, Types: types})
			next = newShape(chainState(len(kept)), link(kept), old.Generation+1)
		}
	}

	old.Stable.Invalidate()
	n.shape.Store(next)
	n.rewrites.Add(1)
	observers := append([]Observer(nil), n.observers...)
	n.mu.Unlock()

	event := ChangeEvent{
		NodeID:     n.id,
		Operation:  n.res.Operation.Name,
		From:       old.State,
		To:         next.State,
		Reason:     reason,
		Generation: next.Generation,
		shape:      next,
		args:       args,
		lattice:    n.lattice,
	}
	if next.State == specialization.Generic {
		event.Active = []string{n.res.Generic.ID}
	} else {
		event.Active = next.IDs()
	}

	if ce := n.logger.Check(zap.DebugLevel, "specialization changed"); ce != nil {
		fields := []zap.Field{
			zap.Stringer("from", old.State),
			zap.Stringer("to", next.State),
			zap.Stringer("reason", reason),
			zap.Strings("active", event.Active),
			zap.Uint64("generation", next.Generation),
		}
		if n.verbose {
			fields = append(fields, zap.String("shape", event.Render()))
		}
		ce.Write(fields...)
	}

	for _, fn := range observers {
		fn(event)
	}
}

func chainState(entries int) specialization.Kind {
	if entries > 1 {
		return specialization.Polymorphic
	}
	return specialization.Specialized
}

// link rebuilds the chain from entries. Existing nodes are copied because a
// published chain is never modified.
func link(entries []*ChainNode) *ChainNode {
	var head *ChainNode
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		head = &ChainNode{Descriptor: e.Descriptor, Types: e.Types, Next: head}
	}
	return head
}
