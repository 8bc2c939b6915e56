package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/funvibe/specnode/internal/specialization"
)

// FastPath is code specialized against one shape of a node. It never
// rewrites: when its shape is no longer current, or the arguments fall
// outside it, it hands the call back to the node (deoptimization).
type FastPath struct {
	node   *Node
	shape  *Shape
	deopts atomic.Uint64
}

// Compile captures the node's current shape.
func (n *Node) Compile() *FastPath {
	return &FastPath{node: n, shape: n.shape.Load()}
}

// Valid reports whether the captured shape is still the node's shape.
func (f *FastPath) Valid() bool { return f.shape.Stable.IsValid() }

// Shape returns the captured shape.
func (f *FastPath) Shape() *Shape { return f.shape }

// Deopts counts calls handed back to the node.
func (f *FastPath) Deopts() uint64 { return f.deopts.Load() }

func (f *FastPath) Execute(ctx context.Context, args ...any) (any, error) {
	s := f.shape
	if !s.Stable.IsValid() {
		return f.deopt(ctx, args)
	}
	if s.State == specialization.Generic {
		return f.node.executeGeneric(ctx, args)
	}
	for c := s.Chain; c != nil; c = c.Next {
		converted, ok, err := c.accepts(f.node.lattice, args)
		if err != nil {
			if c.Descriptor.RewritesOn(err) {
				return f.deopt(ctx, args)
			}
			return nil, err
		}
		if !ok {
			continue
		}
		result, err := c.Descriptor.Invoke(ctx, converted)
		if c.Descriptor.RewritesOn(err) {
			// The node reruns the call on its own path, where the
			// fallback error is handled.
			return f.deopt(ctx, args)
		}
		return result, err
	}
	return f.deopt(ctx, args)
}

func (f *FastPath) deopt(ctx context.Context, args []any) (any, error) {
	f.deopts.Add(1)
	return f.node.Execute(ctx, args...)
}
