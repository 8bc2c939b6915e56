package dispatch

import (
	"strings"

	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// Shape is one published configuration of a node. Shapes are immutable; a
// rewrite builds a new one and swaps it in.
type Shape struct {
	State      specialization.Kind
	Chain      *ChainNode // nil ends the chain in the Uninitialized tail
	Generation uint64

	// Stable holds while this shape is the node's current shape. Fast paths
	// compiled against the shape check it before every run.
	Stable *specialization.Assumption
}

// ChainNode is one cached specialization together with the concrete argument
// types it was installed for. Positions the descriptor declares Any are
// recorded as Any and match every type.
type ChainNode struct {
	Descriptor *specialization.Descriptor
	Types      []typesystem.TCon
	Next       *ChainNode
}

func newShape(state specialization.Kind, chain *ChainNode, generation uint64) *Shape {
	return &Shape{
		State:      state,
		Chain:      chain,
		Generation: generation,
		Stable:     specialization.NewAssumption("shape"),
	}
}

// Entries returns the chain as a slice, in test order.
func (s *Shape) Entries() []*ChainNode {
	var out []*ChainNode
	for c := s.Chain; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

func (s *Shape) Len() int {
	n := 0
	for c := s.Chain; c != nil; c = c.Next {
		n++
	}
	return n
}

// IDs lists the active descriptor ids.
func (s *Shape) IDs() []string {
	var ids []string
	for c := s.Chain; c != nil; c = c.Next {
		ids = append(ids, c.Descriptor.ID)
	}
	return ids
}

func (s *Shape) String() string {
	parts := []string{s.State.String()}
	for c := s.Chain; c != nil; c = c.Next {
		parts = append(parts, c.Key())
	}
	return strings.Join(parts, " ")
}

// Key identifies the monomorphic shape the entry caches.
func (c *ChainNode) Key() string {
	return shapeKey(c.Descriptor, c.Types)
}

func shapeKey(d *specialization.Descriptor, types []typesystem.TCon) string {
	return d.ID + typesystem.FormatTypes(types)
}

// accepts is the entry's compatibility predicate: the arguments have the
// recorded concrete types and the descriptor still matches them.
func (c *ChainNode) accepts(l *typesystem.Lattice, args []any) ([]any, bool, error) {
	if len(args) != len(c.Types) {
		return nil, false, nil
	}
	for i, t := range c.Types {
		if !t.IsAny() && l.TypeOf(args[i]) != t {
			return nil, false, nil
		}
	}
	return c.Descriptor.Match(l, args)
}

// observedTypes records the concrete type of every argument the descriptor
// converts.
func observedTypes(l *typesystem.Lattice, d *specialization.Descriptor, args []any) []typesystem.TCon {
	types := make([]typesystem.TCon, len(args))
	for i, a := range args {
		if i < len(d.Signature) && d.Signature[i].IsAny() {
			types[i] = typesystem.Any
			continue
		}
		types[i] = l.TypeOf(a)
	}
	return types
}
