package prettyprinter

import (
	"fmt"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/dispatch"
	"github.com/funvibe/specnode/internal/specialization"
)

// Shape renders a node shape: the state, then the chain in test order ending
// in the Uninitialized tail.
func Shape(s *dispatch.Shape) string {
	p := NewPrinter()
	p.PrintShape(s)
	return p.String()
}

// Node renders the node header followed by its current shape.
func Node(n *dispatch.Node) string {
	p := NewPrinter()
	op := n.Resolution().Operation.Name
	if config.IsTestMode {
		p.line(op)
	} else {
		p.line(fmt.Sprintf("%s#%s rewrites %d", op, n.ID().String()[:8], n.Rewrites()))
	}
	p.indent++
	p.PrintShape(n.Shape())
	p.indent--
	return p.String()
}

func (p *Printer) PrintShape(s *dispatch.Shape) {
	if config.IsTestMode {
		p.line(s.State.String())
	} else {
		p.line(fmt.Sprintf("%s gen %d", s.State, s.Generation))
	}
	if s.State == specialization.Generic || s.State == specialization.Uninitialized {
		return
	}
	p.indent++
	for _, c := range s.Entries() {
		p.line(c.Key())
	}
	p.line(specialization.Uninitialized.String())
	p.indent--
}
