package prettyprinter

import (
	"fmt"

	"github.com/funvibe/specnode/internal/resolver"
)

// Order renders the resolved order of an operation, one descriptor per line,
// with the shape prediction in the header.
func Order(res *resolver.Resolution) string {
	p := NewPrinter()
	p.PrintOrder(res)
	return p.String()
}

func (p *Printer) PrintOrder(res *resolver.Resolution) {
	op := res.Operation
	p.line(fmt.Sprintf("%s/%d predicted %d bound %d", op.Name, op.Arity, res.PredictedShapes, res.DepthBound))
	p.indent++
	for i, d := range res.Order {
		s := fmt.Sprintf("%d %s", i+1, d)
		if d.Synthetic {
			s += " synthesized"
		}
		p.line(s)
	}
	p.indent--
}
