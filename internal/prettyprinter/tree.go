package prettyprinter

import (
	"fmt"
	"strings"

	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/specialization"
)

// Tree renders a group tree as dispatch code. Shared checks appear once at
// the group that factors them; a guard answered by the previous sibling
// becomes an else branch.
func Tree(op *specialization.Operation, root *grouping.Group) string {
	p := NewPrinter()
	p.PrintTree(op, root)
	return p.String()
}

func (p *Printer) PrintTree(op *specialization.Operation, root *grouping.Group) {
	params := paramList(op.Arity)
	p.line(fmt.Sprintf("func %s(%s) {", op.Name, params))
	p.indent++
	p.printGroups([]*grouping.Group{root}, params)
	if fallsThrough(root) {
		p.line(fmt.Sprintf("return noMatch(%s)", params))
	}
	p.indent--
	p.line("}")
}

func (p *Printer) printGroups(gs []*grouping.Group, params string) {
	open := false
	for _, g := range gs {
		conds := conditions(g)
		switch {
		case g.IsElse() && open:
			if conds == "" {
				p.line("} else {")
			} else {
				p.line("} else if " + conds + " {")
			}
		case conds == "":
			if open {
				p.line("}")
				open = false
			}
			p.printBody(g, params)
			continue
		default:
			if open {
				p.line("}")
			}
			p.line("if " + conds + " {")
		}
		p.indent++
		p.printBody(g, params)
		p.indent--
		open = true
	}
	if open {
		p.line("}")
	}
}

func (p *Printer) printBody(g *grouping.Group, params string) {
	if g.IsLeaf() {
		p.line(fmt.Sprintf("return %s(%s)", g.Descriptor.ID, params))
		return
	}
	p.printGroups(g.Children, params)
}

// conditions joins the checks g evaluates itself; guards decided by the
// previous sibling are left out.
func conditions(g *grouping.Group) string {
	var parts []string
	for _, a := range g.Assumptions {
		parts = append(parts, "@"+a.Name())
	}
	for _, tg := range g.TypeGuards {
		parts = append(parts, tg.String())
	}
	for _, guard := range g.Guards {
		if isElseGuard(g, guard) {
			continue
		}
		parts = append(parts, guard.String())
	}
	return strings.Join(parts, " && ")
}

func isElseGuard(g *grouping.Group, guard specialization.Guard) bool {
	for _, e := range g.ElseGuards {
		if e == guard {
			return true
		}
	}
	return false
}

func unconditional(g *grouping.Group) bool {
	return len(g.Assumptions) == 0 && len(g.TypeGuards) == 0 && len(g.Guards) == 0
}

func fallsThrough(g *grouping.Group) bool {
	if !unconditional(g) {
		return true
	}
	if g.IsLeaf() {
		return false
	}
	if len(g.Children) == 0 {
		return true
	}
	return fallsThrough(g.Children[len(g.Children)-1])
}

func paramList(arity int) string {
	params := make([]string, arity)
	for i := range params {
		params[i] = fmt.Sprintf("arg%d", i)
	}
	return strings.Join(params, ", ")
}
