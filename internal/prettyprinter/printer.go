// Package prettyprinter renders resolved operations, group trees and node
// shapes as text. The tree rendering reads like the dispatch code a backend
// would emit.
package prettyprinter

import (
	"bytes"
	"strings"
)

const indentUnit = "    "

// Printer accumulates indented output.
type Printer struct {
	buf    bytes.Buffer
	indent int
}

func NewPrinter() *Printer {
	return &Printer{}
}

func (p *Printer) String() string {
	return p.buf.String()
}

func (p *Printer) writeIndent() {
	p.buf.WriteString(strings.Repeat(indentUnit, p.indent))
}

func (p *Printer) write(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) writeln() {
	p.buf.WriteString("\n")
}

// line writes s on its own indented line.
func (p *Printer) line(s string) {
	p.writeIndent()
	p.write(s)
	p.writeln()
}
