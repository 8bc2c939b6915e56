// Package specialization holds the data model shared by the resolver, the
// grouping compiler and the dispatch runtime: guarded implementation variants
// of one operation and the guards, assumptions and signatures they declare.
package specialization

// Kind is the role of a specialization, and also the state of a dispatch node.
type Kind int

const (
	Uninitialized Kind = iota
	Specialized
	Polymorphic
	Generic
)

func (k Kind) String() string {
	switch k {
	case Uninitialized:
		return "Uninitialized"
	case Specialized:
		return "Specialized"
	case Polymorphic:
		return "Polymorphic"
	case Generic:
		return "Generic"
	default:
		return "Kind(?)"
	}
}
