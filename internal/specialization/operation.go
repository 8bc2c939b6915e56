package specialization

import "github.com/funvibe/specnode/internal/typesystem"

// Operation groups the specializations of one operation together with the
// lattice their signatures are expressed in.
type Operation struct {
	Name        string
	Arity       int
	Lattice     *typesystem.Lattice
	Descriptors []*Descriptor
}

// NewOperation creates an operation; the arity is taken from the first
// descriptor.
func NewOperation(name string, l *typesystem.Lattice, ds ...*Descriptor) *Operation {
	op := &Operation{Name: name, Lattice: l, Descriptors: ds}
	if len(ds) > 0 {
		op.Arity = len(ds[0].Signature)
	}
	return op
}
