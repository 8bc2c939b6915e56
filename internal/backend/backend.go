// Package backend provides the emission seam: a Backend turns a resolved
// operation into dispatch code and selects descriptors the way that code
// would. This allows switching between a linear scan of the resolved order
// and the grouped decision tree.
package backend

import (
	"fmt"
	"reflect"

	"github.com/funvibe/specnode/internal/pipeline"
	"github.com/funvibe/specnode/internal/specialization"
)

// Backend is the interface for emission backends
type Backend interface {
	// Select picks the descriptor that accepts args, with the arguments
	// converted to its signature.
	Select(r *pipeline.Result, args []any) (*specialization.Descriptor, []any, error)

	// Emit renders the dispatch code for r.
	Emit(r *pipeline.Result) (string, error)

	// Name returns the backend name for display
	Name() string
}

// Names lists the available backends.
var Names = []string{LinearName, TreeName}

// ByName returns the backend called name.
func ByName(name string) (Backend, error) {
	switch name {
	case LinearName:
		return NewLinear(), nil
	case TreeName:
		return NewTree(), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want one of %v)", name, Names)
}

// Agree selects with both backends and reports a difference in the chosen
// descriptor, the converted arguments or the failure.
func Agree(a, b Backend, r *pipeline.Result, args []any) error {
	da, va, ea := a.Select(r, args)
	db, vb, eb := b.Select(r, args)
	switch {
	case (ea != nil) != (eb != nil):
		return fmt.Errorf("%s: %s failed with %v, %s with %v", r.Operation.Name, a.Name(), ea, b.Name(), eb)
	case ea != nil:
		return nil
	case da != db:
		return fmt.Errorf("%s: %s selected %s, %s selected %s", r.Operation.Name, a.Name(), da.ID, b.Name(), db.ID)
	case !reflect.DeepEqual(va, vb):
		return fmt.Errorf("%s: %s converted to %v, %s to %v", r.Operation.Name, a.Name(), va, b.Name(), vb)
	}
	return nil
}
