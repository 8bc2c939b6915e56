package resolver

import (
	"math"
	"strings"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// orderDescriptors sorts the declared specializations into a total order.
// A more specific signature always runs before a more general one. When both
// descriptors of a pair carry an explicit order, that order must agree with
// the lattice. Unrelated descriptors are released by (order, declaration).
func orderDescriptors(ds []*specialization.Descriptor, l *typesystem.Lattice) ([]*specialization.Descriptor, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError
	n := len(ds)
	before := make([][]bool, n) // before[i][j]: ds[i] must run before ds[j]
	for i := range before {
		before[i] = make([]bool, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := ds[i], ds[j]
			aGeneral := a.Signature.IsMoreGeneralThan(b.Signature, l)
			bGeneral := b.Signature.IsMoreGeneralThan(a.Signature, l)
			if aGeneral {
				before[j][i] = true
			}
			if bGeneral {
				before[i][j] = true
			}
			if a.Order == 0 || b.Order == 0 {
				continue
			}
			switch {
			case a.Order < b.Order:
				if aGeneral {
					errs = append(errs, diagnostics.NewError(diagnostics.ErrS001, a.ID, a.ID, b.ID))
				}
				before[i][j] = true
			case b.Order < a.Order:
				if bGeneral {
					errs = append(errs, diagnostics.NewError(diagnostics.ErrS001, b.ID, b.ID, a.ID))
				}
				before[j][i] = true
			case !aGeneral && !bGeneral:
				errs = append(errs, diagnostics.NewError(diagnostics.ErrS002, a.ID, a.ID, b.ID, a.Order))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	indegree := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if before[i][j] {
				indegree[j]++
			}
		}
	}

	done := make([]bool, n)
	ordered := make([]*specialization.Descriptor, 0, n)
	for len(ordered) < n {
		next := -1
		for i := 0; i < n; i++ {
			if done[i] || indegree[i] > 0 {
				continue
			}
			if next < 0 || releasesBefore(ds[i], i, ds[next], next) {
				next = i
			}
		}
		if next < 0 {
			// Mutually assignable signatures: nothing left is free.
			var stuck []string
			for i := 0; i < n; i++ {
				if !done[i] {
					stuck = append(stuck, ds[i].ID)
				}
			}
			first := stuck[0]
			return nil, []*diagnostics.DiagnosticError{
				diagnostics.NewError(diagnostics.ErrS002, first, first, strings.Join(stuck[1:], ", "), ds[indexOf(ds, first)].Order),
			}
		}
		done[next] = true
		ordered = append(ordered, ds[next])
		for j := 0; j < n; j++ {
			if before[next][j] {
				indegree[j]--
			}
		}
	}
	return ordered, nil
}

func releasesBefore(a *specialization.Descriptor, ai int, b *specialization.Descriptor, bi int) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return ai < bi
}

func indexOf(ds []*specialization.Descriptor, id string) int {
	for i, d := range ds {
		if d.ID == id {
			return i
		}
	}
	return 0
}

// markReachable flags every descriptor that some earlier one makes dead: an
// earlier descriptor with the same gating and no fallback errors, or an
// earlier one that can never fail. Dead declared descriptors are errors.
func markReachable(order []*specialization.Descriptor) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError
	for i, d := range order {
		d.Reachable = true
		if d.Synthetic {
			continue
		}
		var shadows []string
		for _, prev := range order[:i] {
			if (prev.EqualsGuards(d) && len(prev.RewriteOn) == 0) || neverFails(prev) {
				shadows = append(shadows, prev.ID)
			}
		}
		if len(shadows) > 0 {
			d.Reachable = false
			errs = append(errs, diagnostics.NewError(diagnostics.ErrS003, d.ID, d.ID, strings.Join(shadows, ", ")))
		}
	}
	return errs
}

// neverFails reports whether d applies to every argument the operation
// accepts.
func neverFails(d *specialization.Descriptor) bool {
	return len(d.TypeGuards) == 0 && len(d.Guards) == 0 && len(d.Assumptions) == 0 && len(d.RewriteOn) == 0
}

// depthBound counts the monomorphic shapes the lattice allows. Positions
// declared Any pass values through unconverted and so add no shapes.
func depthBound(order []*specialization.Descriptor, l *typesystem.Lattice, limit int) (predicted, bound int) {
	for _, d := range order {
		if d.IsGeneric() || !d.Reachable {
			continue
		}
		shapes := 1
		for _, t := range d.Signature {
			if t.IsAny() {
				continue
			}
			if n := l.ImplicitSources(t).Size(); n > 1 {
				if shapes > math.MaxInt/n {
					shapes = math.MaxInt
					break
				}
				shapes *= n
			}
		}
		if predicted > math.MaxInt-shapes {
			predicted = math.MaxInt
		} else {
			predicted += shapes
		}
	}
	bound = predicted - 1
	if bound < 0 {
		bound = 0
	}
	if limit > 0 && limit < bound {
		bound = limit
	}
	return predicted, bound
}
