package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// Build turns a manifest into operations. Every reference that does not
// resolve against the registry is reported; an operation with such an error
// is left out.
func Build(m *Manifest, r *Registry) ([]*specialization.Operation, []*diagnostics.DiagnosticError) {
	var ops []*specialization.Operation
	var errs []*diagnostics.DiagnosticError
	for _, decl := range m.Operations {
		op, opErrs := buildOperation(decl, r)
		errs = append(errs, opErrs...)
		if len(opErrs) == 0 {
			ops = append(ops, op)
		}
	}
	return ops, errs
}

func buildOperation(decl Operation, r *Registry) (*specialization.Operation, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError
	descriptors := make([]*specialization.Descriptor, 0, len(decl.Specializations))

	for _, s := range decl.Specializations {
		d := &specialization.Descriptor{
			Name:  s.Name,
			Kind:  parseKind(s.Kind),
			Order: s.Order,
		}
		for _, t := range s.Signature {
			d.Signature = append(d.Signature, parseType(r.Lattice, t))
		}

		body, ok := r.Body(s.Body)
		if !ok {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrM001, s.Name,
				fmt.Sprintf("specialization %s.%s: unknown body %q", decl.Name, s.Name, s.Body)))
		}
		d.Body = body

		for _, ref := range s.Guards {
			guard, err := parseGuard(ref, r)
			if err != nil {
				errs = append(errs, diagnostics.NewError(diagnostics.ErrS005, s.Name, s.Name, err.Error()))
				continue
			}
			d.Guards = append(d.Guards, guard)
		}
		for _, name := range s.Assumptions {
			d.Assumptions = append(d.Assumptions, r.Assumption(name))
		}
		for _, name := range s.RewriteOn {
			err, ok := r.Error(name)
			if !ok {
				errs = append(errs, diagnostics.NewError(diagnostics.ErrM001, s.Name,
					fmt.Sprintf("specialization %s.%s: unknown error %q", decl.Name, s.Name, name)))
				continue
			}
			d.RewriteOn = append(d.RewriteOn, err)
		}
		descriptors = append(descriptors, d)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return specialization.NewOperation(decl.Name, r.Lattice, descriptors...), nil
}

func parseKind(s string) specialization.Kind {
	switch strings.ToLower(s) {
	case "generic":
		return specialization.Generic
	case "uninitialized":
		return specialization.Uninitialized
	case "polymorphic":
		return specialization.Polymorphic
	default:
		return specialization.Specialized
	}
}

// parseType accepts declared names case-insensitively, so "int" is Int.
func parseType(l *typesystem.Lattice, s string) typesystem.TCon {
	s = strings.TrimSpace(s)
	if t, ok := l.Lookup(s); ok {
		return t
	}
	for _, t := range l.Types() {
		if strings.EqualFold(t.String(), s) {
			return t
		}
	}
	return typesystem.ParseTCon(s)
}

// parseGuard parses "name", "!name" or "name(i, j)".
func parseGuard(ref string, r *Registry) (specialization.Guard, error) {
	s := strings.TrimSpace(ref)
	negated := false
	if strings.HasPrefix(s, "!") {
		negated = true
		s = strings.TrimSpace(s[1:])
	}

	name := s
	var params []int
	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return specialization.Guard{}, fmt.Errorf("malformed guard %q", ref)
		}
		name = strings.TrimSpace(s[:open])
		inner := strings.TrimSpace(s[open+1 : len(s)-1])
		if inner != "" {
			for _, part := range strings.Split(inner, ",") {
				idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "arg")))
				if err != nil {
					return specialization.Guard{}, fmt.Errorf("malformed guard %q: %w", ref, err)
				}
				params = append(params, idx)
			}
		}
	}
	if name == "" {
		return specialization.Guard{}, fmt.Errorf("malformed guard %q", ref)
	}

	p, ok := r.predicate(name, params)
	if !ok {
		return specialization.Guard{}, fmt.Errorf("unknown predicate %q", name)
	}
	return specialization.Guard{Predicate: p, Negated: negated}, nil
}
