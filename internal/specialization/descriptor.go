package specialization

import (
	"context"
	"errors"
	"fmt"
	"strings"

	set "github.com/hashicorp/go-set/v3"

	"github.com/funvibe/specnode/internal/typesystem"
)

// Body implements one specialization. It receives the arguments already
// converted to the specialization's signature.
type Body func(ctx context.Context, args []any) (any, error)

// Descriptor is one guarded implementation variant of an operation.
//
// The declaration fields are set by the front-end. The resolved fields are
// filled by the resolver on its own copy; a resolved descriptor is never
// modified again.
type Descriptor struct {
	Name        string
	Kind        Kind
	Order       int // explicit priority, lower runs first; 0 = default
	Signature   Signature
	Guards      []Guard
	Assumptions []*Assumption
	RewriteOn   []error
	Body        Body

	ID         string
	Index      int
	Reachable  bool
	Synthetic  bool
	TypeGuards []TypeGuard
}

// New declares a specialized descriptor.
func New(name string, body Body, sig ...typesystem.TCon) *Descriptor {
	return &Descriptor{Name: name, Kind: Specialized, Signature: sig, Body: body}
}

// NewGeneric declares the Generic descriptor of an operation.
func NewGeneric(name string, body Body, sig ...typesystem.TCon) *Descriptor {
	return &Descriptor{Name: name, Kind: Generic, Signature: sig, Body: body}
}

func (d *Descriptor) WithGuards(gs ...Guard) *Descriptor {
	d.Guards = append(d.Guards, gs...)
	return d
}

func (d *Descriptor) WithAssumptions(as ...*Assumption) *Descriptor {
	d.Assumptions = append(d.Assumptions, as...)
	return d
}

func (d *Descriptor) WithRewriteOn(errs ...error) *Descriptor {
	d.RewriteOn = append(d.RewriteOn, errs...)
	return d
}

func (d *Descriptor) WithOrder(order int) *Descriptor {
	d.Order = order
	return d
}

// Clone returns a shallow copy with its own slices.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Signature = append(Signature(nil), d.Signature...)
	c.Guards = append([]Guard(nil), d.Guards...)
	c.Assumptions = append([]*Assumption(nil), d.Assumptions...)
	c.RewriteOn = append([]error(nil), d.RewriteOn...)
	c.TypeGuards = append([]TypeGuard(nil), d.TypeGuards...)
	return &c
}

func (d *Descriptor) IsGeneric() bool       { return d.Kind == Generic }
func (d *Descriptor) IsUninitialized() bool { return d.Kind == Uninitialized }

// IsTotal reports whether the descriptor can never fail to apply: it accepts
// Any everywhere and declares no guards, assumptions or fallback errors.
func (d *Descriptor) IsTotal() bool {
	return len(d.Guards) == 0 && len(d.Assumptions) == 0 && len(d.RewriteOn) == 0 && d.Signature.IsAny()
}

// RewritesOn reports whether err is one of the declared fallback errors.
func (d *Descriptor) RewritesOn(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range d.RewriteOn {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// EqualsGuards reports whether d and other are gated by exactly the same
// assumptions, signature and explicit guards.
func (d *Descriptor) EqualsGuards(other *Descriptor) bool {
	if !d.Signature.Equal(other.Signature) {
		return false
	}
	if !set.From(d.Assumptions).Equal(set.From(other.Assumptions)) {
		return false
	}
	return set.From(d.Guards).Equal(set.From(other.Guards))
}

// Match is the compatibility predicate of d: assumptions must hold, every
// argument must convert to the declared type and every guard must pass.
// It returns the converted arguments. A guard error is returned as is.
func (d *Descriptor) Match(l *typesystem.Lattice, args []any) ([]any, bool, error) {
	if d.IsUninitialized() || len(args) != len(d.Signature) {
		return nil, false, nil
	}
	if !AllValid(d.Assumptions) {
		return nil, false, nil
	}
	converted := make([]any, len(args))
	for i, t := range d.Signature {
		v, ok := l.Convert(args[i], t)
		if !ok {
			return nil, false, nil
		}
		converted[i] = v
	}
	for _, g := range d.Guards {
		ok, err := g.Evaluate(converted)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
	}
	return converted, true, nil
}

// Invoke runs the body on converted arguments.
func (d *Descriptor) Invoke(ctx context.Context, converted []any) (any, error) {
	if d.Body == nil {
		return nil, fmt.Errorf("specialization %s has no body", d.Label())
	}
	return d.Body(ctx, converted)
}

// Label is the id once resolved, the declared name before.
func (d *Descriptor) Label() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Name
}

func (d *Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Label())
	b.WriteString(d.Signature.String())
	for _, g := range d.Guards {
		b.WriteString(" ")
		b.WriteString(g.String())
	}
	for _, a := range d.Assumptions {
		b.WriteString(" @")
		b.WriteString(a.Name())
	}
	if len(d.RewriteOn) > 0 {
		names := make([]string, len(d.RewriteOn))
		for i, e := range d.RewriteOn {
			names[i] = e.Error()
		}
		b.WriteString(" rewriteOn[")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("]")
	}
	return b.String()
}
