// Package resolver computes the total order of an operation's
// specializations, flags the unreachable ones, synthesizes the Uninitialized
// and Generic descriptors and derives the polymorphic depth bound.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// Options tune resolution.
type Options struct {
	// PolymorphicLimit caps the computed depth bound when > 0.
	PolymorphicLimit int
	Logger           *zap.Logger
}

// Resolution is the resolved form of an operation. Order is the arena the
// dispatch runtime addresses by index: declared specializations in total
// order, followed by the Generic when there is one.
type Resolution struct {
	Operation     *specialization.Operation
	Lattice       *typesystem.Lattice
	Order         []*specialization.Descriptor
	Uninitialized *specialization.Descriptor
	Generic       *specialization.Descriptor

	// PredictedShapes is the number of monomorphic shapes the lattice allows
	// across all reachable specializations; DepthBound is derived from it.
	PredictedShapes int
	DepthBound      int
}

// Resolve validates and orders the descriptors of op. On authoring errors it
// returns a nil resolution together with every diagnostic found.
func Resolve(op *specialization.Operation, opts Options) (*Resolution, []*diagnostics.DiagnosticError) {
	logger := config.LoggerOrNop(opts.Logger).With(zap.String("operation", op.Name))

	l := op.Lattice
	if l == nil {
		l = typesystem.NewStandardLattice()
	}
	arity := op.Arity
	if arity == 0 && len(op.Descriptors) > 0 {
		arity = len(op.Descriptors[0].Signature)
	}

	if errs := validate(op, l, arity); len(errs) > 0 {
		return nil, errs
	}

	var specialized []*specialization.Descriptor
	var generic *specialization.Descriptor
	for _, d := range op.Descriptors {
		c := d.Clone()
		if c.IsGeneric() {
			generic = c
		} else {
			specialized = append(specialized, c)
		}
	}
	assignIDs(specialized)
	if generic != nil {
		generic.ID = config.GenericID
	}

	ordered, errs := orderDescriptors(specialized, l)
	if generic != nil {
		for _, d := range ordered {
			if !generic.Signature.Covers(d.Signature, l) {
				errs = append(errs, diagnostics.NewError(diagnostics.ErrS010, d.ID, generic.Signature, d.ID, d.Signature))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if generic == nil && needsRewrite(ordered) {
		generic = synthesizeGeneric(op.Name, ordered, l, arity)
		if generic == nil {
			return nil, []*diagnostics.DiagnosticError{diagnostics.NewError(diagnostics.ErrS004, op.Name, op.Name)}
		}
	}

	res := &Resolution{
		Operation: op,
		Lattice:   l,
		Order:     ordered,
		Generic:   generic,
		Uninitialized: &specialization.Descriptor{
			Name:      config.UninitializedID,
			ID:        config.UninitializedID,
			Kind:      specialization.Uninitialized,
			Index:     -1,
			Reachable: true,
			Synthetic: true,
		},
	}
	if generic != nil {
		res.Order = append(res.Order, generic)
		if generic.Synthetic {
			generic.Body = res.ExecuteUncached
		}
	}

	genericSig := make(specialization.Signature, arity)
	for i := range genericSig {
		genericSig[i] = typesystem.Any
	}
	if generic != nil {
		genericSig = generic.Signature
	}
	for i, d := range res.Order {
		d.Index = i
		d.TypeGuards = deriveTypeGuards(d, genericSig)
	}

	if errs := markReachable(res.Order); len(errs) > 0 {
		return nil, errs
	}

	res.PredictedShapes, res.DepthBound = depthBound(res.Order, l, opts.PolymorphicLimit)

	logger.Debug("resolved operation",
		zap.Strings("order", res.IDs()),
		zap.Int("predictedShapes", res.PredictedShapes),
		zap.Int("depthBound", res.DepthBound),
		zap.Bool("syntheticGeneric", generic != nil && generic.Synthetic))
	return res, nil
}

func validate(op *specialization.Operation, l *typesystem.Lattice, arity int) []*diagnostics.DiagnosticError {
	var errs []*diagnostics.DiagnosticError
	generics := 0
	for _, d := range op.Descriptors {
		switch d.Kind {
		case specialization.Generic:
			generics++
		case specialization.Specialized:
		default:
			errs = append(errs, diagnostics.NewError(diagnostics.ErrS007, d.Name,
				fmt.Sprintf("specialization %s cannot be declared as %s", d.Name, d.Kind)))
		}
		if len(d.Signature) != arity {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrS006, d.Name, d.Name, len(d.Signature), op.Name, arity))
		}
		for _, t := range d.Signature {
			if !l.Has(t) {
				errs = append(errs, diagnostics.NewError(diagnostics.ErrS008, d.Name, d.Name, t))
			}
		}
		if d.Body == nil {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrS009, d.Name, d.Name))
		}
		for _, g := range d.Guards {
			if g.Predicate == nil || g.Predicate.Fn == nil {
				name := "<nil>"
				if g.Predicate != nil {
					name = g.Predicate.Name
				}
				errs = append(errs, diagnostics.NewError(diagnostics.ErrS005, d.Name, d.Name, name))
				continue
			}
			for _, idx := range g.Predicate.Params {
				if idx < 0 || idx >= arity {
					errs = append(errs, diagnostics.NewError(diagnostics.ErrS005, d.Name, d.Name,
						fmt.Sprintf("%s reads argument %d of %d", g.Predicate.Name, idx, arity)))
				}
			}
		}
	}
	if generics > 1 {
		errs = append(errs, diagnostics.NewError(diagnostics.ErrS007, op.Name,
			fmt.Sprintf("operation %s declares %d Generic specializations", op.Name, generics)))
	}
	return errs
}

// needsRewrite reports whether a node of this operation could ever have to
// leave its first specialization.
func needsRewrite(specialized []*specialization.Descriptor) bool {
	return len(specialized) != 1 || !specialized[0].IsTotal()
}

// synthesizeGeneric builds the fallback used when no Generic is declared. It
// accepts Any everywhere and runs the uncached scan, so it is only sound when
// some declared specialization is total.
func synthesizeGeneric(name string, ordered []*specialization.Descriptor, l *typesystem.Lattice, arity int) *specialization.Descriptor {
	total := false
	for _, d := range ordered {
		if d.IsTotal() {
			total = true
			break
		}
	}
	if !total {
		return nil
	}
	sig := make(specialization.Signature, arity)
	for i := range sig {
		types := make([]typesystem.TCon, 0, len(ordered))
		for _, d := range ordered {
			types = append(types, d.Signature[i])
		}
		sig[i] = genericType(l, types)
	}
	return &specialization.Descriptor{
		Name:      name + "Generic",
		ID:        config.GenericID,
		Kind:      specialization.Generic,
		Signature: sig,
		Synthetic: true,
	}
}

// genericType is the LUB of types when they all agree on a type that nothing
// else widens to, Any otherwise.
func genericType(l *typesystem.Lattice, types []typesystem.TCon) typesystem.TCon {
	lub := l.LUB(types...)
	if lub.IsAny() || l.ImplicitSources(lub).Size() != 1 {
		return typesystem.Any
	}
	for _, t := range types {
		if t != lub {
			return typesystem.Any
		}
	}
	return lub
}

// deriveTypeGuards lists the positions whose declared type narrows the
// Generic's type there.
func deriveTypeGuards(d *specialization.Descriptor, genericSig specialization.Signature) []specialization.TypeGuard {
	var guards []specialization.TypeGuard
	for i, t := range d.Signature {
		if t.IsAny() || (i < len(genericSig) && genericSig[i] == t) {
			continue
		}
		guards = append(guards, specialization.TypeGuard{Index: i, Type: t})
	}
	return guards
}

// IDs returns the ids in total order.
func (r *Resolution) IDs() []string {
	ids := make([]string, len(r.Order))
	for i, d := range r.Order {
		ids[i] = d.ID
	}
	return ids
}

// Lookup finds a descriptor by id.
func (r *Resolution) Lookup(id string) (*specialization.Descriptor, bool) {
	if id == config.UninitializedID {
		return r.Uninitialized, true
	}
	for _, d := range r.Order {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// Select is the linear reference scan: the first reachable descriptor in total
// order whose compatibility predicate accepts args. A guard error is skipped
// when the descriptor declares it as a fallback error and returned otherwise.
// A nil descriptor with a nil error means nothing matched.
func (r *Resolution) Select(args []any) (*specialization.Descriptor, []any, error) {
	return r.selectFrom(0, args)
}

func (r *Resolution) selectFrom(start int, args []any) (*specialization.Descriptor, []any, error) {
	for _, d := range r.Order[start:] {
		if !d.Reachable {
			continue
		}
		converted, ok, err := d.Match(r.Lattice, args)
		if err != nil {
			if d.RewritesOn(err) {
				continue
			}
			return nil, nil, err
		}
		if ok {
			return d, converted, nil
		}
	}
	return nil, nil, nil
}

// ExecuteUncached runs the first applicable declared specialization without
// touching any node state, moving on to the next candidate when one raises a
// declared fallback error. It is the body of a synthesized Generic.
func (r *Resolution) ExecuteUncached(ctx context.Context, args []any) (any, error) {
	for _, d := range r.Order {
		if d.IsGeneric() || !d.Reachable {
			continue
		}
		converted, ok, err := d.Match(r.Lattice, args)
		if err != nil {
			if d.RewritesOn(err) {
				continue
			}
			return nil, err
		}
		if !ok {
			continue
		}
		result, err := d.Invoke(ctx, converted)
		if d.RewritesOn(err) {
			continue
		}
		return result, err
	}
	return nil, r.NoMatch(args)
}

// NoMatchError is the fatal internal-consistency failure raised when no
// descriptor, Generic included, accepts the arguments. It wraps an ErrR001
// diagnostic so errors.Is and errors.As both see it.
type NoMatchError struct {
	Operation string
	Args      string
}

func (e *NoMatchError) Error() string {
	return e.Unwrap().Error()
}

func (e *NoMatchError) Unwrap() error {
	return diagnostics.NewError(diagnostics.ErrR001, e.Operation, e.Operation, e.Args)
}

// NoMatch builds the error reported when nothing accepts args.
func (r *Resolution) NoMatch(args []any) error {
	return &NoMatchError{Operation: r.Operation.Name, Args: FormatArgs(r.Lattice, args)}
}

// FormatArgs renders argument values with their lattice types.
func FormatArgs(l *typesystem.Lattice, args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v: %s", a, l.TypeOf(a))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
