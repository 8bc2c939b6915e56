package grouping

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/specialization/spectest"
	"github.com/funvibe/specnode/internal/typesystem"
)

var pool = []any{0, 1, -3, 7, 2.5, -0.5, "a", "", true, big.NewInt(9)}

func resolve(t *testing.T, op *specialization.Operation) *resolver.Resolution {
	t.Helper()
	res, errs := resolver.Resolve(op, resolver.Options{})
	require.Empty(t, errs)
	return res
}

func build(t *testing.T, op *specialization.Operation) (*resolver.Resolution, *Group) {
	t.Helper()
	res := resolve(t, op)
	root, err := Build(res)
	require.NoError(t, err)
	return res, root
}

func argLists(arity int) [][]any {
	lists := [][]any{{}}
	for i := 0; i < arity; i++ {
		var next [][]any
		for _, l := range lists {
			for _, v := range pool {
				next = append(next, append(append([]any(nil), l...), v))
			}
		}
		lists = next
	}
	return lists
}

func assertEquivalent(t *testing.T, res *resolver.Resolution, root *Group) {
	t.Helper()
	for _, args := range argLists(res.Operation.Arity) {
		want, wantArgs, wantErr := res.Select(args)
		got, gotArgs, gotErr := root.Select(args)
		require.Equal(t, wantErr != nil, gotErr != nil, "error mismatch for %v", args)
		if want != got {
			t.Errorf("Select(%v) = %v, want %v", args, got, want)
			continue
		}
		assert.Equal(t, wantArgs, gotArgs, "converted arguments for %v", args)
	}
}

// classify shares an assumption and a type guard across three descriptors, a
// guard across two of them, and ends the shared run with the negated guard.
func classify() (*specialization.Operation, *specialization.Assumption, *specialization.Predicate) {
	stable := specialization.NewAssumption("stable")
	small := specialization.NewPredicate("small", func(v []any) (bool, error) {
		return v[0].(int) < 5, nil
	}, 0)
	notNil := specialization.NewPredicate("notNil", func(v []any) (bool, error) {
		return v[0] != nil && v[1] != nil, nil
	})
	op := specialization.NewOperation("classify", typesystem.NewStandardLattice(),
		specialization.New("smallInts", spectest.Identity, typesystem.Int, typesystem.Int).
			WithAssumptions(stable).WithGuards(small.Guard()),
		specialization.New("smallMixed", spectest.Identity, typesystem.Int, typesystem.Double).
			WithAssumptions(stable).WithGuards(small.Guard()),
		specialization.New("large", spectest.Identity, typesystem.Int, typesystem.Any).
			WithAssumptions(stable).WithGuards(small.Not()),
		specialization.New("present", spectest.Identity, typesystem.Any, typesystem.Any).
			WithGuards(notNil.Guard()),
		specialization.NewGeneric("generic", spectest.Identity, typesystem.Any, typesystem.Any),
	)
	return op, stable, small
}

func TestElseChainedNegation(t *testing.T) {
	p, calls := spectest.CountingPredicate("isPositive", func(v []any) (bool, error) {
		return v[0].(int) > 0, nil
	}, 0)
	_, root := build(t, spectest.SignWith(p))

	require.Len(t, root.Children, 2)
	ints := root.Children[0]
	assert.Equal(t, []specialization.TypeGuard{{Index: 0, Type: typesystem.Int}}, ints.TypeGuards)
	require.Len(t, ints.Children, 2)
	assert.False(t, ints.Children[0].IsElse())
	assert.True(t, ints.Children[1].IsElse())
	assert.Equal(t, []specialization.Guard{p.Not()}, root.ElseConnectableGuards())
	assert.Equal(t, 1, root.CountEvaluations(p))

	tests := []struct {
		arg   any
		want  string
		calls int64
	}{
		{5, "Positive", 1},
		{-2, "NonPositive", 1},
		{0, "NonPositive", 1},
		{"x", "Generic", 0},
	}
	for _, tt := range tests {
		calls.Store(0)
		d, _, err := root.Select([]any{tt.arg})
		require.NoError(t, err)
		if d.ID != tt.want {
			t.Errorf("Select(%v) = %s, want %s", tt.arg, d.ID, tt.want)
		}
		if got := calls.Load(); got != tt.calls {
			t.Errorf("Select(%v) evaluated isPositive %d times, want %d", tt.arg, got, tt.calls)
		}
	}
}

func TestFactorsSharedConditions(t *testing.T) {
	op, stable, small := classify()
	_, root := build(t, op)

	require.Len(t, root.Children, 3)
	shared := root.Children[0]
	assert.Equal(t, []*specialization.Assumption{stable}, shared.Assumptions)
	assert.Equal(t, []specialization.TypeGuard{{Index: 0, Type: typesystem.Int}}, shared.TypeGuards)
	assert.Empty(t, shared.Guards)

	require.Len(t, shared.Children, 2)
	smallGroup := shared.Children[0]
	assert.Equal(t, []specialization.Guard{small.Guard()}, smallGroup.Guards)
	leaves := smallGroup.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, "SmallInts", leaves[0].ID)
	assert.Equal(t, "SmallMixed", leaves[1].ID)
	assert.Equal(t, []specialization.TypeGuard{{Index: 1, Type: typesystem.Int}}, smallGroup.Children[0].TypeGuards)

	large := shared.Children[1]
	assert.True(t, large.IsLeaf())
	assert.True(t, large.IsElse())
	assert.Empty(t, large.Assumptions)
	assert.Empty(t, large.TypeGuards)
	assert.Equal(t, 1, root.CountEvaluations(small))

	assert.Equal(t, "Present", root.Children[1].Descriptor.ID)
	assert.Equal(t, "Generic", root.Children[2].Descriptor.ID)
	assert.Equal(t, 2, large.Depth())
}

func TestCastGuardStaysBelowTypeTest(t *testing.T) {
	g := specialization.NewPredicate("even", func(v []any) (bool, error) {
		return v[0].(int)%2 == 0, nil
	}, 1)
	op := specialization.NewOperation("op", typesystem.NewStandardLattice(),
		specialization.New("doubleInt", spectest.Identity, typesystem.Double, typesystem.Int).WithGuards(g.Guard()),
		specialization.New("anyInt", spectest.Identity, typesystem.Any, typesystem.Int).WithGuards(g.Guard()),
		specialization.NewGeneric("generic", spectest.Identity, typesystem.Any, typesystem.Any),
	)
	res, root := build(t, op)

	require.Len(t, root.Children, 3)
	for _, c := range root.Children {
		assert.True(t, c.IsLeaf())
	}
	assert.Equal(t, 2, root.CountEvaluations(g))
	assertEquivalent(t, res, root)
}

func TestTreeMatchesLinearScan(t *testing.T) {
	classifyOp, stable, _ := classify()
	tests := []struct {
		name string
		op   *specialization.Operation
	}{
		{"add", spectest.Add()},
		{"plus", spectest.Plus()},
		{"sign", spectest.Sign()},
		{"classify", classifyOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, root := build(t, tt.op)
			assertEquivalent(t, res, root)
		})
	}

	t.Run("classify after invalidation", func(t *testing.T) {
		res, root := build(t, classifyOp)
		stable.Invalidate()
		assertEquivalent(t, res, root)
		d, _, err := root.Select([]any{1, 1})
		require.NoError(t, err)
		assert.Equal(t, "Present", d.ID)
	})
}

func TestSelectWhereSkipsRejected(t *testing.T) {
	res, root := build(t, spectest.Plus())
	addInt, ok := res.Lookup("AddInt")
	require.True(t, ok)

	d, converted, err := root.SelectWhere([]any{1, 2}, func(d *specialization.Descriptor) bool { return d != addInt })
	require.NoError(t, err)
	assert.Equal(t, "AddDouble", d.ID)
	assert.Equal(t, []any{1.0, 2.0}, converted)
}

func TestSharedGuardError(t *testing.T) {
	errBroken := errors.New("broken guard")
	boom := specialization.NewPredicate("boom", func([]any) (bool, error) { return false, errBroken }, 0)
	op := specialization.NewOperation("op", typesystem.NewStandardLattice(),
		specialization.New("first", spectest.Identity, typesystem.Int).WithGuards(boom.Guard()),
		specialization.New("second", spectest.Identity, typesystem.Int).WithGuards(boom.Guard()),
		specialization.NewGeneric("generic", spectest.Identity, typesystem.Any),
	)
	_, errs := resolver.Resolve(op, resolver.Options{})
	require.NotEmpty(t, errs, "identical guards make the second descriptor unreachable")

	op.Descriptors = append(op.Descriptors[:1], op.Descriptors[2])
	res, root := build(t, op)
	_, _, want := res.Select([]any{1})
	_, _, got := root.Select([]any{1})
	assert.ErrorIs(t, want, errBroken)
	assert.ErrorIs(t, got, errBroken)

	fallback := specialization.NewOperation("op", typesystem.NewStandardLattice(),
		specialization.New("first", spectest.Identity, typesystem.Int).WithGuards(boom.Guard()).WithRewriteOn(errBroken),
		specialization.NewGeneric("generic", spectest.Identity, typesystem.Any),
	)
	_, root = build(t, fallback)
	d, _, err := root.Select([]any{1})
	require.NoError(t, err)
	assert.Equal(t, "Generic", d.ID)
}

func TestElseSiblingAfterFallbackError(t *testing.T) {
	errNegative := errors.New("negative input")
	p := specialization.NewPredicate("p", func(v []any) (bool, error) {
		if v[0].(int) < 0 {
			return false, errNegative
		}
		return v[0].(int) > 3, nil
	}, 0)
	op := specialization.NewOperation("op", typesystem.NewStandardLattice(),
		specialization.New("a", spectest.Identity, typesystem.Int).WithGuards(p.Guard()).WithRewriteOn(errNegative),
		specialization.New("b", spectest.Identity, typesystem.Int).WithGuards(p.Not()).WithRewriteOn(errNegative),
		specialization.NewGeneric("generic", spectest.Identity, typesystem.Any),
	)
	res, root := build(t, op)
	require.Len(t, root.Children, 2)
	require.Len(t, root.Children[0].Children, 2)
	assert.True(t, root.Children[0].Children[1].IsElse())

	tests := []struct {
		arg  int
		want string
	}{
		{-1, "Generic"},
		{0, "B"},
		{7, "A"},
	}
	for _, tt := range tests {
		want, _, err := res.Select([]any{tt.arg})
		require.NoError(t, err)
		assert.Equal(t, tt.want, want.ID, "linear scan for %d", tt.arg)

		got, _, err := root.Select([]any{tt.arg})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.ID, "tree for %d", tt.arg)
	}
}

func TestBuildValidates(t *testing.T) {
	_, root := build(t, spectest.Sign())
	require.NoError(t, root.Validate())

	ints := root.Children[0]
	ints.Children[0].Guards = nil
	err := root.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprint(spectest.IsPositive.Not()))
}
