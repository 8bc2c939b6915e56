package prettyprinter

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/dispatch"
	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/specialization/spectest"
	"github.com/funvibe/specnode/internal/typesystem"
)

func TestMain(m *testing.M) {
	config.IsTestMode = true
	os.Exit(m.Run())
}

func resolve(t *testing.T, op *specialization.Operation) *resolver.Resolution {
	t.Helper()
	res, errs := resolver.Resolve(op, resolver.Options{})
	require.Empty(t, errs)
	return res
}

func TestPrinterIndents(t *testing.T) {
	p := NewPrinter()
	p.line("if x {")
	p.indent++
	p.line("if y {")
	p.indent++
	p.line("return")
	p.indent -= 2
	p.line("}")
	assert.Equal(t, "if x {\n    if y {\n        return\n}\n", p.String())
}

func TestOrder(t *testing.T) {
	want := "add/2 predicted 1 bound 0\n" +
		"    1 Add(Int, Int) rewriteOn[integer overflow]\n" +
		"    2 Generic(Any, Any)\n"
	assert.Equal(t, want, Order(resolve(t, spectest.Add())))
}

func TestTree(t *testing.T) {
	tests := []struct {
		name string
		op   *specialization.Operation
		want string
	}{
		{
			name: "type guards",
			op:   spectest.Add(),
			want: `func add(arg0, arg1) {
    if arg0 is Int && arg1 is Int {
        return Add(arg0, arg1)
    }
    return Generic(arg0, arg1)
}
`,
		},
		{
			name: "else branch",
			op:   spectest.Sign(),
			want: `func sign(arg0) {
    if arg0 is Int {
        if isPositive(arg0) {
            return Positive(arg0)
        } else {
            return NonPositive(arg0)
        }
    }
    return Generic(arg0)
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolve(t, tt.op)
			root, err := grouping.Build(res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Tree(res.Operation, root))
		})
	}
}

func TestTreeWithoutGeneric(t *testing.T) {
	op := specialization.NewOperation("sum", typesystem.NewStandardLattice(),
		specialization.New("ints", spectest.AddInts, typesystem.Int, typesystem.Int),
	)
	res := resolve(t, op)
	root, err := grouping.Build(res)
	require.NoError(t, err)
	assert.Contains(t, Tree(res.Operation, root), "return noMatch(arg0, arg1)\n}")
}

func TestShape(t *testing.T) {
	ctx := context.Background()
	node := dispatch.NewNode(resolve(t, spectest.Plus()), dispatch.Options{})
	assert.Equal(t, "Uninitialized\n", Shape(node.Shape()))

	_, err := node.Execute(ctx, 1, 2)
	require.NoError(t, err)
	_, err = node.Execute(ctx, 1.5, 2.5)
	require.NoError(t, err)

	want := "plus\n" +
		"    Polymorphic\n" +
		"        AddInt(Int, Int)\n" +
		"        AddDouble(Double, Double)\n" +
		"        Uninitialized\n"
	assert.Equal(t, want, Node(node))

	_, err = node.Execute(ctx, big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, "Generic\n", Shape(node.Shape()))
}
