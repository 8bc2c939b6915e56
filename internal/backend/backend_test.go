package backend

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/pipeline"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/specialization/spectest"
	"github.com/funvibe/specnode/internal/typesystem"
)

var pool = []any{0, 1, -4, 2.5, "a", "", true, big.NewInt(3)}

func argLists(values []any, arity int) [][]any {
	lists := [][]any{{}}
	for i := 0; i < arity; i++ {
		var next [][]any
		for _, l := range lists {
			for _, v := range values {
				next = append(next, append(append([]any(nil), l...), v))
			}
		}
		lists = next
	}
	return lists
}

func run(t *testing.T, ops ...*specialization.Operation) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewPipelineContext(nil)
	ctx.Operations = ops
	ctx = pipeline.Build(nil, NewEmitProcessor(NewLinear()), NewEmitProcessor(NewTree())).Run(ctx)
	require.Empty(t, ctx.Errors)
	return ctx
}

func TestBackendsAgree(t *testing.T) {
	ctx := run(t, spectest.Add(), spectest.Plus(), spectest.Sign())
	linear, tree := NewLinear(), NewTree()
	for _, r := range ctx.Results {
		for _, args := range argLists(pool, r.Operation.Arity) {
			assert.NoError(t, Agree(linear, tree, r, args))
		}
	}
}

func TestEmit(t *testing.T) {
	ctx := run(t, spectest.Sign())
	r, ok := ctx.Result("sign")
	require.True(t, ok)
	require.Len(t, r.Emitted, 2)
	assert.Contains(t, r.Emitted[LinearName], "sign/1 predicted 2 bound 1")
	assert.Contains(t, r.Emitted[TreeName], "} else {")
}

func TestSelect(t *testing.T) {
	ctx := run(t, spectest.Plus())
	r := ctx.Results[0]
	for _, name := range Names {
		b, err := ByName(name)
		require.NoError(t, err)
		d, args, err := b.Select(r, []any{1, 2})
		require.NoError(t, err)
		assert.Equal(t, "AddInt", d.ID, name)
		assert.Equal(t, []any{1, 2}, args, name)
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := ByName("vm")
	assert.ErrorContains(t, err, `unknown backend "vm"`)
}

func TestFailedResultIsSkipped(t *testing.T) {
	broken := specialization.NewOperation("broken", nil,
		specialization.New("a", nil, typesystem.Int),
	)
	ctx := pipeline.NewPipelineContext(nil)
	ctx.Operations = []*specialization.Operation{broken}
	ctx = pipeline.Build(nil, NewEmitProcessor(NewTree())).Run(ctx)
	require.NotEmpty(t, ctx.Errors)
	require.Len(t, ctx.Results, 1)
	assert.True(t, ctx.Results[0].Failed())
	assert.Empty(t, ctx.Results[0].Emitted)

	_, _, err := NewTree().Select(ctx.Results[0], nil)
	assert.Error(t, err)
}

func TestEmitFailureIsReported(t *testing.T) {
	ctx := pipeline.NewPipelineContext(nil)
	ctx.Operations = []*specialization.Operation{spectest.Sign()}
	ctx = pipeline.New(&pipeline.ResolveProcessor{}, NewEmitProcessor(NewTree()), NewEmitProcessor(NewLinear())).Run(ctx)

	require.Len(t, ctx.Errors, 1)
	assert.Equal(t, diagnostics.ErrE001, ctx.Errors[0].Code)
	assert.Contains(t, ctx.Errors[0].Error(), "cannot emit sign: sign: no group tree")

	r, ok := ctx.Result("sign")
	require.True(t, ok)
	assert.NotContains(t, r.Emitted, TreeName)
	assert.Contains(t, r.Emitted, LinearName)
}
