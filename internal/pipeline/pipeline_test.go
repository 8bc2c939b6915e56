package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/specialization/spectest"
	"github.com/funvibe/specnode/internal/typesystem"
)

// recordingProcessor notes that it ran.
type recordingProcessor struct {
	ran *[]string
	tag string
}

func (p recordingProcessor) Process(ctx *PipelineContext) *PipelineContext {
	*p.ran = append(*p.ran, p.tag)
	return ctx
}

func TestRunContinuesAfterErrors(t *testing.T) {
	var ran []string
	front := recordingProcessor{ran: &ran, tag: "front"}
	back := recordingProcessor{ran: &ran, tag: "back"}

	ctx := NewPipelineContext(nil)
	ctx.FilePath = "ops.yaml"
	ctx.Operations = []*specialization.Operation{
		specialization.NewOperation("broken", typesystem.NewStandardLattice(),
			specialization.New("a", nil, typesystem.Int),
		),
		spectest.Sign(),
	}
	ctx = Build(front, back).Run(ctx)

	assert.Equal(t, []string{"front", "back"}, ran)
	require.Len(t, ctx.Errors, 1)
	assert.True(t, diagnostics.HasCode(ctx.Errors, diagnostics.ErrS009))
	assert.Equal(t, "ops.yaml", ctx.Errors[0].File)

	broken, ok := ctx.Result("broken")
	require.True(t, ok)
	assert.True(t, broken.Failed())
	assert.Nil(t, broken.Tree)

	sign, ok := ctx.Result("sign")
	require.True(t, ok)
	require.False(t, sign.Failed())
	require.NotNil(t, sign.Tree)
	assert.Equal(t, []string{"Positive", "NonPositive", "Generic"}, sign.Resolution.IDs())

	_, ok = ctx.Result("missing")
	assert.False(t, ok)
}

func TestPolymorphicLimitFromConfig(t *testing.T) {
	ctx := NewPipelineContext(nil)
	ctx.Config.PolymorphicLimit = 2
	ctx.Operations = []*specialization.Operation{spectest.Plus()}
	ctx = Build(nil).Run(ctx)
	require.Empty(t, ctx.Errors)
	assert.Equal(t, 2, ctx.Results[0].Resolution.DepthBound)
}

func TestCountGroups(t *testing.T) {
	ctx := NewPipelineContext(nil)
	ctx.Operations = []*specialization.Operation{spectest.Sign()}
	ctx = Build(nil).Run(ctx)
	require.Empty(t, ctx.Errors)
	assert.Equal(t, 2, countGroups(ctx.Results[0].Tree))
}

func TestGroupFailureIsReported(t *testing.T) {
	ctx := NewPipelineContext(nil)
	ctx.Operations = []*specialization.Operation{spectest.Sign(), spectest.Add()}
	group := &GroupProcessor{Build: func(res *resolver.Resolution) (*grouping.Group, error) {
		if res.Operation.Name == "sign" {
			return nil, errors.New("else guard is not a negation")
		}
		return grouping.Build(res)
	}}
	ctx = New(&ResolveProcessor{}, group).Run(ctx)

	require.Len(t, ctx.Errors, 1)
	assert.Equal(t, diagnostics.ErrS011, ctx.Errors[0].Code)
	assert.Equal(t, "sign", ctx.Errors[0].Subject)
	assert.Contains(t, ctx.Errors[0].Error(), "grouping tree of sign is invalid: else guard is not a negation")

	sign, _ := ctx.Result("sign")
	assert.Nil(t, sign.Tree)
	add, _ := ctx.Result("add")
	assert.NotNil(t, add.Tree)
}
