package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/resolver"
)

// ResolveProcessor orders every operation of the context. An operation with
// authoring errors gets a failed result; the others carry on.
type ResolveProcessor struct{}

func (p *ResolveProcessor) Process(ctx *PipelineContext) *PipelineContext {
	opts := resolver.Options{Logger: ctx.Logger}
	if ctx.Config != nil {
		opts.PolymorphicLimit = ctx.Config.PolymorphicLimit
	}
	for _, op := range ctx.Operations {
		res, errs := resolver.Resolve(op, opts)
		ctx.AddErrors(errs...)
		ctx.Results = append(ctx.Results, &Result{Operation: op, Resolution: res})
	}
	return ctx
}

// GroupProcessor builds the decision tree of every resolved operation.
// Build defaults to grouping.Build.
type GroupProcessor struct {
	Build func(*resolver.Resolution) (*grouping.Group, error)
}

func (p *GroupProcessor) Process(ctx *PipelineContext) *PipelineContext {
	build := p.Build
	if build == nil {
		build = grouping.Build
	}
	for _, r := range ctx.Results {
		if r.Failed() {
			continue
		}
		tree, err := build(r.Resolution)
		if err != nil {
			ctx.AddErrors(diagnostics.NewError(diagnostics.ErrS011, r.Operation.Name, r.Operation.Name, err.Error()))
			continue
		}
		r.Tree = tree
		ctx.Logger.Debug("grouped operation",
			zap.String("operation", r.Operation.Name),
			zap.Int("groups", countGroups(tree)))
	}
	return ctx
}

func countGroups(g *grouping.Group) int {
	n := 0
	g.Walk(func(c *grouping.Group) {
		if !c.IsLeaf() {
			n++
		}
	})
	return n
}

// Build returns the standard resolve-and-group pipeline followed by extra
// stages such as a front-end parser or an emitter.
func Build(front Processor, back ...Processor) *Pipeline {
	stages := []Processor{}
	if front != nil {
		stages = append(stages, front)
	}
	stages = append(stages, &ResolveProcessor{}, &GroupProcessor{})
	stages = append(stages, back...)
	return New(stages...)
}
