package manifest

import (
	"os"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/pipeline"
)

// Processor is the front-end stage: it parses the context's manifest source
// and appends the built operations.
type Processor struct {
	Registry *Registry
}

// NewProcessor creates the front-end stage. A nil registry means the
// standard one.
func NewProcessor(r *Registry) *Processor {
	if r == nil {
		r = StandardRegistry()
	}
	return &Processor{Registry: r}
}

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	path := ctx.FilePath
	if path == "" {
		path = "<input>"
	}
	if ctx.Source == nil && ctx.FilePath != "" {
		data, err := os.ReadFile(ctx.FilePath)
		if err != nil {
			ctx.AddErrors(diagnostics.NewError(diagnostics.ErrM001, path, err.Error()))
			return ctx
		}
		ctx.Source = data
	}

	m, err := ParseManifest(ctx.Source, path)
	if err != nil {
		ctx.AddErrors(diagnostics.NewError(diagnostics.ErrM001, path, err.Error()))
		return ctx
	}
	ops, errs := Build(m, p.Registry)
	ctx.AddErrors(errs...)
	ctx.Operations = append(ctx.Operations, ops...)
	return ctx
}
