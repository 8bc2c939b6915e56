package backend

import (
	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/pipeline"
)

// EmitProcessor implements pipeline.Processor to run a Backend over every
// resolved operation.
type EmitProcessor struct {
	Backend Backend
}

// NewEmitProcessor creates a new pipeline stage for the given backend
func NewEmitProcessor(b Backend) *EmitProcessor {
	return &EmitProcessor{Backend: b}
}

func (p *EmitProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	for _, r := range ctx.Results {
		if r.Failed() {
			continue
		}
		code, err := p.Backend.Emit(r)
		if err != nil {
			ctx.AddErrors(diagnostics.NewError(diagnostics.ErrE001, r.Operation.Name, r.Operation.Name, err.Error()))
			continue
		}
		if r.Emitted == nil {
			r.Emitted = make(map[string]string)
		}
		r.Emitted[p.Backend.Name()] = code
		ctx.Logger.Debug("emitted dispatch code",
			zap.String("operation", r.Operation.Name),
			zap.String("backend", p.Backend.Name()))
	}
	return ctx
}
