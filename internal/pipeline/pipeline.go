package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/config"
)

// Pipeline runs its stages in order over one context.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage. Stages keep running after a diagnostic so that
// one pass reports the errors of every operation in a manifest.
func (p *Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	if ctx.Logger == nil {
		ctx.Logger = config.LoggerOrNop(nil)
	}
	if ctx.Config == nil {
		ctx.Config = config.Default()
	}
	for _, processor := range p.processors {
		before := len(ctx.Errors)
		start := time.Now()
		ctx = processor.Process(ctx)
		ctx.Logger.Debug("stage finished",
			zap.String("stage", fmt.Sprintf("%T", processor)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("diagnostics", len(ctx.Errors)-before))
	}
	return ctx
}
