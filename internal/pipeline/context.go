package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Result is what the pipeline produced for one operation.
type Result struct {
	Operation  *specialization.Operation
	Resolution *resolver.Resolution
	Tree       *grouping.Group

	// Emitted holds the rendered dispatch code, keyed by backend name.
	Emitted map[string]string
}

// Failed reports whether resolution stopped for this operation.
func (r *Result) Failed() bool { return r.Resolution == nil }

// PipelineContext carries the state shared by all stages.
type PipelineContext struct {
	FilePath string
	Source   []byte
	Config   *config.Config
	Logger   *zap.Logger

	Operations []*specialization.Operation
	Results    []*Result
	Errors     []*diagnostics.DiagnosticError
}

// NewPipelineContext creates a context for a manifest source.
func NewPipelineContext(source []byte) *PipelineContext {
	return &PipelineContext{
		Source: source,
		Config: config.Default(),
		Logger: config.LoggerOrNop(nil),
	}
}

// Result returns the result for the named operation.
func (ctx *PipelineContext) Result(name string) (*Result, bool) {
	for _, r := range ctx.Results {
		if r.Operation.Name == name {
			return r, true
		}
	}
	return nil, false
}

// AddErrors records diagnostics, attaching the context's file path.
func (ctx *PipelineContext) AddErrors(errs ...*diagnostics.DiagnosticError) {
	for _, err := range errs {
		if err.File == "" {
			err.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, err)
	}
}
