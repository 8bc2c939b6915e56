// Package specnode is the embedding API: it resolves operations, from Go
// descriptors or from a manifest, and hands out self-specializing dispatch
// nodes for them.
package specnode

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/backend"
	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/dispatch"
	"github.com/funvibe/specnode/internal/manifest"
	"github.com/funvibe/specnode/internal/pipeline"
	"github.com/funvibe/specnode/internal/specialization"
)

// Engine holds resolved operations and one shared node per operation for
// Call. Nodes from NewNode are independent call sites.
type Engine struct {
	config   *config.Config
	logger   *zap.Logger
	registry *manifest.Registry

	mu      sync.Mutex
	results map[string]*pipeline.Result
	nodes   map[string]*dispatch.Node
}

// Option configures an Engine.
type Option func(*Engine)

func WithConfig(c *config.Config) Option {
	return func(e *Engine) { e.config = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRegistry sets the registry manifests are resolved against.
func WithRegistry(r *manifest.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// New creates an engine with the standard registry and default config.
func New(opts ...Option) *Engine {
	e := &Engine{
		results: make(map[string]*pipeline.Result),
		nodes:   make(map[string]*dispatch.Node),
	}
	for _, o := range opts {
		o(e)
	}
	if e.config == nil {
		e.config = config.Default()
	}
	if e.registry == nil {
		e.registry = manifest.StandardRegistry()
	}
	e.logger = config.LoggerOrNop(e.logger)
	return e
}

// Bind registers a body manifests can refer to by name.
func (e *Engine) Bind(name string, body specialization.Body) {
	e.registry.RegisterBody(name, body)
}

// BindPredicate registers a guard predicate manifests can refer to by name.
func (e *Engine) BindPredicate(name string, fn specialization.PredicateFunc) {
	e.registry.RegisterPredicate(name, fn)
}

// BindError registers an error manifests can list under rewrite_on.
func (e *Engine) BindError(name string, err error) {
	e.registry.RegisterError(name, err)
}

// Assumption returns the named assumption shared by all manifests of the
// engine. Invalidating it deoptimizes every node that depends on it.
func (e *Engine) Assumption(name string) *specialization.Assumption {
	return e.registry.Assumption(name)
}

// Define resolves operations built in Go. Operations that resolve are kept
// even when others fail; the error joins every diagnostic.
func (e *Engine) Define(ops ...*specialization.Operation) error {
	ctx := e.newContext(nil, "")
	ctx.Operations = ops
	return e.run(pipeline.Build(nil), ctx)
}

// Eval resolves the operations of a manifest held in memory.
func (e *Engine) Eval(source []byte) error {
	return e.run(pipeline.Build(manifest.NewProcessor(e.registry)), e.newContext(source, ""))
}

// LoadFile resolves the operations of a manifest file.
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return e.run(pipeline.Build(manifest.NewProcessor(e.registry)), e.newContext(data, path))
}

func (e *Engine) newContext(source []byte, path string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx.Config = e.config
	ctx.Logger = e.logger
	return ctx
}

func (e *Engine) run(p *pipeline.Pipeline, ctx *pipeline.PipelineContext) error {
	ctx = p.Run(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range ctx.Results {
		if r.Failed() || r.Tree == nil {
			continue
		}
		e.results[r.Operation.Name] = r
		delete(e.nodes, r.Operation.Name)
	}
	return diagnostics.Join(ctx.Errors)
}

// Operations lists the resolved operation names, sorted.
func (e *Engine) Operations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.results))
	for name := range e.results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result returns what the pipeline produced for the named operation.
func (e *Engine) Result(name string) (*pipeline.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.results[name]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", name)
	}
	return r, nil
}

// NewNode creates a fresh call site for the named operation.
func (e *Engine) NewNode(name string) (*dispatch.Node, error) {
	r, err := e.Result(name)
	if err != nil {
		return nil, err
	}
	return e.newNode(r), nil
}

func (e *Engine) newNode(r *pipeline.Result) *dispatch.Node {
	return dispatch.NewNode(r.Resolution, dispatch.Options{
		Config: e.config,
		Logger: e.logger,
		Tree:   r.Tree,
	})
}

// Node returns the engine's shared node for the named operation.
func (e *Engine) Node(name string) (*dispatch.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.nodes[name]; ok {
		return n, nil
	}
	r, ok := e.results[name]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", name)
	}
	n := e.newNode(r)
	e.nodes[name] = n
	return n, nil
}

// Call executes the named operation through its shared node.
func (e *Engine) Call(ctx context.Context, name string, args ...any) (any, error) {
	n, err := e.Node(name)
	if err != nil {
		return nil, err
	}
	return n.Execute(ctx, args...)
}

// Emit renders the dispatch code of the named operation with the backend
// called backendName.
func (e *Engine) Emit(name, backendName string) (string, error) {
	b, err := backend.ByName(backendName)
	if err != nil {
		return "", err
	}
	r, err := e.Result(name)
	if err != nil {
		return "", err
	}
	return b.Emit(r)
}
