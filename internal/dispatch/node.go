// Package dispatch is the self-rewriting dispatch node. A node starts
// Uninitialized, installs the specializations its arguments need as a chain
// of cached shapes, and collapses to the Generic specialization once the
// chain would outgrow its depth bound.
//
// Readers load the current shape without locking. Rewrites serialize on the
// node's writer lock and publish a new immutable shape with one atomic store,
// after breaking the old shape's Stable assumption.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	set "github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/diagnostics"
	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// NoMatchError is returned when no specialization, Generic included,
// accepts the arguments. It is never a guest error.
type NoMatchError = resolver.NoMatchError

// ErrReentrantRewrite matches, with errors.Is, the error returned when a
// rewrite of a node is started again from inside the same logical call.
var ErrReentrantRewrite error = diagnostics.NewError(diagnostics.ErrR002, "")

// Options configure a node.
type Options struct {
	Config *config.Config
	Logger *zap.Logger

	// Tree is the grouped decision tree of the resolution. Without it the
	// rewrite scans the resolved order linearly.
	Tree *grouping.Group
}

// Node is one call site of an operation.
type Node struct {
	id      uuid.UUID
	res     *resolver.Resolution
	tree    *grouping.Group
	lattice *typesystem.Lattice
	verbose bool
	logger  *zap.Logger

	shape    atomic.Pointer[Shape]
	rewrites atomic.Uint64

	mu        sync.Mutex // serializes rewrites
	excluded  *set.Set[int]
	governor  *Governor
	observers []Observer
}

// NewNode creates an Uninitialized node for a resolved operation.
func NewNode(res *resolver.Resolution, opts Options) *Node {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	id := uuid.New()
	n := &Node{
		id:       id,
		res:      res,
		tree:     opts.Tree,
		lattice:  res.Lattice,
		verbose:  cfg.Diagnostics.Verbose,
		excluded: set.New[int](len(res.Order)),
		governor: NewGovernor(res.DepthBound, res.PredictedShapes, cfg.EagerCollapse),
		logger: config.LoggerOrNop(opts.Logger).With(
			zap.String("operation", res.Operation.Name),
			zap.String("node", shortID(id))),
	}
	n.shape.Store(newShape(specialization.Uninitialized, nil, 0))
	return n
}

func (n *Node) ID() uuid.UUID { return n.id }

// Resolution returns the resolved operation the node dispatches over.
func (n *Node) Resolution() *resolver.Resolution { return n.res }

// Shape returns the current shape.
func (n *Node) Shape() *Shape { return n.shape.Load() }

func (n *Node) State() specialization.Kind { return n.shape.Load().State }

// Active lists the descriptor ids of the current shape: the chain, or the
// Generic once collapsed.
func (n *Node) Active() []string {
	s := n.shape.Load()
	if s.State == specialization.Generic {
		return []string{n.res.Generic.ID}
	}
	return s.IDs()
}

// Rewrites is the number of published rewrites.
func (n *Node) Rewrites() uint64 { return n.rewrites.Load() }

// Governor exposes the node's depth governor for inspection.
func (n *Node) Governor() *Governor { return n.governor }

// Observe registers fn for change events.
func (n *Node) Observe(fn Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// Excluded reports whether d raised a fallback error at this node and will
// not be installed again.
func (n *Node) Excluded(d *specialization.Descriptor) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.excluded.Contains(d.Index)
}

// Describe renders the current shape together with args. It returns false
// unless diagnostics are verbose.
func (n *Node) Describe(args ...any) (string, bool) {
	if !n.verbose {
		return "", false
	}
	return renderShape(n.shape.Load()) + " args " + resolver.FormatArgs(n.lattice, args), true
}

// Execute runs the operation on args, rewriting the node when the current
// shape cannot handle them.
func (n *Node) Execute(ctx context.Context, args ...any) (any, error) {
	s := n.shape.Load()
	switch s.State {
	case specialization.Generic:
		return n.executeGeneric(ctx, args)
	case specialization.Uninitialized:
		return n.executeAndSpecialize(ctx, args, FirstCall, 0)
	}

	reason := GuardFailure
	for c := s.Chain; c != nil; c = c.Next {
		d := c.Descriptor
		if !specialization.AllValid(d.Assumptions) {
			reason = AssumptionInvalidated
			continue
		}
		converted, ok, err := c.accepts(n.lattice, args)
		if err != nil {
			if d.RewritesOn(err) {
				n.exclude(d)
				return n.executeAndSpecialize(ctx, args, FallbackError, d.Index+1)
			}
			return nil, err
		}
		if !ok {
			continue
		}
		result, err := d.Invoke(ctx, converted)
		if d.RewritesOn(err) {
			n.exclude(d)
			return n.executeAndSpecialize(ctx, args, FallbackError, d.Index+1)
		}
		return result, err
	}
	return n.executeAndSpecialize(ctx, args, reason, 0)
}

// executeGeneric runs the Generic body. The node never changes shape again.
func (n *Node) executeGeneric(ctx context.Context, args []any) (any, error) {
	g := n.res.Generic
	converted, ok, err := g.Match(n.lattice, args)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, n.res.NoMatch(args)
	}
	return g.Invoke(ctx, converted)
}

func (n *Node) exclude(d *specialization.Descriptor) {
	if d.IsGeneric() {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.excluded.Insert(d.Index)
}
