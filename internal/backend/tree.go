package backend

import (
	"fmt"

	"github.com/funvibe/specnode/internal/pipeline"
	"github.com/funvibe/specnode/internal/prettyprinter"
	"github.com/funvibe/specnode/internal/specialization"
)

const TreeName = "tree"

// TreeBackend walks the grouped decision tree, evaluating shared checks once.
type TreeBackend struct{}

// NewTree creates a new tree backend
func NewTree() *TreeBackend {
	return &TreeBackend{}
}

func (b *TreeBackend) Select(r *pipeline.Result, args []any) (*specialization.Descriptor, []any, error) {
	if r.Tree == nil {
		return nil, nil, fmt.Errorf("%s: no group tree", r.Operation.Name)
	}
	return r.Tree.Select(args)
}

func (b *TreeBackend) Emit(r *pipeline.Result) (string, error) {
	if r.Tree == nil {
		return "", fmt.Errorf("%s: no group tree", r.Operation.Name)
	}
	return prettyprinter.Tree(r.Operation, r.Tree), nil
}

func (b *TreeBackend) Name() string {
	return TreeName
}
