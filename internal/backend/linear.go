package backend

import (
	"fmt"

	"github.com/funvibe/specnode/internal/pipeline"
	"github.com/funvibe/specnode/internal/prettyprinter"
	"github.com/funvibe/specnode/internal/specialization"
)

const LinearName = "linear"

// LinearBackend tests the descriptors one by one in resolved order.
type LinearBackend struct{}

// NewLinear creates a new linear backend
func NewLinear() *LinearBackend {
	return &LinearBackend{}
}

func (b *LinearBackend) Select(r *pipeline.Result, args []any) (*specialization.Descriptor, []any, error) {
	if r.Resolution == nil {
		return nil, nil, fmt.Errorf("%s: not resolved", r.Operation.Name)
	}
	return r.Resolution.Select(args)
}

func (b *LinearBackend) Emit(r *pipeline.Result) (string, error) {
	if r.Resolution == nil {
		return "", fmt.Errorf("%s: not resolved", r.Operation.Name)
	}
	return prettyprinter.Order(r.Resolution), nil
}

func (b *LinearBackend) Name() string {
	return LinearName
}
