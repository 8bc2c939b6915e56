package dispatch

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization"
	"github.com/funvibe/specnode/internal/typesystem"
)

// Reason is what triggered a rewrite.
type Reason int

const (
	FirstCall Reason = iota
	GuardFailure
	FallbackError
	AssumptionInvalidated
)

func (r Reason) String() string {
	switch r {
	case FirstCall:
		return "first call"
	case GuardFailure:
		return "guard failure"
	case FallbackError:
		return "fallback error"
	case AssumptionInvalidated:
		return "assumption invalidated"
	default:
		return "unknown"
	}
}

// ChangeEvent is delivered to observers after every published rewrite.
type ChangeEvent struct {
	NodeID     uuid.UUID
	Operation  string
	From, To   specialization.Kind
	Reason     Reason
	Active     []string
	Generation uint64

	shape   *Shape
	args    []any
	lattice *typesystem.Lattice
}

// Observer receives change events. It runs on the goroutine that performed
// the rewrite, after the new shape is visible.
type Observer func(ChangeEvent)

// Render is the diagnostic rendering of the event: the new shape and the
// arguments that caused it.
func (e ChangeEvent) Render() string {
	return fmt.Sprintf("%s#%s %s -> %s (%s) gen %d: %s args %s",
		e.Operation, shortID(e.NodeID), e.From, e.To, e.Reason, e.Generation,
		renderShape(e.shape), resolver.FormatArgs(e.lattice, e.args))
}

func renderShape(s *Shape) string {
	if s == nil {
		return "<none>"
	}
	if s.State == specialization.Generic || s.Chain == nil {
		return s.State.String()
	}
	keys := make([]string, 0, s.Len())
	for _, c := range s.Entries() {
		keys = append(keys, c.Key())
	}
	return "[" + strings.Join(keys, " -> ") + " -> " + specialization.Uninitialized.String() + "]"
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
