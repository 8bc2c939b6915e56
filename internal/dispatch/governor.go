package dispatch

import set "github.com/hashicorp/go-set/v3"

// Decision is the governor's answer to a rewrite that wants a new entry.
type Decision int

const (
	Grow Decision = iota
	Collapse
)

func (d Decision) String() string {
	if d == Collapse {
		return "collapse"
	}
	return "grow"
}

// Governor bounds polymorphic chain growth. It is not safe for concurrent
// use; the node calls it under its writer lock.
type Governor struct {
	bound     int
	predicted int
	eager     bool
	observed  *set.Set[string]
}

// NewGovernor creates a governor for a chain of at most bound polymorphic
// entries, out of predicted possible shapes. With eager set, the node
// collapses when a shape would complete the predicted set, before that shape
// is installed.
func NewGovernor(bound, predicted int, eager bool) *Governor {
	return &Governor{
		bound:     bound,
		predicted: predicted,
		eager:     eager,
		observed:  set.New[string](predicted),
	}
}

// Admit decides whether a chain of chainLen entries may take the entry for
// shape key. The first entry is always admitted; later ones collapse the
// node instead of growing past the bound. An eager governor also collapses
// when key is the last predicted shape not yet observed.
func (g *Governor) Admit(chainLen int, key string) Decision {
	if g.eager && g.completes(key) {
		return Collapse
	}
	if chainLen == 0 {
		return Grow
	}
	if chainLen+1 > g.bound {
		return Collapse
	}
	return Grow
}

// completes reports whether observing key would saturate the governor.
func (g *Governor) completes(key string) bool {
	return g.predicted > 0 && !g.observed.Contains(key) && g.observed.Size()+1 >= g.predicted
}

// Observe records an installed shape.
func (g *Governor) Observe(key string) {
	g.observed.Insert(key)
}

// Observed is the number of distinct shapes installed so far.
func (g *Governor) Observed() int { return g.observed.Size() }

func (g *Governor) Bound() int { return g.bound }

// Saturated reports whether every predicted shape has been observed.
func (g *Governor) Saturated() bool {
	return g.predicted > 0 && g.observed.Size() >= g.predicted
}
