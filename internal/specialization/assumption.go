package specialization

import "sync/atomic"

// Assumption is an invalidatable fact. Once broken it never becomes valid
// again, and every specialization depending on it stops matching.
type Assumption struct {
	name   string
	broken atomic.Bool
}

func NewAssumption(name string) *Assumption {
	return &Assumption{name: name}
}

func (a *Assumption) Name() string { return a.name }

func (a *Assumption) IsValid() bool { return !a.broken.Load() }

// Invalidate breaks the assumption. It reports whether this call was the one
// that broke it.
func (a *Assumption) Invalidate() bool {
	return a.broken.CompareAndSwap(false, true)
}

func (a *Assumption) String() string {
	if a.IsValid() {
		return a.name
	}
	return a.name + "(invalid)"
}

// AllValid reports whether none of the assumptions is broken.
func AllValid(as []*Assumption) bool {
	for _, a := range as {
		if !a.IsValid() {
			return false
		}
	}
	return true
}
