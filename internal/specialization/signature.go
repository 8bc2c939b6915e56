package specialization

import "github.com/funvibe/specnode/internal/typesystem"

// Signature is the ordered list of argument types of a specialization.
type Signature []typesystem.TCon

func (s Signature) Arity() int { return len(s) }

func (s Signature) Equal(other Signature) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Covers reports whether every argument position of s accepts the type
// other declares there.
func (s Signature) Covers(other Signature, l *typesystem.Lattice) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !l.IsAssignable(other[i], s[i]) {
			return false
		}
	}
	return true
}

// IsMoreGeneralThan reports whether s is everywhere at least as general as
// other and strictly different somewhere.
func (s Signature) IsMoreGeneralThan(other Signature, l *typesystem.Lattice) bool {
	return !s.Equal(other) && s.Covers(other, l)
}

// IsAny reports whether every position accepts Any.
func (s Signature) IsAny() bool {
	for _, t := range s {
		if !t.IsAny() {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	return typesystem.FormatTypes(s)
}
