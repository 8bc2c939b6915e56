package typesystem

import (
	"strings"

	"github.com/funvibe/specnode/internal/config"
)

// TCon represents a type constant (e.g. Int, Double, Any).
// TCon values are comparable and are used directly as map and set keys.
type TCon struct {
	Name   string
	Module string // Optional module path for host-declared types
}

// Any is the universal type: every value is an Any, and it is the boxed
// representation used by Generic specializations.
var Any = TCon{Name: config.AnyTypeName}

// Built-in type constants registered by NewStandardLattice.
var (
	Int    = TCon{Name: config.IntTypeName}
	Double = TCon{Name: config.DoubleTypeName}
	BigInt = TCon{Name: config.BigIntTypeName}
	String = TCon{Name: config.StringTypeName}
	Bool   = TCon{Name: config.BoolTypeName}
)

func (t TCon) String() string {
	if t.Module != "" {
		return t.Module + "." + t.Name
	}
	return t.Name
}

// IsAny reports whether t is the universal type.
func (t TCon) IsAny() bool {
	return t == Any
}

// ParseTCon parses "Name" or "module.Name".
func ParseTCon(s string) TCon {
	if idx := strings.LastIndex(s, "."); idx > 0 {
		return TCon{Module: s[:idx], Name: s[idx+1:]}
	}
	return TCon{Name: s}
}

// FormatTypes renders a type list as "(A, B)".
func FormatTypes(ts []TCon) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
