package typesystem

import "math/big"

// NewStandardLattice returns the built-in lattice used by the manifest
// front-end and the CLI:
//
//	Int    (Go int)       widens to Double and BigInt
//	Double (Go float64)
//	BigInt (*big.Int)
//	String (Go string)
//	Bool   (Go bool)
func NewStandardLattice() *Lattice {
	l := NewLattice()
	must(l.Declare(Int, func(v any) bool { _, ok := v.(int); return ok }))
	must(l.Declare(Double, func(v any) bool { _, ok := v.(float64); return ok }))
	must(l.Declare(BigInt, func(v any) bool { _, ok := v.(*big.Int); return ok }))
	must(l.Declare(String, func(v any) bool { _, ok := v.(string); return ok }))
	must(l.Declare(Bool, func(v any) bool { _, ok := v.(bool); return ok }))

	must(l.DeclareCast(Int, Double, func(v any) any { return float64(v.(int)) }))
	must(l.DeclareCast(Int, BigInt, func(v any) any { return big.NewInt(int64(v.(int))) }))
	return l
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
