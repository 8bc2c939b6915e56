// Package builtins holds the specialization bodies and guard predicates the
// standard manifest registry exposes by name.
package builtins

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/funvibe/specnode/internal/specialization"
)

// ErrOverflow is raised by AddInts when the int result would wrap.
var ErrOverflow = errors.New("integer overflow")

// AddInts adds two ints, failing with ErrOverflow instead of wrapping.
func AddInts(_ context.Context, args []any) (any, error) {
	a, b := args[0].(int), args[1].(int)
	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return nil, ErrOverflow
	}
	return a + b, nil
}

// MulInts multiplies two ints, failing with ErrOverflow instead of wrapping.
func MulInts(_ context.Context, args []any) (any, error) {
	a, b := args[0].(int), args[1].(int)
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return nil, ErrOverflow
	}
	return p, nil
}

func AddDoubles(_ context.Context, args []any) (any, error) {
	return args[0].(float64) + args[1].(float64), nil
}

func MulDoubles(_ context.Context, args []any) (any, error) {
	return args[0].(float64) * args[1].(float64), nil
}

func AddBigInts(_ context.Context, args []any) (any, error) {
	return new(big.Int).Add(args[0].(*big.Int), args[1].(*big.Int)), nil
}

func Concat(_ context.Context, args []any) (any, error) {
	return args[0].(string) + args[1].(string), nil
}

// AddBoxed is the boxed addition: integers of any size become a *big.Int,
// anything involving a float64 becomes a float64, two strings concatenate.
func AddBoxed(_ context.Context, args []any) (any, error) {
	x, y := args[0], args[1]
	if bx, ok := toBig(x); ok {
		if by, ok := toBig(y); ok {
			return new(big.Int).Add(bx, by), nil
		}
	}
	if fx, ok := toFloat(x); ok {
		if fy, ok := toFloat(y); ok {
			return fx + fy, nil
		}
	}
	if sx, ok := x.(string); ok {
		if sy, ok := y.(string); ok {
			return sx + sy, nil
		}
	}
	return nil, fmt.Errorf("cannot add %T and %T", x, y)
}

// MulBoxed is the boxed multiplication.
func MulBoxed(_ context.Context, args []any) (any, error) {
	x, y := args[0], args[1]
	if bx, ok := toBig(x); ok {
		if by, ok := toBig(y); ok {
			return new(big.Int).Mul(bx, by), nil
		}
	}
	if fx, ok := toFloat(x); ok {
		if fy, ok := toFloat(y); ok {
			return fx * fy, nil
		}
	}
	return nil, fmt.Errorf("cannot multiply %T and %T", x, y)
}

func toBig(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), true
	case *big.Int:
		return n, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	return 0, false
}

// Identity returns its first argument.
func Identity(_ context.Context, args []any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}

// Constant returns a body that ignores its arguments.
func Constant(v any) specialization.Body {
	return func(context.Context, []any) (any, error) { return v, nil }
}

// Describe names the Go type of every argument.
func Describe(_ context.Context, args []any) (any, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%T", a)
	}
	return fmt.Sprint(parts), nil
}
