package builtins

import (
	"fmt"
	"math/big"
)

func IsPositive(values []any) (bool, error) {
	switch n := values[0].(type) {
	case int:
		return n > 0, nil
	case float64:
		return n > 0, nil
	case *big.Int:
		return n.Sign() > 0, nil
	}
	return false, fmt.Errorf("isPositive: unsupported %T", values[0])
}

func IsZero(values []any) (bool, error) {
	switch n := values[0].(type) {
	case int:
		return n == 0, nil
	case float64:
		return n == 0, nil
	case *big.Int:
		return n.Sign() == 0, nil
	}
	return false, fmt.Errorf("isZero: unsupported %T", values[0])
}

func IsEven(values []any) (bool, error) {
	switch n := values[0].(type) {
	case int:
		return n%2 == 0, nil
	case *big.Int:
		return n.Bit(0) == 0, nil
	}
	return false, fmt.Errorf("isEven: unsupported %T", values[0])
}

func IsEmpty(values []any) (bool, error) {
	s, ok := values[0].(string)
	if !ok {
		return false, fmt.Errorf("isEmpty: unsupported %T", values[0])
	}
	return s == "", nil
}

// Equal reports whether all values are equal to the first.
func Equal(values []any) (bool, error) {
	for _, v := range values[1:] {
		if v != values[0] {
			return false, nil
		}
	}
	return true, nil
}
