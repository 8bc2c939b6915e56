package typesystem

import "fmt"

// UnknownTypeError indicates a type that was never declared in the lattice.
type UnknownTypeError struct {
	Type TCon
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %s", e.Type)
}

func NewUnknownTypeError(t TCon) *UnknownTypeError {
	return &UnknownTypeError{Type: t}
}

// DuplicateTypeError indicates a type declared twice.
type DuplicateTypeError struct {
	Type TCon
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type already declared: %s", e.Type)
}
