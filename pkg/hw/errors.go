package hw

import "errors"

var (
	// ErrInvalidArity indicates a trigger arity outside [1,255].
	ErrInvalidArity = errors.New("trigger arity must be within [1,255]")
)
