package meter

import "errors"

var (
	// ErrInvalidArity indicates the edge arity is out of [1,255].
	ErrInvalidArity = errors.New("edge arity must be within [1,255]")
	// ErrInvalidRate indicates the reference rate is out of range.
	ErrInvalidRate = errors.New("invalid reference rate")
	// ErrInvalidReportEvery indicates the reporting cadence is out of range.
	ErrInvalidReportEvery = errors.New("invalid report cadence")
	// ErrUnknownMode indicates an unknown trigger mode.
	ErrUnknownMode = errors.New("unknown mode")
)
