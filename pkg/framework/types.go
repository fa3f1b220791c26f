package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Controller defines the logic executed once per loop cycle.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current loop cycle.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Cycle is the loop cycle counter. It starts from 0 and wraps.
	Cycle() uint32
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// PostRun injects one-shot hooks executed after the controllers
	// of current priority level.
	PostRun(hooks ...Controller)
}

// Pacer decides when the next loop cycle starts.
type Pacer interface {
	Pace(context.Context) error
}

// PaceFunc is the func form of Pacer.
type PaceFunc func(context.Context) error

// Pace implements Pacer.
func (f PaceFunc) Pace(ctx context.Context) error {
	return f(ctx)
}

// Controllers of a lower priority level run earlier in a cycle.
const (
	// PriorityLevels is the total levels of priorities.
	PriorityLevels int = 4
	// PrLvReport is the level of controllers publishing readings.
	PrLvReport int = PriorityLevels / 2
)

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
