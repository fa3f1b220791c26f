package framework

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop interval when neither Interval nor Pacer is set.
const DefaultInterval = time.Millisecond

// Loop is the cooperative main loop. Each cycle runs the controllers by
// priority level, then waits for the Pacer.
type Loop struct {
	Interval time.Duration
	Pacer    Pacer

	controllers [PriorityLevels]controllerList

	runners []Runnable
	cycle   uint32
}

type controllerList struct {
	controllers []Controller
	postHooks   []Controller
	lock        sync.Mutex
}

type loopIteration struct {
	loop          *Loop
	ctx           context.Context
	time          time.Time
	cycle         uint32
	priorityLevel int
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lst := &l.controllers[priorityLevel]
	lst.controllers = append(lst.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions started along with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Cycle returns the number of completed cycles.
func (l *Loop) Cycle() uint32 {
	return atomic.LoadUint32(&l.cycle)
}

// Step runs a single cycle.
func (l *Loop) Step(ctx context.Context) {
	iter := &loopIteration{
		loop:  l,
		ctx:   ctx,
		time:  time.Now(),
		cycle: atomic.LoadUint32(&l.cycle),
	}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		l.controllers[i].run(iter)
	}
	atomic.AddUint32(&l.cycle, 1)
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunner(ctx).Go(l.runners...)
	defer func() {
		if err := runner.Stop(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	pacer := l.Pacer
	if pacer == nil {
		interval := l.Interval
		if interval == 0 {
			interval = DefaultInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pacer = PaceFunc(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				return nil
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step(ctx)
		if err := pacer.Pace(ctx); err != nil {
			return err
		}
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Cycle() uint32 {
	return t.cycle
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) PostRun(hooks ...Controller) {
	lst := &t.loop.controllers[t.priorityLevel]
	lst.lock.Lock()
	lst.postHooks = append(lst.postHooks, hooks...)
	lst.lock.Unlock()
}

func (c *controllerList) run(iter *loopIteration) {
	runControllers(iter, c.controllers)
	c.lock.Lock()
	ctls := c.postHooks
	c.postHooks = nil
	c.lock.Unlock()
	runControllers(iter, ctls)
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}
