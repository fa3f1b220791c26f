// Package irq dispatches peripheral interrupts to a single,
// non-reentrant handler.
package irq

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"
)

// Source identifies an interrupt source. Each source is one bit of the
// pending and enable registers.
type Source uint32

// Predefined sources.
const (
	SourceTrigger Source = 1 << iota // edge-count trigger wrapped
	SourceReceive                    // serial byte received
)

// Flags exposes the pending flags to a handler.
type Flags interface {
	Pending(Source) bool
	Clear(Source)
}

// Handler services pending interrupts. It must clear the flags of the
// sources it handled.
type Handler interface {
	HandleInterrupt(Flags)
}

// HandleInterruptFunc is func form of Handler.
type HandleInterruptFunc func(Flags)

// HandleInterrupt implements Handler.
func (f HandleInterruptFunc) HandleInterrupt(flags Flags) {
	f(flags)
}

// Handlers invokes every handler in order, like a single service
// routine testing one flag after another.
type Handlers []Handler

// HandleInterrupt implements Handler.
func (h Handlers) HandleInterrupt(flags Flags) {
	for _, handler := range h {
		handler.HandleInterrupt(flags)
	}
}

// Controller latches interrupt requests and runs the handler to
// completion, never nested.
//
// By default the goroutine raising an interrupt services it inline.
// While Run is active, servicing happens on Run's goroutine instead.
type Controller struct {
	Handler Handler

	pending   uint32
	enabled   uint32
	raised    uint32
	servicing uint32
	dedicated uint32
	wakeCh    chan struct{}
}

// NewController creates a Controller.
func NewController(h Handler) *Controller {
	return &Controller{
		Handler: h,
		wakeCh:  make(chan struct{}, 1),
	}
}

// Line is the interrupt line of a single source.
type Line struct {
	ctl *Controller
	src Source
}

// Raise implements hw.InterruptLine.
func (l Line) Raise() {
	l.ctl.Raise(l.src)
}

// Line returns the interrupt line for a source.
func (c *Controller) Line(src Source) Line {
	return Line{ctl: c, src: src}
}

// Enable unmasks sources.
func (c *Controller) Enable(srcs ...Source) {
	for _, src := range srcs {
		update(&c.enabled, func(v uint32) uint32 { return v | uint32(src) })
	}
	c.kick()
}

// Disable masks sources. Their flags are still latched.
func (c *Controller) Disable(srcs ...Source) {
	for _, src := range srcs {
		update(&c.enabled, func(v uint32) uint32 { return v &^ uint32(src) })
	}
}

// Raise latches the pending flag of the source and services it.
func (c *Controller) Raise(src Source) {
	update(&c.pending, func(v uint32) uint32 { return v | uint32(src) })
	atomic.AddUint32(&c.raised, 1)
	c.kick()
}

// Pending implements Flags.
func (c *Controller) Pending(src Source) bool {
	return atomic.LoadUint32(&c.pending)&uint32(src) != 0
}

// Clear implements Flags.
func (c *Controller) Clear(src Source) {
	update(&c.pending, func(v uint32) uint32 { return v &^ uint32(src) })
}

// Dispatch services all enabled pending sources. It returns immediately
// if the handler is already running; the running dispatcher picks up the
// new flags before it returns.
func (c *Controller) Dispatch() {
	for c.active() != 0 {
		if !atomic.CompareAndSwapUint32(&c.servicing, 0, 1) {
			return
		}
		c.service()
		atomic.StoreUint32(&c.servicing, 0)
	}
}

// Run services interrupts on the calling goroutine until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	atomic.StoreUint32(&c.dedicated, 1)
	defer func() {
		atomic.StoreUint32(&c.dedicated, 0)
		c.Dispatch()
	}()
	c.Dispatch()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wakeCh:
			c.Dispatch()
		}
	}
}

func (c *Controller) kick() {
	if atomic.LoadUint32(&c.dedicated) != 0 {
		select {
		case c.wakeCh <- struct{}{}:
		default:
		}
		return
	}
	c.Dispatch()
}

func (c *Controller) active() uint32 {
	return atomic.LoadUint32(&c.pending) & atomic.LoadUint32(&c.enabled)
}

func (c *Controller) service() {
	for {
		active := c.active()
		if active == 0 {
			return
		}
		raised := atomic.LoadUint32(&c.raised)
		if h := c.Handler; h != nil {
			h.HandleInterrupt(c)
		}
		// a flag left set without a new request would fire forever.
		if c.active()&active == active && atomic.LoadUint32(&c.raised) == raised {
			glog.Warningf("unhandled interrupt sources %#x, clearing", active)
			update(&c.pending, func(v uint32) uint32 { return v &^ active })
		}
	}
}

func update(addr *uint32, fn func(uint32) uint32) {
	for {
		old := atomic.LoadUint32(addr)
		if atomic.CompareAndSwapUint32(addr, old, fn(old)) {
			return
		}
	}
}
