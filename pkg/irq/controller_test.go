package irq

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatchInline(t *testing.T) {
	var calls []Source
	var ctl *Controller
	ctl = NewController(HandleInterruptFunc(func(f Flags) {
		for _, src := range []Source{SourceTrigger, SourceReceive} {
			if f.Pending(src) {
				calls = append(calls, src)
				f.Clear(src)
			}
		}
	}))

	ctl.Raise(SourceTrigger)
	require.Empty(t, calls, "masked source must not be serviced")
	require.True(t, ctl.Pending(SourceTrigger))

	ctl.Enable(SourceTrigger, SourceReceive)
	require.Equal(t, []Source{SourceTrigger}, calls)
	require.False(t, ctl.Pending(SourceTrigger))

	ctl.Line(SourceReceive).Raise()
	require.Equal(t, []Source{SourceTrigger, SourceReceive}, calls)
}

func TestNoReentry(t *testing.T) {
	var depth, maxDepth, count int
	var ctl *Controller
	ctl = NewController(HandleInterruptFunc(func(f Flags) {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		count++
		f.Clear(SourceTrigger)
		if count < 3 {
			// raised from inside the handler: latched, serviced after return.
			ctl.Raise(SourceTrigger)
		}
		depth--
	}))
	ctl.Enable(SourceTrigger)
	ctl.Raise(SourceTrigger)
	require.Equal(t, 1, maxDepth)
	require.Equal(t, 3, count)
	require.False(t, ctl.Pending(SourceTrigger))
}

func TestUnhandledSourceCleared(t *testing.T) {
	var count int
	ctl := NewController(HandleInterruptFunc(func(f Flags) {
		count++
	}))
	ctl.Enable(SourceReceive)
	ctl.Raise(SourceReceive)
	require.Equal(t, 1, count)
	require.False(t, ctl.Pending(SourceReceive))
}

func TestHandlers(t *testing.T) {
	var order []string
	h := Handlers{
		HandleInterruptFunc(func(f Flags) {
			if f.Pending(SourceTrigger) {
				order = append(order, "trigger")
				f.Clear(SourceTrigger)
			}
		}),
		HandleInterruptFunc(func(f Flags) {
			if f.Pending(SourceReceive) {
				order = append(order, "receive")
				f.Clear(SourceReceive)
			}
		}),
	}
	ctl := NewController(h)
	ctl.Raise(SourceReceive)
	ctl.Raise(SourceTrigger)
	ctl.Enable(SourceTrigger, SourceReceive)
	require.Equal(t, []string{"trigger", "receive"}, order)
}

func TestConcurrentRaiseNeverNests(t *testing.T) {
	var inside, nested, handled int32
	ctl := NewController(HandleInterruptFunc(func(f Flags) {
		if atomic.AddInt32(&inside, 1) > 1 {
			atomic.StoreInt32(&nested, 1)
		}
		if f.Pending(SourceTrigger) {
			f.Clear(SourceTrigger)
			atomic.AddInt32(&handled, 1)
		}
		atomic.AddInt32(&inside, -1)
	}))
	ctl.Enable(SourceTrigger)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 500; n++ {
				ctl.Raise(SourceTrigger)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(0), atomic.LoadInt32(&nested))
	require.False(t, ctl.Pending(SourceTrigger))
	require.True(t, atomic.LoadInt32(&handled) > 0)
}

func TestRunDedicated(t *testing.T) {
	servicedCh := make(chan struct{}, 1)
	ctl := NewController(HandleInterruptFunc(func(f Flags) {
		f.Clear(SourceTrigger)
		servicedCh <- struct{}{}
	}))
	ctl.Enable(SourceTrigger)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- ctl.Run(ctx)
	}()
	// wait for Run to take over dispatching.
	for atomic.LoadUint32(&ctl.dedicated) == 0 {
		time.Sleep(time.Millisecond)
	}
	ctl.Raise(SourceTrigger)
	select {
	case <-servicedCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("interrupt not serviced")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
