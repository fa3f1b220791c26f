package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait when a second stop signal arrives
// before the tasks finish.
var ErrForcedExit = errors.New("forced exit")

// Runner runs background tasks (signal sources, the serial receiver,
// report sinks) until its context is done and collects their errors.
// Errors of tasks implementing Named are prefixed with the name.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	forced chan struct{}
	tasks  sync.WaitGroup
	count  int

	lock sync.Mutex
	errs AggregatedError
}

// NewRunner creates a Runner whose tasks stop when ctx is done or Stop is
// called.
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{forced: make(chan struct{})}
	r.ctx, r.cancel = context.WithCancel(ctx)
	return r
}

// HandleSignals stops the tasks on CtrlC or SIGTERM. A second signal
// makes Wait return without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		r.cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.forced)
	}()
	return r
}

// Go starts tasks.
func (r *Runner) Go(tasks ...Runnable) *Runner {
	for _, task := range tasks {
		name := fmt.Sprintf("task%d", r.count)
		if named, ok := task.(Named); ok {
			name = named.Name()
		}
		r.count++
		r.tasks.Add(1)
		go r.run(task, name)
	}
	return r
}

func (r *Runner) run(task Runnable, name string) {
	defer r.tasks.Done()
	glog.V(4).Infof("%s started", name)
	err := task.Run(r.ctx)
	glog.V(4).Infof("%s stopped: %v", name, err)
	if err == nil || err == context.Canceled {
		return
	}
	r.lock.Lock()
	r.errs.Add(fmt.Errorf("%s: %v", name, err))
	r.lock.Unlock()
}

// Wait waits until all tasks stop and returns their aggregated errors.
func (r *Runner) Wait() error {
	done := make(chan struct{})
	go func() {
		r.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-r.forced:
		return ErrForcedExit
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.errs.Aggregate()
}

// Stop cancels the tasks and waits for them.
func (r *Runner) Stop() error {
	r.cancel()
	return r.Wait()
}

// RunWithCloser runs fn, which blocks on closer, until it returns or ctx
// is done. closer is closed in both cases, which is how a canceled fn
// gets unblocked.
func RunWithCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		closer.Close()
		return err
	case <-ctx.Done():
		closer.Close()
		<-errCh
		return ctx.Err()
	}
}
