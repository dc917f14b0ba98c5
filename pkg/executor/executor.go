// Package executor serializes render work onto the single OS thread that
// owns the render context.
//
// Render contexts are not thread-shareable: every render and read-back
// call must happen on the owning thread. The executor models that
// constraint as a FIFO task queue drained by one locked goroutine; callers
// submit closures and wait for completion.
package executor

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned when submitting to a closed executor.
var ErrClosed = errors.New("executor: closed")

type task struct {
	fn   func() error
	done chan error
}

// RenderExecutor owns one render-capable thread. All tasks run on that
// thread in submission order.
type RenderExecutor struct {
	tasks chan task
	quit  chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New starts the executor's worker thread.
func New() *RenderExecutor {
	e := &RenderExecutor{
		tasks: make(chan task),
		quit:  make(chan struct{}),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

func (e *RenderExecutor) run() {
	defer e.wg.Done()
	// The context-owning thread must not migrate between tasks.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case t := <-e.tasks:
			t.done <- t.fn()
		case <-e.quit:
			return
		}
	}
}

// Do submits fn to the render thread and waits for it to finish,
// returning fn's error. Submission is aborted (not the running task) when
// ctx is cancelled first. A submission racing Close either runs or fails
// with ErrClosed; it never reaches a stopped worker.
func (e *RenderExecutor) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case e.tasks <- t:
	case <-e.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// The task is queued; it will run. Wait for its result so the render
	// thread is never observed mid-frame.
	return <-t.done
}

// Close stops the worker after the task in flight finishes. Submissions
// after Close fail with ErrClosed.
func (e *RenderExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.quit)
	e.mu.Unlock()
	e.wg.Wait()
}
