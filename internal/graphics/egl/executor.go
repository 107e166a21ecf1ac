package egl

import (
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/panics"
)

var ErrExecutorClosed = errors.New("context executor closed")

// ContextExecutor runs tasks one at a time on a dedicated OS thread with the
// driver's context current. Spawn never blocks, so tasks may queue more
// work for the same executor.
type ContextExecutor struct {
	driver Driver
	logger *log.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	done chan struct{}
}

// NewContextExecutor starts the worker thread and makes the driver's
// context current on it.
func NewContextExecutor(d Driver) (*ContextExecutor, error) {
	e := &ContextExecutor{
		driver: d,
		logger: log.WithPrefix("egl"),
		done:   make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)

	started := make(chan error, 1)
	go e.loop(started)
	if err := <-started; err != nil {
		<-e.done
		return nil, err
	}
	return e, nil
}

func (e *ContextExecutor) loop(started chan<- error) {
	defer close(e.done)

	// The context stays bound to this thread for the executor's lifetime.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := e.driver.MakeCurrent(); err != nil {
		started <- errors.Wrap(err, "make executor context current")
		return
	}
	started <- nil

	for {
		task, ok := e.next()
		if !ok {
			break
		}
		var pc panics.Catcher
		pc.Try(task)
		if r := pc.Recovered(); r != nil {
			e.logger.Errorf("task panicked: %v", r.Value)
		}
	}

	if err := e.driver.ReleaseCurrent(); err != nil {
		e.logger.Warnf("failed to release context: %v", err)
	}
}

func (e *ContextExecutor) next() (func(), bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.queue) == 0 && !e.closed {
		e.cond.Wait()
	}
	if len(e.queue) == 0 {
		return nil, false
	}
	task := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return task, true
}

// Spawn queues task without waiting for it.
func (e *ContextExecutor) Spawn(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrExecutorClosed
	}
	e.queue = append(e.queue, task)
	e.cond.Signal()
	return nil
}

// Run queues task and waits for it to finish. A panicking task is reported
// as an error. Run must not be called from a task on the same executor.
func (e *ContextExecutor) Run(task func() error) error {
	result := make(chan error, 1)
	err := e.Spawn(func() {
		var pc panics.Catcher
		var err error
		pc.Try(func() { err = task() })
		if r := pc.Recovered(); r != nil {
			err = r.AsError()
		}
		result <- err
	})
	if err != nil {
		return err
	}
	return <-result
}

// Close stops accepting work, waits for already queued tasks to run and
// joins the worker thread.
func (e *ContextExecutor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return nil
	}
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	<-e.done
	return nil
}

// Executor is the part of ContextExecutor other packages depend on.
type Executor interface {
	Spawn(task func()) error
	Run(task func() error) error
}
