package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrRunnerStopped is returned by Submit after Stop has been called.
var ErrRunnerStopped = errors.New("task runner stopped")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// MaxConcurrent bounds how many tasks execute at the same time.
	// Zero or negative means unbounded: every task starts immediately.
	MaxConcurrent int64
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{MaxConcurrent: 16}
}

// TaskRunner manages background task processing
type TaskRunner struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	sem        *semaphore.Weighted
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu         sync.Mutex
	stopped    bool
	inFlight   int
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner. It is ready to accept tasks
// immediately.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))

	ctx, cancel := context.WithCancel(context.Background())

	r := &TaskRunner{
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger,
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
	if config.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(config.MaxConcurrent)
	}
	return r
}

// SetErrorHandler allows setting a custom error handler function. It is
// called on the task's goroutine after the task failed.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errHandler = handler
}

// Submit schedules task and returns its handle.
func (r *TaskRunner) Submit(task Task) (*Handle, error) {
	if task == nil {
		return nil, errors.New("task cannot be nil")
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil, ErrRunnerStopped
	}
	r.inFlight++
	r.wg.Add(1)
	r.mu.Unlock()

	h := newHandle(task)
	go r.run(task, h)
	return h, nil
}

// WaitFirst blocks until the first of handles is done; see the package level
// WaitFirst.
func (r *TaskRunner) WaitFirst(ctx context.Context, handles ...*Handle) (*Handle, error) {
	return WaitFirst(ctx, handles...)
}

// InFlight returns the number of submitted tasks that have not finished.
func (r *TaskRunner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Stop refuses new tasks and waits for the ones in flight until ctx ends.
// If ctx ends first, the context handed to running tasks is canceled and
// ctx.Err() is returned; those tasks finish in the background.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		r.cancelFunc()
		r.logger.Debug("task runner stopped")
		return nil
	case <-ctx.Done():
		r.cancelFunc()
		r.logger.Warn("task runner stopped before all tasks finished",
			"in_flight", r.InFlight())
		return ctx.Err()
	}
}

func (r *TaskRunner) run(task Task, h *Handle) {
	defer r.wg.Done()

	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
	)

	err := r.execute(task, h)

	r.mu.Lock()
	r.inFlight--
	handler := r.errHandler
	r.mu.Unlock()

	if err != nil {
		logger.Debug("task failed", "error", err)
		if handler != nil {
			handler(task, err)
		}
	} else {
		logger.Debug("task completed successfully")
	}

	h.finish(err)
}

func (r *TaskRunner) execute(task Task, h *Handle) (err error) {
	if r.sem != nil {
		if err := r.sem.Acquire(r.ctx, 1); err != nil {
			return fmt.Errorf("%w: %w", ErrRunnerStopped, err)
		}
		defer r.sem.Release(1)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("task panicked",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"panic", p,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("task %s panicked: %v", task.Type(), p)
		}
	}()

	h.setStatus(TaskStatusProcessing)
	return task.Execute(r.ctx)
}
