package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(DefaultTaskRunnerConfig(), testLogger())
	defer func() { _ = runner.Stop(context.Background()) }()

	t.Run("successful task", func(t *testing.T) {
		task := NewFuncTask("ok", func(ctx context.Context) error { return nil })

		h, err := runner.Submit(task)
		require.NoError(t, err)
		assert.Equal(t, task.ID(), h.ID())
		assert.Equal(t, "ok", h.Type())

		require.NoError(t, h.Wait(context.Background()))
		assert.Equal(t, TaskStatusCompleted, h.Status())
		assert.NoError(t, h.Err())
	})

	t.Run("failing task", func(t *testing.T) {
		cause := errors.New("llm down")
		h, err := runner.Submit(NewFuncTask("fail", func(ctx context.Context) error { return cause }))
		require.NoError(t, err)

		assert.ErrorIs(t, h.Wait(context.Background()), cause)
		assert.Equal(t, TaskStatusFailed, h.Status())
		assert.ErrorIs(t, h.Err(), cause)
	})

	t.Run("panicking task", func(t *testing.T) {
		h, err := runner.Submit(NewFuncTask("panic", func(ctx context.Context) error { panic("boom") }))
		require.NoError(t, err)

		err = h.Wait(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, TaskStatusFailed, h.Status())
	})

	t.Run("nil task", func(t *testing.T) {
		_, err := runner.Submit(nil)
		assert.Error(t, err)
	})
}

func TestTaskRunner_StatusWhileRunning(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{}, testLogger())
	release := make(chan struct{})
	started := make(chan struct{})

	h, err := runner.Submit(NewFuncTask("slow", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	require.NoError(t, err)

	<-started
	assert.Equal(t, TaskStatusProcessing, h.Status())
	assert.Equal(t, 1, runner.InFlight())
	select {
	case <-h.Done():
		t.Fatal("task should still be running")
	default:
	}

	close(release)
	require.NoError(t, h.Wait(context.Background()))
	assert.Eventually(t, func() bool { return runner.InFlight() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, runner.Stop(context.Background()))
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{}, testLogger())

	var mu sync.Mutex
	var failed []string
	runner.SetErrorHandler(func(task Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, task.Type()+": "+err.Error())
	})

	h, err := runner.Submit(NewFuncTask("bulk_replenish", func(ctx context.Context) error {
		return errors.New("quota exceeded")
	}))
	require.NoError(t, err)
	_ = h.Wait(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bulk_replenish: quota exceeded"}, failed)
}

func TestTaskRunner_MaxConcurrent(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{MaxConcurrent: 2}, testLogger())

	var running, peak atomic.Int32
	var handles []*Handle
	for i := 0; i < 6; i++ {
		h, err := runner.Submit(NewFuncTask("limited", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return nil
		}))
		require.NoError(t, err)
		handles = append(handles, h)
	}

	for _, h := range handles {
		require.NoError(t, h.Wait(context.Background()))
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
	require.NoError(t, runner.Stop(context.Background()))
}

func TestTaskRunner_Stop(t *testing.T) {
	t.Parallel()

	t.Run("drains in-flight tasks", func(t *testing.T) {
		runner := NewTaskRunner(TaskRunnerConfig{}, testLogger())

		var finished atomic.Bool
		h, err := runner.Submit(NewFuncTask("slow", func(ctx context.Context) error {
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return nil
		}))
		require.NoError(t, err)

		require.NoError(t, runner.Stop(context.Background()))
		assert.True(t, finished.Load())
		assert.Equal(t, TaskStatusCompleted, h.Status())

		_, err = runner.Submit(NewFuncTask("late", func(ctx context.Context) error { return nil }))
		assert.ErrorIs(t, err, ErrRunnerStopped)
	})

	t.Run("cancels tasks when the deadline passes", func(t *testing.T) {
		runner := NewTaskRunner(TaskRunnerConfig{}, testLogger())

		h, err := runner.Submit(NewFuncTask("stuck", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, runner.Stop(ctx), context.DeadlineExceeded)

		assert.ErrorIs(t, h.Wait(context.Background()), context.Canceled)
	})
}

func TestWaitFirst(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{}, testLogger())
	defer func() { _ = runner.Stop(context.Background()) }()

	sleeper := func(d time.Duration) Task {
		return NewFuncTask("sleep", func(ctx context.Context) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	t.Run("returns the first to finish", func(t *testing.T) {
		slow, err := runner.Submit(sleeper(500 * time.Millisecond))
		require.NoError(t, err)
		fast, err := runner.Submit(sleeper(10 * time.Millisecond))
		require.NoError(t, err)

		first, err := runner.WaitFirst(context.Background(), slow, fast)
		require.NoError(t, err)
		assert.Same(t, fast, first)
		assert.NotEqual(t, TaskStatusCompleted, slow.Status())
	})

	t.Run("already done handle wins", func(t *testing.T) {
		done, err := runner.Submit(sleeper(0))
		require.NoError(t, err)
		require.NoError(t, done.Wait(context.Background()))
		pending, err := runner.Submit(sleeper(time.Second))
		require.NoError(t, err)

		first, err := WaitFirst(context.Background(), pending, done)
		require.NoError(t, err)
		assert.Same(t, done, first)
	})

	t.Run("context ends first", func(t *testing.T) {
		h, err := runner.Submit(sleeper(time.Second))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		first, err := WaitFirst(ctx, h)
		assert.Nil(t, first)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("no handles", func(t *testing.T) {
		_, err := WaitFirst(context.Background())
		assert.ErrorIs(t, err, ErrNoHandles)

		_, err = WaitFirst(context.Background(), nil, nil)
		assert.ErrorIs(t, err, ErrNoHandles)
	})
}
