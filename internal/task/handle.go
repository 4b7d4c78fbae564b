package task

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// ErrNoHandles is returned by WaitFirst when it is given nothing to wait on.
var ErrNoHandles = errors.New("no task handles to wait on")

// Handle tracks one submitted task.
type Handle struct {
	id   uuid.UUID
	typ  string
	done chan struct{}

	mu     sync.Mutex
	status TaskStatus
	err    error
}

func newHandle(t Task) *Handle {
	return &Handle{
		id:     t.ID(),
		typ:    t.Type(),
		done:   make(chan struct{}),
		status: TaskStatusPending,
	}
}

// ID returns the ID of the task.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Type returns the type of the task.
func (h *Handle) Type() string {
	return h.typ
}

// Done is closed once the task has completed or failed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Status returns the current status of the task.
func (h *Handle) Status() TaskStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Err returns the error the task failed with. It is nil while the task is
// still running and after it completed successfully.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the task is done or ctx ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) setStatus(status TaskStatus) {
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	if err != nil {
		h.status = TaskStatusFailed
		h.err = err
	} else {
		h.status = TaskStatusCompleted
	}
	h.mu.Unlock()
	close(h.done)
}

// WaitFirst blocks until the first of handles is done and returns it. If
// several are already done, the earliest in the argument list wins. It
// returns ctx.Err() if ctx ends first. Nil handles are ignored.
func WaitFirst(ctx context.Context, handles ...*Handle) (*Handle, error) {
	live := make([]*Handle, 0, len(handles))
	for _, h := range handles {
		if h == nil {
			continue
		}
		select {
		case <-h.done:
			return h, nil
		default:
		}
		live = append(live, h)
	}
	if len(live) == 0 {
		return nil, ErrNoHandles
	}

	cases := make([]reflect.SelectCase, 0, len(live)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for _, h := range live {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(h.done)})
	}

	chosen, _, _ := reflect.Select(cases)
	if chosen == 0 {
		return nil, ctx.Err()
	}
	return live[chosen-1], nil
}
