package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier, used in logs and metrics
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// FuncTask adapts a function to the Task interface.
type FuncTask struct {
	id      uuid.UUID
	typ     string
	execute func(ctx context.Context) error
}

// NewFuncTask creates a task of the given type that runs fn.
func NewFuncTask(taskType string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: uuid.New(), typ: taskType, execute: fn}
}

// ID returns the task's unique identifier
func (t *FuncTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *FuncTask) Type() string {
	return t.typ
}

// Execute runs the wrapped function
func (t *FuncTask) Execute(ctx context.Context) error {
	return t.execute(ctx)
}
