package cardgen

import (
	"context"
	"log/slog"

	"github.com/phrazzld/phrasify/internal/metrics"
	"github.com/phrazzld/phrasify/internal/store"
	"github.com/phrazzld/phrasify/internal/task"
)

// Runtime holds the process wide state shared by every Replenisher: the
// queue store, the per-key coordinator and the task runner executing
// replenishment jobs. Create one per process and Close it on shutdown.
type Runtime struct {
	Store       store.QueueStore
	Coordinator *Coordinator
	Runner      *task.TaskRunner
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// NewRuntime wires a runtime around queueStore. m may be nil.
func NewRuntime(
	queueStore store.QueueStore,
	runnerConfig task.TaskRunnerConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runtime{
		Store:       queueStore,
		Coordinator: NewCoordinator(),
		Runner:      task.NewTaskRunner(runnerConfig, logger),
		Metrics:     m,
		Logger:      logger,
	}
}

// Close stops the task runner, waiting for in-flight jobs until ctx ends.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.Runner.Stop(ctx)
}
