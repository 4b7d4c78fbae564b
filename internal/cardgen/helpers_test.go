package cardgen

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/metrics"
	"github.com/phrazzld/phrasify/internal/platform/filestore"
	"github.com/phrazzld/phrasify/internal/store"
	"github.com/phrazzld/phrasify/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() domain.GeneratorConfig {
	return domain.GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "Ukrainian",
	}
}

// newTestRuntime creates a runtime over a file store in a temp dir and stops
// it when the test ends.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	return newTestRuntimeWithStore(t, filestore.New(t.TempDir(), testLogger()))
}

func newTestRuntimeWithStore(t *testing.T, s store.QueueStore) *Runtime {
	t.Helper()
	rt := NewRuntime(s, task.TaskRunnerConfig{}, metrics.New(nil), testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Close(ctx)
	})
	return rt
}

func newTestReplenisher(t *testing.T, rt *Runtime, gen generation.Generator) *Replenisher {
	t.Helper()
	rep, err := NewReplenisher(rt, gen, testConfig(), DefaultOptions())
	require.NoError(t, err)
	return rep
}

// waitForIdle waits until no key is pinned, i.e. every job has finished.
func waitForIdle(t *testing.T, rt *Runtime) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return rt.Coordinator.Len() == 0
	}, 5*time.Second, 5*time.Millisecond, "replenishment jobs did not finish")
}
