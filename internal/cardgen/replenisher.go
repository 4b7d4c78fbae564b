package cardgen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
	"github.com/phrazzld/phrasify/internal/metrics"
	"github.com/phrazzld/phrasify/internal/store"
	"github.com/phrazzld/phrasify/internal/task"
)

// Task types of replenishment jobs.
const (
	TaskTypeBulkReplenish = "bulk_replenish"
	TaskTypeFastReplenish = "fast_replenish"
)

// Default replenishment thresholds.
const (
	DefaultLowWaterMark  = 3
	DefaultFastBatchSize = 1
)

// Options tune when and how much a Replenisher generates.
type Options struct {
	// LowWaterMark is the queue length below which a bulk job is started.
	LowWaterMark int

	// FastBatchSize is how many cards the fast job asks for when the queue
	// is empty.
	FastBatchSize int

	// BulkBatchSize is how many cards a bulk job asks for. Zero means the
	// generator's default batch size.
	BulkBatchSize int
}

// DefaultOptions returns the thresholds phrasify ships with.
func DefaultOptions() Options {
	return Options{
		LowWaterMark:  DefaultLowWaterMark,
		FastBatchSize: DefaultFastBatchSize,
	}
}

// Validate checks the options are in range.
func (o Options) Validate() error {
	if o.LowWaterMark < 0 {
		return fmt.Errorf("%w: low water mark must not be negative, got %d", ErrInvalidOptions, o.LowWaterMark)
	}
	if o.FastBatchSize < 1 {
		return fmt.Errorf("%w: fast batch size must be at least 1, got %d", ErrInvalidOptions, o.FastBatchSize)
	}
	if o.BulkBatchSize < 0 {
		return fmt.Errorf("%w: bulk batch size must not be negative, got %d", ErrInvalidOptions, o.BulkBatchSize)
	}
	return nil
}

// Replenisher serves generated cards for seeds under one generator
// configuration. It keeps no state of its own: queues live in the store and
// locks and jobs in the runtime's coordinator, so a Replenisher can be
// recreated at any time without losing cards.
type Replenisher struct {
	rt     *Runtime
	gen    generation.Generator
	config domain.GeneratorConfig
	opts   Options
	name   string
	logger *slog.Logger
}

// NewReplenisher creates a replenisher drawing cards from gen for cfg.
func NewReplenisher(
	rt *Runtime,
	gen generation.Generator,
	cfg domain.GeneratorConfig,
	opts Options,
) (*Replenisher, error) {
	if rt == nil || rt.Store == nil || rt.Runner == nil || rt.Coordinator == nil {
		return nil, fmt.Errorf("%w: incomplete runtime", ErrInvalidOptions)
	}
	if gen == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.BulkBatchSize == 0 {
		opts.BulkBatchSize = gen.DefaultBatchSize()
	}

	name := cfg.PathFriendly()
	logger := rt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Replenisher{
		rt:     rt,
		gen:    gen,
		config: cfg,
		opts:   opts,
		name:   name,
		logger: logger.With(slog.String("component", "replenisher"), slog.String("cache", name)),
	}, nil
}

// Name returns the cache name, the prefix shared by all of this
// replenisher's queues.
func (r *Replenisher) Name() string {
	return r.name
}

// Config returns the generator configuration the replenisher serves.
func (r *Replenisher) Config() domain.GeneratorConfig {
	return r.config
}

// Key returns the queue key for seed.
func (r *Replenisher) Key(seed domain.TranslationCard) store.Key {
	return store.Key{Name: r.name, Fingerprint: domain.NewFingerprint(seed, r.config)}
}

// Next pops the front card of seed's queue.
//
// When the queue is shorter than the low water mark a bulk job is started in
// the background. When it is empty a fast job is started as well and Next
// waits for whichever job finishes first, and for the remaining jobs of the
// key if a concurrent caller took that job's cards. If the queue is still
// empty once no job is left, Next returns ErrExhausted; generator errors are
// never returned.
// Store failures are returned wrapped in store.ErrIO.
func (r *Replenisher) Next(ctx context.Context, seed domain.TranslationCard) (domain.TranslationCard, error) {
	key := r.Key(seed)
	state := r.rt.Coordinator.Acquire(key.String())
	defer state.Release()

	for attempt := 0; ; attempt++ {
		queued, err := r.read(ctx, state, key)
		if err != nil {
			return domain.TranslationCard{}, err
		}

		if queued < r.opts.LowWaterMark {
			r.ensureJob(state, key, seed, TaskTypeBulkReplenish, r.opts.BulkBatchSize)
		}

		waited := false
		if queued == 0 {
			r.ensureJob(state, key, seed, TaskTypeFastReplenish, r.opts.FastBatchSize)

			if pending := state.Jobs().Pending(); len(pending) > 0 {
				r.logger.DebugContext(ctx, "queue empty, waiting for replenishment",
					slog.String("key", key.String()),
					slog.Int("jobs", len(pending)))
				if _, err := r.rt.Runner.WaitFirst(ctx, pending...); err != nil {
					r.rt.Metrics.Exhausted(r.name)
					return domain.TranslationCard{}, fmt.Errorf("%w: %w", ErrExhausted, err)
				}
				waited = true
			}
		}

		card, ok, err := r.pop(ctx, state, key)
		if err != nil {
			return domain.TranslationCard{}, err
		}

		// A concurrent caller took what the finished job produced. Jobs
		// still in flight (typically the bulk batch) may yet fill the
		// queue; only give up once none are left.
		for !ok && waited {
			pending := state.Jobs().Pending()
			if len(pending) == 0 {
				break
			}
			if _, err := r.rt.Runner.WaitFirst(ctx, pending...); err != nil {
				r.rt.Metrics.Exhausted(r.name)
				return domain.TranslationCard{}, fmt.Errorf("%w: %w", ErrExhausted, err)
			}
			if card, ok, err = r.pop(ctx, state, key); err != nil {
				return domain.TranslationCard{}, err
			}
		}
		if ok {
			r.rt.Metrics.CardServed(r.name)
			return card, nil
		}

		// An empty queue we did not wait on was drained by a concurrent
		// caller between the read and the pop; go around once more.
		if waited || attempt > 0 {
			r.logger.WarnContext(ctx, "failed to generate cards",
				slog.String("key", key.String()),
				slog.String("seed", seed.Source))
			r.rt.Metrics.Exhausted(r.name)
			return domain.TranslationCard{}, fmt.Errorf("%w: %s", ErrExhausted, key)
		}
	}
}

// ClearCache deletes every queue of this replenisher's cache name.
func (r *Replenisher) ClearCache(ctx context.Context) (int, error) {
	return r.rt.Store.Clear(ctx, r.name)
}

func (r *Replenisher) read(ctx context.Context, state *KeyState, key store.Key) (int, error) {
	unlock := state.Lock()
	defer unlock()

	cards, err := r.rt.Store.Read(ctx, key)
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

func (r *Replenisher) pop(ctx context.Context, state *KeyState, key store.Key) (domain.TranslationCard, bool, error) {
	unlock := state.Lock()
	defer unlock()

	cards, err := r.rt.Store.Read(ctx, key)
	if err != nil {
		return domain.TranslationCard{}, false, err
	}
	if len(cards) == 0 {
		return domain.TranslationCard{}, false, nil
	}

	if err := r.rt.Store.Write(ctx, key, cards[1:]); err != nil {
		return domain.TranslationCard{}, false, err
	}
	return cards[0], true, nil
}

// ensureJob starts a job of the given kind for key unless one is running.
func (r *Replenisher) ensureJob(state *KeyState, key store.Key, seed domain.TranslationCard, kind string, n int) {
	_, started, err := state.Jobs().StartIfAbsent(kind, func() (*task.Handle, error) {
		job := &replenishJob{
			id:    uuid.New(),
			kind:  kind,
			n:     n,
			key:   key,
			seed:  seed,
			owner: r,
			state: r.rt.Coordinator.Acquire(key.String()),
		}
		h, err := r.rt.Runner.Submit(job)
		if err != nil {
			job.state.Release()
			return nil, err
		}
		return h, nil
	})
	if err != nil {
		r.logger.Error("failed to start replenishment",
			slog.String("kind", kind),
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		return
	}
	if started {
		r.rt.Metrics.JobStarted(metricKind(kind))
		r.logger.Debug("started replenishment",
			slog.String("kind", kind),
			slog.String("key", key.String()),
			slog.Int("n_cards", n))
	}
}

// replenishJob generates cards for one key and appends them to its queue.
type replenishJob struct {
	id    uuid.UUID
	kind  string
	n     int
	key   store.Key
	seed  domain.TranslationCard
	owner *Replenisher
	state *KeyState
}

func (j *replenishJob) ID() uuid.UUID { return j.id }

func (j *replenishJob) Type() string { return j.kind }

// Execute calls the generator and, on success, appends its cards to the
// queue under the key lock. It always removes itself from the key's job set
// and unpins the key, so waiters see the queue in its final state.
func (j *replenishJob) Execute(ctx context.Context) (err error) {
	start := time.Now()
	produced := 0
	defer func() {
		j.state.Jobs().Remove(j.kind, j.id)
		j.state.Release()
		j.owner.rt.Metrics.JobFinished(metricKind(j.kind), time.Since(start), produced, err)
	}()

	cards, err := j.owner.gen.GenerateCards(ctx, j.seed, j.n)
	if err != nil {
		return fmt.Errorf("%s for %s: %w", j.kind, j.key, err)
	}

	unlock := j.state.Lock()
	defer unlock()

	queue, err := j.owner.rt.Store.Read(ctx, j.key)
	if err != nil {
		return fmt.Errorf("%s for %s: %w", j.kind, j.key, err)
	}
	if err := j.owner.rt.Store.Write(ctx, j.key, append(queue, cards...)); err != nil {
		return fmt.Errorf("%s for %s: %w", j.kind, j.key, err)
	}

	produced = len(cards)
	j.owner.logger.Debug("extended queue",
		slog.String("key", j.key.String()),
		slog.String("kind", j.kind),
		slog.Int("new_cards", produced),
		slog.Int("queued", len(queue)+produced))
	return nil
}

func metricKind(taskType string) string {
	if taskType == TaskTypeFastReplenish {
		return metrics.KindFast
	}
	return metrics.KindBulk
}
