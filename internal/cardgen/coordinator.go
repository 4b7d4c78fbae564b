package cardgen

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/phrazzld/phrasify/internal/task"
)

const coordinatorShards = 32

// Coordinator owns one lock and one job set per queue key.
//
// States are reference counted: Acquire pins the state of a key and Release
// unpins it. While a key is pinned every Acquire returns the same *KeyState;
// once the last holder releases it, the state is dropped so the map only
// holds keys that are in use.
type Coordinator struct {
	shards [coordinatorShards]coordinatorShard
}

type coordinatorShard struct {
	mu     sync.Mutex
	states map[string]*KeyState
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	c := &Coordinator{}
	for i := range c.shards {
		c.shards[i].states = make(map[string]*KeyState)
	}
	return c
}

func (c *Coordinator) shard(key string) *coordinatorShard {
	return &c.shards[xxhash.Sum64String(key)%coordinatorShards]
}

// Acquire returns the state for key, creating it if needed, and pins it.
// Every Acquire must be paired with exactly one Release.
func (c *Coordinator) Acquire(key string) *KeyState {
	sh := c.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	st, ok := sh.states[key]
	if !ok {
		st = &KeyState{key: key, shard: sh, jobs: newJobSet()}
		sh.states[key] = st
	}
	st.refs++
	return st
}

// Len returns the number of keys currently pinned.
func (c *Coordinator) Len() int {
	n := 0
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.Lock()
		n += len(sh.states)
		sh.mu.Unlock()
	}
	return n
}

// KeyState is the lock and job set of one key.
type KeyState struct {
	key   string
	shard *coordinatorShard
	refs  int // guarded by shard.mu

	mu   sync.Mutex
	jobs *JobSet
}

// Key returns the key this state belongs to.
func (s *KeyState) Key() string {
	return s.key
}

// Lock acquires the queue lock of the key and returns the function that
// releases it.
func (s *KeyState) Lock() (unlock func()) {
	s.mu.Lock()
	return s.mu.Unlock
}

// Jobs returns the replenishment jobs in flight for the key.
func (s *KeyState) Jobs() *JobSet {
	return s.jobs
}

// Release unpins the state.
func (s *KeyState) Release() {
	sh := s.shard
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s.refs--
	if s.refs <= 0 && sh.states[s.key] == s {
		delete(sh.states, s.key)
	}
}

// JobSet holds at most one job handle per kind.
type JobSet struct {
	mu   sync.Mutex
	jobs map[string]*task.Handle
}

func newJobSet() *JobSet {
	return &JobSet{jobs: make(map[string]*task.Handle)}
}

// Get returns the job of the given kind, or nil.
func (j *JobSet) Get(kind string) *task.Handle {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jobs[kind]
}

// StartIfAbsent calls start and records the handle it returns, unless a job
// of that kind is already tracked, in which case that job is returned and
// started is false. The check and the insert are atomic.
func (j *JobSet) StartIfAbsent(
	kind string,
	start func() (*task.Handle, error),
) (h *task.Handle, started bool, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if existing, ok := j.jobs[kind]; ok {
		return existing, false, nil
	}
	h, err = start()
	if err != nil {
		return nil, false, err
	}
	j.jobs[kind] = h
	return h, true, nil
}

// Remove forgets the job of the given kind if it is the task with id.
func (j *JobSet) Remove(kind string, id uuid.UUID) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if h, ok := j.jobs[kind]; ok && h.ID() == id {
		delete(j.jobs, kind)
		return true
	}
	return false
}

// Pending returns the tracked jobs ordered by kind.
func (j *JobSet) Pending() []*task.Handle {
	j.mu.Lock()
	defer j.mu.Unlock()

	kinds := make([]string, 0, len(j.jobs))
	for kind := range j.jobs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	handles := make([]*task.Handle, 0, len(kinds))
	for _, kind := range kinds {
		handles = append(handles, j.jobs[kind])
	}
	return handles
}

// Len returns the number of tracked jobs.
func (j *JobSet) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.jobs)
}
