package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/phrasify/internal/domain"
)

// Key identifies one queue: the cache name of a generator configuration and
// the fingerprint of one seed card under that configuration.
type Key struct {
	Name        string
	Fingerprint domain.Fingerprint
}

// NewKey builds the key for seed under cfg.
func NewKey(seed domain.TranslationCard, cfg domain.GeneratorConfig) Key {
	return Key{
		Name:        cfg.PathFriendly(),
		Fingerprint: domain.NewFingerprint(seed, cfg),
	}
}

// String returns "<name>_<fingerprint>", the base name of the queue's file
// and the key under which its lock is held.
func (k Key) String() string {
	return k.Name + "_" + string(k.Fingerprint)
}

// Validate reports whether the key can address a queue.
func (k Key) Validate() error {
	if k.Name == "" || k.Fingerprint == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k.String())
	}
	return nil
}

// Queue is one stored queue, as listed by a store that can enumerate its
// contents.
type Queue struct {
	Key   Key
	Cards []domain.TranslationCard
}

// Stats summarizes what is currently queued in a store.
type Stats struct {
	Queues int   `json:"queues"`
	Cards  int   `json:"cards"`
	Bytes  int64 `json:"bytes"`
}

// QueueStore persists card queues.
//
// Read returns an empty slice, not an error, for a queue that was never
// written. Write replaces the whole queue atomically. Implementations do not
// lock: concurrent Read/Write pairs on the same key must be serialized by the
// caller.
type QueueStore interface {
	// Location describes where the queue for key lives (a file path or a
	// table row reference), for logs and the CLI.
	Location(key Key) string

	Read(ctx context.Context, key Key) ([]domain.TranslationCard, error)

	Write(ctx context.Context, key Key, cards []domain.TranslationCard) error

	// Clear removes every queue with the given cache name, or every queue
	// when name is empty, and returns how many were removed.
	Clear(ctx context.Context, name string) (int, error)

	Stats(ctx context.Context) (Stats, error)
}
