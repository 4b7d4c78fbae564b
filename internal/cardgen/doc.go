// Package cardgen turns a slow card generator into a fast, durable queue of
// cards per seed.
//
// A Replenisher serves one card at a time from the queue stored for a seed
// and keeps that queue topped up in the background: when it runs low a bulk
// job refills it, and when it is empty a small fast job bounds the wait.
// The Coordinator serializes queue access per key and tracks the jobs in
// flight so that at most one bulk and one fast job run per key.
//
// NextCardFactory maps each seed of one rendering pass to a single generated
// card, falling back to the seed itself, and FactoryCache hands out one
// factory per session and generator configuration.
package cardgen
