// Package store defines how queues of generated cards are persisted.
//
// A queue is identified by a Key (cache name plus fingerprint) and holds an
// ordered list of cards, front first. Implementations live under
// internal/platform: a JSON file per key (filestore) and a PostgreSQL table
// (postgres). None of them lock; callers serialize access per key.
package store
