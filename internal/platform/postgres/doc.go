// Package postgres provides a PostgreSQL implementation of store.QueueStore,
// for deployments where several phrasify servers share one cache.
//
// Each queue is one row of the card_queues table holding the cards as a
// JSONB array. The schema is managed with goose migrations embedded in the
// binary (see Migrate). Connections use the pgx database/sql driver.
package postgres
