package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/phrasify/internal/store"
)

// Import writes queues into the card_queues table in a single transaction,
// replacing queues with the same key. Either every queue is written or none
// is.
func Import(ctx context.Context, db *sql.DB, queues []store.Queue, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cards := 0
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		s := NewQueueStore(tx, logger)
		for _, q := range queues {
			if err := s.Write(ctx, q.Key, q.Cards); err != nil {
				return err
			}
			cards += len(q.Cards)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("imported queues",
		slog.Int("queues", len(queues)),
		slog.Int("cards", cards))
	return len(queues), nil
}
