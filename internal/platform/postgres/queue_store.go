package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/platform/logger"
	"github.com/phrazzld/phrasify/internal/store"
)

// TableName is the table holding the queues.
const TableName = "card_queues"

// QueueStore implements store.QueueStore on a card_queues table.
type QueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure QueueStore implements store.QueueStore interface
var _ store.QueueStore = (*QueueStore)(nil)

// NewQueueStore creates a QueueStore on db, which may be a *sql.DB or a
// *sql.Tx. If logger is nil, a default logger will be used.
func NewQueueStore(db store.DBTX, logger *slog.Logger) *QueueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "queue_store")),
	}
}

// Location implements store.QueueStore.
func (s *QueueStore) Location(key store.Key) string {
	return fmt.Sprintf("%s(name=%s, fingerprint=%s)", TableName, key.Name, key.Fingerprint)
}

// Read implements store.QueueStore.
// A missing row is an empty queue.
func (s *QueueStore) Read(ctx context.Context, key store.Key) ([]domain.TranslationCard, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT cards
		FROM card_queues
		WHERE name = $1 AND fingerprint = $2
	`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, key.Name, string(key.Fingerprint)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.TranslationCard{}, nil
	}
	if err != nil {
		log.Error("failed to read queue",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		return nil, MapError(key.String(), "read", err)
	}

	cards, err := decodeCards(raw)
	if err != nil {
		log.Error("queue row is corrupt",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(key.String(), "read", err)
	}
	return cards, nil
}

// Write implements store.QueueStore.
// The row is upserted in a single statement, so readers never see a partial
// queue.
func (s *QueueStore) Write(ctx context.Context, key store.Key, cards []domain.TranslationCard) error {
	if err := key.Validate(); err != nil {
		return err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	if cards == nil {
		cards = []domain.TranslationCard{}
	}
	raw, err := json.Marshal(cards)
	if err != nil {
		return store.NewStoreError(key.String(), "write", err)
	}

	query := `
		INSERT INTO card_queues (name, fingerprint, cards, card_count, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name, fingerprint)
		DO UPDATE SET cards = EXCLUDED.cards, card_count = EXCLUDED.card_count, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, key.Name, string(key.Fingerprint), string(raw), len(cards)); err != nil {
		log.Error("failed to write queue",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		return MapError(key.String(), "write", err)
	}

	log.Debug("queue written",
		slog.String("key", key.String()),
		slog.Int("cards", len(cards)))
	return nil
}

// Clear implements store.QueueStore.
func (s *QueueStore) Clear(ctx context.Context, name string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		result sql.Result
		err    error
	)
	if name == "" {
		result, err = s.db.ExecContext(ctx, `DELETE FROM card_queues`)
	} else {
		result, err = s.db.ExecContext(ctx, `DELETE FROM card_queues WHERE name = $1`, name)
	}
	if err != nil {
		return 0, MapError(name, "clear", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(name, "clear", err)
	}

	log.Info("cleared queues",
		slog.String("name", name),
		slog.Int64("removed", removed))
	return int(removed), nil
}

// Stats implements store.QueueStore.
// Bytes is the size of the stored JSON text.
func (s *QueueStore) Stats(ctx context.Context) (store.Stats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(card_count), 0), COALESCE(SUM(OCTET_LENGTH(cards::text)), 0)
		FROM card_queues
	`
	var stats store.Stats
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Queues, &stats.Cards, &stats.Bytes); err != nil {
		return store.Stats{}, MapError("", "stats", err)
	}
	return stats, nil
}

func decodeCards(raw []byte) ([]domain.TranslationCard, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.TranslationCard{}, nil
	}
	var cards []domain.TranslationCard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}
	if cards == nil {
		cards = []domain.TranslationCard{}
	}
	return cards, nil
}
