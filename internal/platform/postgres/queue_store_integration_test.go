//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/platform/postgres"
	"github.com/phrazzld/phrasify/internal/store"
	"github.com/phrazzld/phrasify/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTx runs fn against a store inside a rolled back transaction.
func withTx(t *testing.T, fn func(t *testing.T, s *postgres.QueueStore)) {
	t.Helper()
	db := testdb.GetTestDBWithT(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		fn(t, postgres.NewQueueStore(tx, nil))
	})
}

func TestQueueStoreRoundTripIntegration(t *testing.T) {
	withTx(t, func(t *testing.T, s *postgres.QueueStore) {
		ctx := context.Background()
		key := store.Key{Name: "integration_prompt_english_ukrainian", Fingerprint: "friend-00112233aabbccdd"}

		tests := []struct {
			name  string
			cards []domain.TranslationCard
		}{
			{name: "zero", cards: []domain.TranslationCard{}},
			{name: "one", cards: []domain.TranslationCard{{Source: "friend", Target: "друг"}}},
			{name: "many", cards: []domain.TranslationCard{
				{Source: "a", Target: "б"},
				{Source: "quote \" and \\ backslash", Target: "emoji 🙂"},
				{Source: "c", Target: "в"},
			}},
		}
		for _, tt := range tests {
			require.NoError(t, s.Write(ctx, key, tt.cards), tt.name)
			got, err := s.Read(ctx, key)
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.cards, got, tt.name)
		}

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.Queues, 1)
		assert.GreaterOrEqual(t, stats.Cards, 3)

		removed, err := s.Clear(ctx, key.Name)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		got, err := s.Read(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
