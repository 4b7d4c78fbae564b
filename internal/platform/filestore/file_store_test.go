package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(source string) store.Key {
	cfg := domain.GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "Ukrainian",
	}
	return store.NewKey(domain.NewTranslationCard(source, "target"), cfg)
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		cards []domain.TranslationCard
	}{
		{name: "zero cards", cards: []domain.TranslationCard{}},
		{name: "one card", cards: []domain.TranslationCard{
			{Source: "She has many friends.", Target: "У неї багато друзів."},
		}},
		{name: "many cards", cards: []domain.TranslationCard{
			{Source: "one", Target: "один"},
			{Source: "two", Target: "два"},
			{Source: "three", Target: "три"},
			{Source: "four <b>&</b>", Target: "чотири \"лапки\""},
			{Source: "五", Target: "п'ять\nрядок"},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := New(t.TempDir(), nil)
			key := testKey(tc.name)

			require.NoError(t, fs.Write(context.Background(), key, tc.cards))

			got, err := fs.Read(context.Background(), key)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.cards, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileStoreReadMissingIsEmpty(t *testing.T) {
	t.Parallel()

	fs := New(filepath.Join(t.TempDir(), "not", "created"), nil)

	cards, err := fs.Read(context.Background(), testKey("friend"))
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestFileStoreWriteCreatesDirectories(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "generated", "nested")
	fs := New(dir, nil)
	key := testKey("friend")

	require.NoError(t, fs.Write(context.Background(), key, []domain.TranslationCard{{Source: "a", Target: "b"}}))

	assert.FileExists(t, filepath.Join(dir, key.String()+".json"))
	assert.Equal(t, filepath.Join(dir, key.String()+".json"), fs.Location(key))
}

func TestFileStoreWritesPlainJSONArray(t *testing.T) {
	t.Parallel()

	fs := New(t.TempDir(), nil)
	key := testKey("friend")
	require.NoError(t, fs.Write(context.Background(), key, []domain.TranslationCard{
		{Source: "friend", Target: "друг"},
	}))

	data, err := os.ReadFile(fs.Location(key))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"source": "friend", "target": "друг"}]`, string(data))
	assert.Contains(t, string(data), "друг", "non-ASCII text is stored unescaped")

	require.NoError(t, fs.Write(context.Background(), key, nil))
	data, err = os.ReadFile(fs.Location(key))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileStoreWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := New(dir, nil)
	key := testKey("friend")

	for i := 0; i < 3; i++ {
		require.NoError(t, fs.Write(context.Background(), key, []domain.TranslationCard{{Source: "a", Target: "b"}}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key.String()+".json", entries[0].Name())
}

func TestFileStoreReadCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := New(dir, nil)
	key := testKey("friend")
	require.NoError(t, os.WriteFile(fs.Location(key), []byte(`[{"source": "unterminated`), 0o644))

	_, err := fs.Read(context.Background(), key)
	assert.ErrorIs(t, err, store.ErrCorrupt)
	assert.ErrorIs(t, err, store.ErrIO)
}

func TestFileStoreReadEmptyFile(t *testing.T) {
	t.Parallel()

	fs := New(t.TempDir(), nil)
	key := testKey("friend")
	require.NoError(t, os.WriteFile(fs.Location(key), []byte("\n"), 0o644))

	cards, err := fs.Read(context.Background(), key)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestFileStoreInvalidKey(t *testing.T) {
	t.Parallel()

	fs := New(t.TempDir(), nil)

	_, err := fs.Read(context.Background(), store.Key{})
	assert.ErrorIs(t, err, store.ErrInvalidKey)
	assert.ErrorIs(t, fs.Write(context.Background(), store.Key{Name: "x"}, nil), store.ErrInvalidKey)
}

func TestFileStoreClear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := New(dir, nil)
	ctx := context.Background()
	card := []domain.TranslationCard{{Source: "a", Target: "b"}}

	keep := store.Key{Name: "gpt_vocab_English_Ukrainian_extra", Fingerprint: "friend-01"}
	drop1 := store.Key{Name: "gpt_vocab_English_Ukrainian", Fingerprint: "friend-02"}
	drop2 := store.Key{Name: "gpt_vocab_English_Ukrainian", Fingerprint: "house-03"}
	other := store.Key{Name: "gpt_vocab_English_German", Fingerprint: "house-04"}
	for _, key := range []store.Key{keep, drop1, drop2, other} {
		require.NoError(t, fs.Write(ctx, key, card))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	removed, err := fs.Clear(ctx, "gpt_vocab_English_Ukrainian")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, fs.Location(drop1))
	assert.NoFileExists(t, fs.Location(drop2))
	assert.FileExists(t, fs.Location(keep))
	assert.FileExists(t, fs.Location(other))

	removed, err = fs.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestFileStoreClearMissingDir(t *testing.T) {
	t.Parallel()

	fs := New(filepath.Join(t.TempDir(), "missing"), nil)

	removed, err := fs.Clear(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFileStoreStats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := New(dir, nil)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, testKey("one"), []domain.TranslationCard{{Source: "a", Target: "b"}}))
	require.NoError(t, fs.Write(ctx, testKey("two"), []domain.TranslationCard{
		{Source: "a", Target: "b"},
		{Source: "c", Target: "d"},
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_x.json"), []byte("{"), 0o644))

	stats, err := fs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Queues)
	assert.Equal(t, 3, stats.Cards)
	assert.Positive(t, stats.Bytes)
}

func TestFileStoreHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	fs := New(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.Read(ctx, testKey("friend"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, fs.Write(ctx, testKey("friend"), nil), context.Canceled)
}

func TestFileStoreQueues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := New(dir, nil)
	ctx := context.Background()

	one, two := testKey("one"), testKey("two")
	require.NoError(t, fs.Write(ctx, one, []domain.TranslationCard{{Source: "a", Target: "b"}}))
	require.NoError(t, fs.Write(ctx, two, []domain.TranslationCard{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_x.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nokey.json"), []byte("[]"), 0o644))

	queues, err := fs.Queues(ctx)
	require.NoError(t, err)

	got := map[store.Key][]domain.TranslationCard{}
	for _, q := range queues {
		got[q.Key] = q.Cards
	}
	want := map[store.Key][]domain.TranslationCard{
		one: {{Source: "a", Target: "b"}},
		two: {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Queues() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key := testKey("friend")
	got, ok := parseKey(key.String() + fileExt)
	require.True(t, ok)
	assert.Equal(t, key, got)

	for _, base := range []string{"nokey.json", "_leading.json", "trailing_.json"} {
		_, ok := parseKey(base)
		assert.False(t, ok, base)
	}
}
