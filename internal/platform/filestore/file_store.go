package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/store"
)

const fileExt = ".json"

// FileStore implements store.QueueStore on top of a directory of JSON files.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// Ensure FileStore implements store.QueueStore interface
var _ store.QueueStore = (*FileStore)(nil)

// New creates a FileStore rooted at dir. The directory is created lazily on
// the first write. If logger is nil, a default logger will be used.
func New(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With(slog.String("component", "file_store")),
	}
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Location returns the path of the queue file for key.
func (s *FileStore) Location(key store.Key) string {
	return filepath.Join(s.dir, key.String()+fileExt)
}

// Read returns the queued cards for key. A queue that was never written is
// empty; an empty or whitespace-only file is treated the same way.
func (s *FileStore) Read(ctx context.Context, key store.Key) ([]domain.TranslationCard, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Location(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.TranslationCard{}, nil
	}
	if err != nil {
		return nil, store.NewStoreError(key.String(), "read", err)
	}

	cards, err := decode(data)
	if err != nil {
		s.logger.Error("queue file is corrupt",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(key.String(), "read", err)
	}
	return cards, nil
}

// Write replaces the queue for key with cards.
func (s *FileStore) Write(ctx context.Context, key store.Key, cards []domain.TranslationCard) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(cards)
	if err != nil {
		return store.NewStoreError(key.String(), "write", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return store.NewStoreError(key.String(), "write", err)
	}
	if err := writeFileAtomic(s.Location(key), data); err != nil {
		return store.NewStoreError(key.String(), "write", err)
	}

	s.logger.Debug("queue written",
		slog.String("key", key.String()),
		slog.Int("cards", len(cards)))
	return nil
}

// Clear deletes the queue files of the given cache name, or every queue file
// in the directory when name is empty.
func (s *FileStore) Clear(ctx context.Context, name string) (int, error) {
	paths, err := s.queueFiles(name)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, store.NewStoreError(filepath.Base(path), "clear", err)
		}
		removed++
	}

	s.logger.Info("cleared queue files",
		slog.String("dir", s.dir),
		slog.String("name", name),
		slog.Int("removed", removed))
	return removed, nil
}

// Stats counts the queue files, the cards they hold and their size on disk.
// Corrupt files are counted by size but contribute no cards.
func (s *FileStore) Stats(ctx context.Context) (store.Stats, error) {
	var stats store.Stats

	paths, err := s.queueFiles("")
	if err != nil {
		return stats, err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return stats, store.NewStoreError(filepath.Base(path), "stats", err)
		}

		stats.Queues++
		stats.Bytes += int64(len(data))
		if cards, err := decode(data); err == nil {
			stats.Cards += len(cards)
		}
	}
	return stats, nil
}

// Queues returns every readable queue in the directory. Corrupt files are
// skipped and logged.
func (s *FileStore) Queues(ctx context.Context) ([]store.Queue, error) {
	paths, err := s.queueFiles("")
	if err != nil {
		return nil, err
	}

	queues := make([]store.Queue, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, ok := parseKey(filepath.Base(path))
		if !ok {
			s.logger.Warn("skipping queue file with unexpected name", slog.String("path", path))
			continue
		}
		cards, err := s.Read(ctx, key)
		if errors.Is(err, store.ErrCorrupt) {
			s.logger.Warn("skipping corrupt queue file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		if err != nil {
			return nil, err
		}
		queues = append(queues, store.Queue{Key: key, Cards: cards})
	}
	return queues, nil
}

// parseKey splits a queue file name at its last underscore, which is never
// part of a fingerprint.
func parseKey(base string) (store.Key, bool) {
	stem := strings.TrimSuffix(base, fileExt)
	i := strings.LastIndex(stem, "_")
	if i <= 0 || i == len(stem)-1 {
		return store.Key{}, false
	}
	return store.Key{Name: stem[:i], Fingerprint: domain.Fingerprint(stem[i+1:])}, true
}

// queueFiles lists the queue files for name. Fingerprints never contain an
// underscore, so a file belongs to name exactly when its base name is
// "<name>_<rest>" with no underscore in rest.
func (s *FileStore) queueFiles(name string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStoreError("", "list", err)
	}

	var paths []string
	for _, entry := range entries {
		base := entry.Name()
		if entry.IsDir() || strings.HasPrefix(base, ".") || !strings.HasSuffix(base, fileExt) {
			continue
		}
		if name != "" {
			rest, ok := strings.CutPrefix(strings.TrimSuffix(base, fileExt), name+"_")
			if !ok || rest == "" || strings.Contains(rest, "_") {
				continue
			}
		}
		paths = append(paths, filepath.Join(s.dir, base))
	}
	return paths, nil
}

func decode(data []byte) ([]domain.TranslationCard, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.TranslationCard{}, nil
	}

	var cards []domain.TranslationCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrCorrupt, err)
	}
	if cards == nil {
		cards = []domain.TranslationCard{}
	}
	return cards, nil
}

func encode(cards []domain.TranslationCard) ([]byte, error) {
	if cards == nil {
		cards = []domain.TranslationCard{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cards); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
