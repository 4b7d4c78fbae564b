package generation

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/phrazzld/phrasify/internal/domain"
)

const (
	promptExt = ".txt"

	// DefaultPromptCacheSize bounds the number of parsed templates kept.
	DefaultPromptCacheSize = 32
)

//go:embed prompts/*.txt
var builtinPrompts embed.FS

// PromptLoader loads prompt templates by name.
//
// A prompt named "x" is read from <dir>/x.txt, falling back to the prompts
// bundled with the binary. Parsed templates are kept in an LRU cache; Watch
// evicts a template as soon as its file changes on disk.
type PromptLoader struct {
	dir    string
	cache  *lru.Cache[string, *template.Template]
	logger *slog.Logger
}

// NewPromptLoader creates a loader reading from dir. An empty dir only serves
// the bundled prompts.
func NewPromptLoader(dir string, cacheSize int, logger *slog.Logger) (*PromptLoader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultPromptCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, *template.Template](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt cache: %w", ErrInvalidConfig, err)
	}

	return &PromptLoader{
		dir:    dir,
		cache:  cache,
		logger: logger.With(slog.String("component", "prompt_loader")),
	}, nil
}

// Load returns the parsed template for the prompt called name.
func (l *PromptLoader) Load(name string) (*template.Template, error) {
	if name == "" || domain.SanitizeToken(name) != name {
		return nil, fmt.Errorf("%w: invalid prompt name %q", ErrInvalidConfig, name)
	}
	if tmpl, ok := l.cache.Get(name); ok {
		return tmpl, nil
	}

	text, source, err := l.read(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing prompt %q: %w", ErrInvalidConfig, name, err)
	}

	l.cache.Add(name, tmpl)
	l.logger.Debug("loaded prompt", slog.String("name", name), slog.String("source", source))
	return tmpl, nil
}

// Names lists the prompts available from the directory and the bundled set.
func (l *PromptLoader) Names() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(entries []fs.DirEntry) {
		for _, entry := range entries {
			name, ok := strings.CutSuffix(entry.Name(), promptExt)
			if !ok || entry.IsDir() || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	if l.dir != "" {
		if entries, err := os.ReadDir(l.dir); err == nil {
			add(entries)
		}
	}
	if entries, err := builtinPrompts.ReadDir("prompts"); err == nil {
		add(entries)
	}
	return names
}

func (l *PromptLoader) read(name string) (text, source string, err error) {
	if l.dir != "" {
		path := filepath.Join(l.dir, name+promptExt)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("%w: reading prompt %q: %w", ErrInvalidConfig, name, err)
		}
	}

	data, err := builtinPrompts.ReadFile("prompts/" + name + promptExt)
	if err != nil {
		return "", "", fmt.Errorf("%w: unknown prompt %q", ErrInvalidConfig, name)
	}
	return string(data), "builtin", nil
}

// Watch evicts cached templates whose files change in the prompt directory
// until ctx is done. It returns once the watcher is set up.
func (l *PromptLoader) Watch(ctx context.Context) error {
	if l.dir == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create prompt watcher: %w", err)
	}
	if err := w.Add(l.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %q: %w", l.dir, err)
	}

	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name, isPrompt := strings.CutSuffix(filepath.Base(ev.Name), promptExt)
				if !isPrompt {
					continue
				}
				if l.cache.Remove(name) {
					l.logger.Info("prompt changed, evicted from cache",
						slog.String("name", name),
						slog.String("op", ev.Op.String()))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Error("prompt watcher failed", slog.String("error", err.Error()))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
