package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/phrasify/internal/cardgen"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/platform/logger"
)

// Prefix marks filter names handled by this package.
const Prefix = "phrasify"

var (
	// ErrInvalidName is returned by ParseName for a malformed filter name.
	ErrInvalidName = errors.New("invalid filter name")

	// ErrUnknownField is returned when a field is neither the source nor the
	// target field.
	ErrUnknownField = errors.New("unknown field")
)

var namePattern = regexp.MustCompile(
	`^phrasify (?P<prompt>[a-zA-Z0-9_-]+) ` +
		`source_lang=(?P<source_lang>[a-zA-Z0-9_-]+) ` +
		`target_lang=(?P<target_lang>[a-zA-Z0-9_-]+) ` +
		`source_field=(?P<source_field>[a-zA-Z0-9_-]+) ` +
		`target_field=(?P<target_field>[a-zA-Z0-9_-]+)`)

// Note maps field names to field values.
type Note map[string]string

// LanguageFieldNames names the note fields holding the word in the source
// and the target language. They form the seed card.
type LanguageFieldNames struct {
	Source string
	Target string
}

// CreateCard builds the seed card from note.
func (n LanguageFieldNames) CreateCard(note Note) (domain.TranslationCard, error) {
	source, ok := note[n.Source]
	if !ok {
		return domain.TranslationCard{}, fmt.Errorf("%w: note has no field %q", ErrUnknownField, n.Source)
	}
	target, ok := note[n.Target]
	if !ok {
		return domain.TranslationCard{}, fmt.Errorf("%w: note has no field %q", ErrUnknownField, n.Target)
	}
	return domain.NewTranslationCard(source, target), nil
}

// FieldText returns the side of card that fieldName shows.
func (n LanguageFieldNames) FieldText(card domain.TranslationCard, fieldName string) (string, error) {
	switch fieldName {
	case n.Source:
		return card.Source, nil
	case n.Target:
		return card.Target, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownField, fieldName)
	}
}

// Config is what a filter name specifies. CardGenerator only carries the
// prompt and languages; the model and batch size come from the defaults
// given to New.
type Config struct {
	CardGenerator domain.GeneratorConfig
	Fields        LanguageFieldNames
}

// ParseName parses a filter name of the form
//
//	phrasify <prompt> source_lang=<l> target_lang=<l> source_field=<f> target_field=<f>
func ParseName(filterName string) (Config, error) {
	m := namePattern.FindStringSubmatch(filterName)
	if m == nil {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidName, filterName)
	}
	group := func(name string) string { return m[namePattern.SubexpIndex(name)] }

	return Config{
		CardGenerator: domain.GeneratorConfig{
			PromptName:     group("prompt"),
			SourceLanguage: group("source_lang"),
			TargetLanguage: group("target_lang"),
		},
		Fields: LanguageFieldNames{
			Source: group("source_field"),
			Target: group("target_field"),
		},
	}, nil
}

// RenderContext is one render pass over a note.
type RenderContext interface {
	Note() Note

	// SessionKey identifies the pass. Fields rendered with the same key get
	// the same card.
	SessionKey() string
}

// Render is a RenderContext for one note.
type Render struct {
	note    Note
	session string
}

// NewRender starts a render pass over note with a fresh session key.
func NewRender(note Note) *Render {
	return &Render{note: note, session: uuid.NewString()}
}

// Note implements RenderContext.
func (r *Render) Note() Note { return r.note }

// SessionKey implements RenderContext.
func (r *Render) SessionKey() string { return r.session }

// Factories hands out the card factory for a session and generator config.
// *cardgen.FactoryCache implements it.
type Factories interface {
	Get(ctx context.Context, session string, cfg domain.GeneratorConfig) (*cardgen.NextCardFactory, error)
}

// Filter applies the phrasify field filter.
type Filter struct {
	factories Factories
	defaults  domain.GeneratorConfig
	logger    *slog.Logger
}

// New creates a filter. defaults fill the generator fields a filter name
// does not set.
func New(factories Factories, defaults domain.GeneratorConfig, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		factories: factories,
		defaults:  defaults,
		logger:    logger.With(slog.String("component", "phrasify_filter")),
	}
}

// Apply returns the text to show for fieldName. Filters not named phrasify
// leave fieldText unchanged. Apply never fails: problems are logged and
// reported in the returned text or answered with fieldText.
func (f *Filter) Apply(ctx context.Context, fieldText, fieldName, filterName string, render RenderContext) string {
	if !strings.HasPrefix(filterName, Prefix) {
		return fieldText
	}
	log := logger.FromContextOrDefault(ctx, f.logger)

	cfg, err := ParseName(filterName)
	if err != nil {
		return InvalidName(filterName)
	}

	if fieldText == "("+fieldName+")" {
		// Template preview: fields hold their own names in parentheses.
		return fmt.Sprintf("(phrasify filter applied to '%s' field)", fieldName)
	}

	seed, err := cfg.Fields.CreateCard(render.Note())
	if err != nil {
		log.WarnContext(ctx, "cannot build seed card", slog.String("error", err.Error()))
		return fieldText
	}

	factory, err := f.factories.Get(ctx, render.SessionKey(), cfg.CardGenerator.WithDefaults(f.defaults))
	if err != nil {
		log.ErrorContext(ctx, "cannot create card factory", slog.String("error", err.Error()))
		return fieldText
	}

	text, err := cfg.Fields.FieldText(factory.Take(ctx, seed), fieldName)
	if err != nil {
		log.WarnContext(ctx, "field is neither source nor target", slog.String("field", fieldName))
		return fieldText
	}

	if strings.TrimSpace(text) == "" {
		log.WarnContext(ctx, "empty field text, returning field text unchanged",
			slog.String("field", fieldName))
		if strings.TrimSpace(fieldText) == "" {
			return fmt.Sprintf("(phrasify filter was applied to an empty field. The LLM will be "+
				"more effective at generating cards if both the '%s' field and the '%s' field "+
				"are filled with words in the source and target languages, respectively.)",
				cfg.Fields.Source, cfg.Fields.Target)
		}
		return fieldText
	}
	return text
}

// InvalidName is the text shown for a malformed phrasify filter name.
func InvalidName(filterName string) string {
	return fmt.Sprintf("(Invalid filter name: %s)", filterName)
}
