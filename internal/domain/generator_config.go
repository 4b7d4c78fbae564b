package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Defaults for a GeneratorConfig, matching the values phrasify ships with.
const (
	DefaultNCards         = 5
	DefaultSourceLanguage = "English"
	DefaultTargetLanguage = "Ukrainian"
)

// nameDigestBytes is how much of the BLAKE2b-256 digest disambiguates a
// lossy cache name.
const nameDigestBytes = 6

// GeneratorConfig describes how cards are generated: which model, which
// prompt, how many cards per batch and between which languages.
//
// GeneratorConfig is comparable and is always compared by value; two configs
// built independently with the same fields are interchangeable.
type GeneratorConfig struct {
	LLM            string `json:"llm" mapstructure:"llm" validate:"required"`
	PromptName     string `json:"prompt_name" mapstructure:"prompt_name" validate:"required"`
	NCards         int    `json:"n_cards" mapstructure:"n_cards" validate:"gte=1"`
	SourceLanguage string `json:"source_language" mapstructure:"source_language" validate:"required"`
	TargetLanguage string `json:"target_language" mapstructure:"target_language" validate:"required"`
}

// Validate checks that the config has everything needed to generate cards.
func (c GeneratorConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.LLM) == "" {
		missing = append(missing, "llm")
	}
	if strings.TrimSpace(c.PromptName) == "" {
		missing = append(missing, "prompt_name")
	}
	if strings.TrimSpace(c.SourceLanguage) == "" {
		missing = append(missing, "source_language")
	}
	if strings.TrimSpace(c.TargetLanguage) == "" {
		missing = append(missing, "target_language")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if c.NCards < 1 {
		return fmt.Errorf("%w: n_cards must be at least 1, got %d", ErrValidation, c.NCards)
	}
	return nil
}

// WithDefaults returns a copy of c where zero-valued fields are taken from
// defaults.
func (c GeneratorConfig) WithDefaults(defaults GeneratorConfig) GeneratorConfig {
	if c.LLM == "" {
		c.LLM = defaults.LLM
	}
	if c.PromptName == "" {
		c.PromptName = defaults.PromptName
	}
	if c.NCards == 0 {
		c.NCards = defaults.NCards
	}
	if c.SourceLanguage == "" {
		c.SourceLanguage = defaults.SourceLanguage
	}
	if c.TargetLanguage == "" {
		c.TargetLanguage = defaults.TargetLanguage
	}
	return c
}

// PathFriendly joins the identity fields of the config into a single string
// usable as a file name prefix. The batch size is not part of it: changing
// NCards keeps serving the same queue.
//
// When sanitizing drops characters (non-ASCII language names, slashes) a
// short digest of the raw fields is appended, so two configs never share a
// name and clearing one cache cannot touch another's queues.
func (c GeneratorConfig) PathFriendly() string {
	raw := fmt.Sprintf("%s_%s_%s_%s", c.LLM, c.PromptName, c.SourceLanguage, c.TargetLanguage)
	name := SanitizeToken(raw)
	if name == raw {
		return name
	}
	if strings.Trim(name, "_-") == "" {
		name = "config"
	}
	sum := blake2b.Sum256([]byte(raw))
	return name + "-" + hex.EncodeToString(sum[:nameDigestBytes])
}
