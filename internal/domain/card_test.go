package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslationCardJSON(t *testing.T) {
	t.Parallel()

	card := NewTranslationCard("She has many friends.", "У неї багато друзів.")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(card.JSON()), &decoded))
	assert.Equal(t, map[string]string{
		"source": "She has many friends.",
		"target": "У неї багато друзів.",
	}, decoded)

	var roundTripped TranslationCard
	require.NoError(t, json.Unmarshal([]byte(card.JSON()), &roundTripped))
	assert.Equal(t, card, roundTripped)
}

func TestTranslationCardEquality(t *testing.T) {
	t.Parallel()

	a := NewTranslationCard("friend", "друг")
	b := TranslationCard{Source: "friend", Target: "друг"}

	assert.True(t, a == b, "cards with equal fields should be equal")

	seen := map[TranslationCard]int{a: 1}
	assert.Equal(t, 1, seen[b], "cards with equal fields should hash equally")
}

func TestTranslationCardIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, TranslationCard{}.IsEmpty())
	assert.True(t, NewTranslationCard("  ", "\n").IsEmpty())
	assert.False(t, NewTranslationCard("friend", "").IsEmpty())
}

func TestGeneratorConfigValidate(t *testing.T) {
	t.Parallel()

	valid := GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "Ukrainian",
	}

	testCases := []struct {
		name    string
		mutate  func(c *GeneratorConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *GeneratorConfig) {}},
		{name: "missing llm", mutate: func(c *GeneratorConfig) { c.LLM = "" }, wantErr: true},
		{name: "missing prompt", mutate: func(c *GeneratorConfig) { c.PromptName = " " }, wantErr: true},
		{name: "zero cards", mutate: func(c *GeneratorConfig) { c.NCards = 0 }, wantErr: true},
		{name: "missing target", mutate: func(c *GeneratorConfig) { c.TargetLanguage = "" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeneratorConfigWithDefaults(t *testing.T) {
	t.Parallel()

	defaults := GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         DefaultNCards,
		SourceLanguage: DefaultSourceLanguage,
		TargetLanguage: DefaultTargetLanguage,
	}

	cfg := GeneratorConfig{PromptName: "sentence", TargetLanguage: "German"}.WithDefaults(defaults)

	assert.Equal(t, GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "German",
	}, cfg)
}

func TestGeneratorConfigPathFriendly(t *testing.T) {
	t.Parallel()

	cfg := GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "Ukrainian",
	}
	assert.Equal(t, "gpt-3.5-turbo_vocab-to-sentence_English_Ukrainian", cfg.PathFriendly())

	other := cfg
	other.NCards = 12
	assert.Equal(t, cfg.PathFriendly(), other.PathFriendly(), "batch size is not part of the name")

	odd := cfg
	odd.LLM = "../ollama/mistral"
	assert.NotContains(t, odd.PathFriendly(), "/")
	assert.NotContains(t, odd.PathFriendly(), "..")
}

func TestPathFriendlyDistinguishesNonASCII(t *testing.T) {
	t.Parallel()

	base := GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
	}
	ukrainian, russian := base, base
	ukrainian.TargetLanguage = "Українська"
	russian.TargetLanguage = "Русский"

	a, b := ukrainian.PathFriendly(), russian.PathFriendly()
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ukrainian.PathFriendly(), "names are deterministic")
	assert.True(t, strings.HasPrefix(a, "gpt-3.5-turbo_vocab-to-sentence_English"), a)
	assert.Equal(t, SanitizeToken(a), a, "names stay file safe")

	// A name must never be a prefix match for another cache's queue files.
	assert.False(t, strings.HasPrefix(b, a+"_"))
	assert.False(t, strings.HasPrefix(a, b+"_"))

	allNonASCII := GeneratorConfig{LLM: "модель", PromptName: "підказка", SourceLanguage: "мова", TargetLanguage: "язык"}
	assert.True(t, strings.HasPrefix(allNonASCII.PathFriendly(), "config-"), allNonASCII.PathFriendly())
}
