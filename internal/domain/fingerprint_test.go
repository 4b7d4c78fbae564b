package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "Ukrainian",
	}
}

func TestNewFingerprintIsDeterministic(t *testing.T) {
	t.Parallel()

	seed := NewTranslationCard("friend", "друг")
	cfg := testGeneratorConfig()

	first := NewFingerprint(seed, cfg)
	second := NewFingerprint(seed, cfg)
	assert.Equal(t, first, second)

	// A config built separately but equal by value yields the same fingerprint.
	copied := GeneratorConfig{
		LLM:            "gpt-3.5-turbo",
		PromptName:     "vocab-to-sentence",
		NCards:         5,
		SourceLanguage: "English",
		TargetLanguage: "Ukrainian",
	}
	assert.Equal(t, first, NewFingerprint(NewTranslationCard("friend", "друг"), copied))
}

func TestNewFingerprintDistinguishesInputs(t *testing.T) {
	t.Parallel()

	seed := NewTranslationCard("friend", "друг")
	cfg := testGeneratorConfig()
	base := NewFingerprint(seed, cfg)

	otherPrompt := cfg
	otherPrompt.PromptName = "sentence"

	otherLanguage := cfg
	otherLanguage.TargetLanguage = "German"

	testCases := []struct {
		name string
		fp   Fingerprint
	}{
		{"different source", NewFingerprint(NewTranslationCard("friends", "друг"), cfg)},
		{"different target", NewFingerprint(NewTranslationCard("friend", "друзі"), cfg)},
		{"shifted field boundary", NewFingerprint(NewTranslationCard("frien", "dдруг"), cfg)},
		{"different prompt", NewFingerprint(seed, otherPrompt)},
		{"different language", NewFingerprint(seed, otherLanguage)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, base, tc.fp)
		})
	}
}

func TestNewFingerprintIgnoresBatchSize(t *testing.T) {
	t.Parallel()

	seed := NewTranslationCard("friend", "друг")
	cfg := testGeneratorConfig()
	bigger := cfg
	bigger.NCards = 20

	assert.Equal(t, NewFingerprint(seed, cfg), NewFingerprint(seed, bigger))
}

func TestNewFingerprintIsFileSafe(t *testing.T) {
	t.Parallel()

	seeds := []TranslationCard{
		NewTranslationCard("friend", "друг"),
		NewTranslationCard("../../etc/passwd", "x"),
		NewTranslationCard("", ""),
		NewTranslationCard("她有很多朋友", "У неї багато друзів"),
		NewTranslationCard(strings.Repeat("long sentence ", 40), "target"),
	}

	for _, seed := range seeds {
		fp := NewFingerprint(seed, testGeneratorConfig())
		assert.Regexp(t, `^[a-z0-9-]+$`, string(fp))
		assert.NotContains(t, string(fp), "_")
		assert.LessOrEqual(t, len(fp), maxSlugRunes+1+2*digestBytes)
	}
}

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{"gpt-3.5-turbo", "gpt-3.5-turbo"},
		{"vocab to sentence", "vocab-to-sentence"},
		{"../secret", "secret"},
		{"a//b", "a-b"},
		{"українська", ""},
		{"ollama/mistral_English", "ollama-mistral_English"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, SanitizeToken(tc.in), "SanitizeToken(%q)", tc.in)
	}
}
