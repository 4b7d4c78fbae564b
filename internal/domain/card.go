package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TranslationCard is a pair of sentences or words: one in the language the
// learner knows (Source) and one in the language being learned (Target).
//
// It is a value type. Two cards are equal when both fields are equal, which
// also makes TranslationCard usable as a map key.
type TranslationCard struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewTranslationCard creates a card from its two sides.
func NewTranslationCard(source, target string) TranslationCard {
	return TranslationCard{Source: source, Target: target}
}

// IsEmpty reports whether both sides of the card are blank.
func (c TranslationCard) IsEmpty() bool {
	return strings.TrimSpace(c.Source) == "" && strings.TrimSpace(c.Target) == ""
}

// JSON returns the card encoded as a flat JSON object.
func (c TranslationCard) JSON() string {
	data, err := json.Marshal(c)
	if err != nil {
		// Marshalling two strings cannot fail.
		return fmt.Sprintf(`{"source":%q,"target":%q}`, c.Source, c.Target)
	}
	return string(data)
}

// String implements fmt.Stringer.
func (c TranslationCard) String() string {
	return fmt.Sprintf("TranslationCard(source=%q, target=%q)", c.Source, c.Target)
}
