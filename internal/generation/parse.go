package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/phrazzld/phrasify/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```json[ \t]*\r?\n(.*?)\r?\n[ \t]*```")

// ParseCards decodes an LLM reply into cards.
//
// The reply may wrap the JSON in prose or in a ```json fence. The first
// balanced JSON object or array is decoded and resolved as either a list of
// cards, a list nested under "cards" or under a single key, or one card
// object. Every element must be an object with exactly the string fields
// "source" and "target".
func ParseCards(response string) ([]domain.TranslationCard, error) {
	text := response
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	raw, err := findJSON(text)
	if err != nil {
		return nil, err
	}

	var value any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON: %w", ErrInvalidResponse, err)
	}

	items, err := resolveCardList(value)
	if err != nil {
		return nil, err
	}

	cards := make([]domain.TranslationCard, 0, len(items))
	for i, item := range items {
		card, err := decodeCard(item)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %w", ErrInvalidResponse, i, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// findJSON returns the first balanced {...} or [...] value in s. Brackets
// inside JSON strings are ignored.
func findJSON(s string) (string, error) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("%w: no opening bracket found", ErrInvalidResponse)
	}

	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			want := byte('{')
			if c == ']' {
				want = '['
			}
			if len(stack) == 0 || stack[len(stack)-1] != want {
				return "", fmt.Errorf("%w: unmatched %q at offset %d", ErrInvalidResponse, c, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unmatched %q", ErrInvalidResponse, stack[len(stack)-1])
}

func resolveCardList(value any) ([]any, error) {
	if obj, ok := value.(map[string]any); ok {
		if nested, ok := obj["cards"]; ok {
			value = nested
		} else if len(obj) == 1 {
			for _, nested := range obj {
				value = nested
			}
		}
	}

	if obj, ok := value.(map[string]any); ok {
		_, hasSource := obj["source"]
		_, hasTarget := obj["target"]
		if hasSource && hasTarget {
			return []any{obj}, nil
		}
	}

	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of cards, got %T", ErrInvalidResponse, value)
	}
	return list, nil
}

func decodeCard(item any) (domain.TranslationCard, error) {
	var card domain.TranslationCard

	// Round trip through JSON so that unknown fields and non-string values
	// are rejected the same way for every shape.
	data, err := json.Marshal(item)
	if err != nil {
		return card, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&card); err != nil {
		return card, err
	}

	obj, _ := item.(map[string]any)
	if _, ok := obj["source"]; !ok {
		return card, fmt.Errorf("missing field %q", "source")
	}
	if _, ok := obj["target"]; !ok {
		return card, fmt.Errorf("missing field %q", "target")
	}
	return card, nil
}
