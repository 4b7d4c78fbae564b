package domain

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
)

const (
	// maxSlugRunes bounds the readable part of a fingerprint so file names
	// stay well under common path component limits.
	maxSlugRunes = 48

	// digestBytes is how much of the BLAKE2b-256 digest ends up in the
	// fingerprint (hex encoded, so twice as many characters).
	digestBytes = 16
)

// Fingerprint identifies the queue of generated cards for one seed card under
// one generator configuration. It is safe to use as a file name component and
// never contains an underscore.
type Fingerprint string

// String implements fmt.Stringer.
func (f Fingerprint) String() string {
	return string(f)
}

// NewFingerprint derives the fingerprint for seed under cfg. The result only
// depends on the seed's fields and on the identity fields of cfg (model,
// prompt and languages), so equal inputs always produce equal fingerprints.
func NewFingerprint(seed TranslationCard, cfg GeneratorConfig) Fingerprint {
	var canonical strings.Builder
	for _, field := range []string{
		cfg.LLM,
		cfg.PromptName,
		cfg.SourceLanguage,
		cfg.TargetLanguage,
		seed.Source,
		seed.Target,
	} {
		// Length prefixes keep ("ab", "c") and ("a", "bc") apart.
		canonical.WriteString(strconv.Itoa(len(field)))
		canonical.WriteByte(':')
		canonical.WriteString(field)
		canonical.WriteByte(';')
	}

	sum := blake2b.Sum256([]byte(canonical.String()))
	digest := hex.EncodeToString(sum[:digestBytes])

	slug := slugify(seed.Source + " " + seed.Target)
	if slug == "" {
		slug = "card"
	}
	return Fingerprint(slug + "-" + digest)
}

// SanitizeToken maps s onto the characters [A-Za-z0-9.-_], replacing every
// other run of characters with a single '-'. Leading dots and dashes are
// trimmed so the result can never name a hidden or relative path.
func SanitizeToken(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)),
			r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			if !lastDash {
				b.WriteRune(r)
			}
			lastDash = true
		default:
			if !lastDash {
				b.WriteRune('-')
			}
			lastDash = true
		}
	}
	return strings.Trim(strings.TrimLeft(b.String(), ".-"), "-")
}

// slugify keeps a short lowercase ASCII rendering of s for readability.
func slugify(s string) string {
	var b strings.Builder
	n := 0
	lastDash := true
	for _, r := range strings.ToLower(s) {
		if n >= maxSlugRunes {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			lastDash = false
			n++
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
			n++
		}
	}
	return strings.Trim(b.String(), "-")
}
