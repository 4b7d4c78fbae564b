// Package domain contains the core value types of phrasify: the translation
// card that flows through generation and caching, the generator
// configuration that identifies how cards are produced, and the fingerprint
// that names a card queue on disk. It has no dependencies on infrastructure.
package domain
