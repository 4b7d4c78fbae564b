// Package filter renders note fields through the phrasify field filter.
//
// A template field written as
//
//	{{phrasify vocab-to-sentence source_lang=English target_lang=Ukrainian source_field=Front target_field=Back:Front}}
//
// is replaced by the matching side of a card generated from the note's
// Front and Back fields. All fields of one render pass share a session, so
// the front and back of a rendered note come from the same card.
package filter
