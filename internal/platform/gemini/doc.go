// Package gemini provides a generation.LLM backed by Google's Gemini API.
//
// This package is an infrastructure adapter: it turns a rendered prompt into
// a GenerateContent call and hands the raw reply text back to
// generation.LLMGenerator, which owns prompt rendering and card parsing.
//
// Transient API failures are retried with exponential backoff and jitter.
// Replies blocked by safety filters map to generation.ErrContentBlocked and
// empty replies to generation.ErrInvalidResponse; neither is retried.
package gemini
