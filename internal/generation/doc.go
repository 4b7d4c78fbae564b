// Package generation defines the boundary between phrasify and the language
// models that produce translation cards.
//
// Generator is the producer contract the card cache depends on. LLMGenerator
// implements it on top of any LLM by rendering a prompt template, calling the
// model and decoding the reply with ParseCards. Concrete LLM clients (OpenAI,
// Ollama, Gemini) and the remote generator live under internal/platform.
package generation
