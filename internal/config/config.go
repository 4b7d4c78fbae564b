package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Worker     WorkerConfig     `mapstructure:"worker" validate:"required"`
}

// ServerConfig contains the generation server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// JWTSecret enables bearer authentication on /v1 when set. The remote
	// generator client signs its requests with the same secret.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// Cache backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// CacheConfig controls where card queues live and how they are replenished.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend" validate:"required,oneof=file postgres"`
	Dir           string        `mapstructure:"dir" validate:"required"`
	LowWaterMark  int           `mapstructure:"low_water_mark" validate:"gte=1"`
	FastBatchSize int           `mapstructure:"fast_batch_size" validate:"gte=1"`
	BulkBatchSize int           `mapstructure:"bulk_batch_size" validate:"gte=0"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	MaxSessions   uint64        `mapstructure:"max_sessions" validate:"gt=0"`
}

// DatabaseConfig is only used by the postgres cache backend.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// API locations understood by LLMConfig.APIURL.
const (
	APILocationLocal  = "local"
	APILocationRemote = "remote"

	LocalAPIURL  = "http://localhost:8800/v1/cards"
	RemoteAPIURL = "https://phrasify.mvdvlies.com/api/v1/cards"
)

// LLMConfig selects the model, prompt and credentials used to generate cards.
type LLMConfig struct {
	ModelName  string `mapstructure:"model_name" validate:"required"`
	PromptName string `mapstructure:"prompt_name" validate:"required"`
	PromptDir  string `mapstructure:"prompt_dir"`

	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	OllamaURL     string `mapstructure:"ollama_url" validate:"omitempty,url"`

	// APILocation routes generation through a generation server instead of
	// calling the model directly.
	APILocation string `mapstructure:"api_location" validate:"omitempty,oneof=local remote"`
	Endpoint    string `mapstructure:"api_url" validate:"omitempty,url"`

	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// APIURL returns the generation server URL, or "" when cards are generated
// in-process. An explicit api_url wins over api_location.
func (c LLMConfig) APIURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	switch c.APILocation {
	case APILocationLocal:
		return LocalAPIURL
	case APILocationRemote:
		return RemoteAPIURL
	default:
		return ""
	}
}

// GenerationConfig describes the default card generator configuration.
type GenerationConfig struct {
	NCards         int    `mapstructure:"n_cards" validate:"gt=0"`
	SourceLanguage string `mapstructure:"source_language" validate:"required"`
	TargetLanguage string `mapstructure:"target_language" validate:"required"`
}

// WorkerConfig bounds background replenishment.
type WorkerConfig struct {
	// MaxConcurrent caps concurrently running replenish jobs; 0 is unbounded.
	MaxConcurrent   int64         `mapstructure:"max_concurrent" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}
