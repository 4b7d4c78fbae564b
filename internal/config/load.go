package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// PHRASIFY_LLM_MODEL_NAME for llm.model_name.
const EnvPrefix = "PHRASIFY"

// DefaultConfigName is the file looked up in the working directory when no
// explicit file is given.
const DefaultConfigName = "phrasify"

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. It must exist when set.
	ConfigFile string
	// SearchPaths are searched for phrasify.yaml when ConfigFile is empty.
	// Defaults to the working directory.
	SearchPaths []string
}

// Load configuration from defaults, an optional config file and environment
// variables. Environment variables take precedence over values from files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-section rules.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(validateBackend, Config{})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// validateBackend requires a database URL when queues live in postgres.
func validateBackend(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Cache.Backend == BackendPostgres && cfg.Database.URL == "" {
		sl.ReportError(cfg.Database.URL, "Database.URL", "URL", "required_with_postgres", "")
	}
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8800)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("cache.backend", BackendFile)
	v.SetDefault("cache.dir", ".phrasify/cache")
	v.SetDefault("cache.low_water_mark", 3)
	v.SetDefault("cache.fast_batch_size", 1)
	v.SetDefault("cache.bulk_batch_size", 0)
	v.SetDefault("cache.session_ttl", "10m")
	v.SetDefault("cache.max_sessions", 256)

	v.SetDefault("database.url", "")

	v.SetDefault("llm.model_name", "gpt-3.5-turbo")
	v.SetDefault("llm.prompt_name", "vocab-to-sentence")
	v.SetDefault("llm.prompt_dir", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.api_location", "")
	v.SetDefault("llm.api_url", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.request_timeout", "60s")

	v.SetDefault("generation.n_cards", 5)
	v.SetDefault("generation.source_language", "English")
	v.SetDefault("generation.target_language", "Ukrainian")

	v.SetDefault("worker.max_concurrent", 16)
	v.SetDefault("worker.shutdown_timeout", "30s")
}
