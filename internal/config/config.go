package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	ModelName    string
	GeminiAPIKey string
	UseMockLLM   bool // true = use the scripted model, for local dev

	StorageBackend string // "memory" or "sqlite"
	SQLitePath     string

	// MaxTurnSteps bounds model invocations within a single chat turn.
	MaxTurnSteps int
}

// Load reads configuration with Viper: defaults, then an optional
// taskdeck.yaml in the working directory, then TASKDECK_* env vars.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("taskdeck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("port", "8080")
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("use_mock_llm", false)
	v.SetDefault("storage_backend", "memory")
	v.SetDefault("sqlite_path", "taskdeck.db")
	v.SetDefault("max_turn_steps", 10)

	v.SetEnvPrefix("TASKDECK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading taskdeck.yaml: %w", err)
		}
		// No config file found, defaults plus env apply.
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		ModelName:      v.GetString("model_name"),
		GeminiAPIKey:   v.GetString("gemini_api_key"),
		UseMockLLM:     v.GetBool("use_mock_llm"),
		StorageBackend: v.GetString("storage_backend"),
		SQLitePath:     v.GetString("sqlite_path"),
		MaxTurnSteps:   v.GetInt("max_turn_steps"),
	}

	if !cfg.UseMockLLM && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("TASKDECK_GEMINI_API_KEY must be set unless use_mock_llm is enabled")
	}
	if cfg.MaxTurnSteps <= 0 {
		cfg.MaxTurnSteps = 10
	}

	return cfg, nil
}
