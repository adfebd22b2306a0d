package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, typically provided through a .env file.
const (
	EnvWatsonURL    = "WORDCUT_WATSON_URL"
	EnvWatsonAPIKey = "WORDCUT_WATSON_API_KEY"
	EnvGeminiAPIKey = "WORDCUT_GEMINI_API_KEY"
	EnvLogLevel     = "WORDCUT_LOG_LEVEL"
)

// Load reads the YAML configuration at path, applies environment overrides
// and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist. Parse errors are still returned.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.applyEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

// LoadDotEnv loads .env from the working directory if present.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvWatsonURL); v != "" {
		c.Transcription.Watson.URL = v
	}
	if v := os.Getenv(EnvWatsonAPIKey); v != "" {
		c.Transcription.Watson.APIKey = v
	}
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.Transcription.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}
