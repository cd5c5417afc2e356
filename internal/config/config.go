// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
	"github.com/seiseiai1st/NanoBananaProPlayGround/provider/gemini"
)

// Config holds every setting read from the environment.
type Config struct {
	// APIKey is used when no key has been saved in the settings file.
	APIKey string `env:"GEMINI_API_KEY"`

	BaseURL string `env:"NBP_BASE_URL"`
	Model   string `env:"NBP_MODEL"`

	// SettingsPath defaults to the user config directory when empty.
	SettingsPath string `env:"NBP_SETTINGS_PATH"`
	OutputDir    string `env:"NBP_OUTPUT_DIR"`

	USDToJPY          float64 `env:"NBP_USD_TO_JPY"`
	HistoryLimit      int     `env:"NBP_HISTORY_LIMIT"`
	RequestsPerMinute int     `env:"NBP_REQUESTS_PER_MINUTE"`

	ListenAddr string `env:"NBP_LISTEN_ADDR"`
	LogLevel   string `env:"NBP_LOG_LEVEL"`
	LogFormat  string `env:"NBP_LOG_FORMAT"`
}

// Load reads the given .env files (".env" when none are named; missing
// files are skipped) and then overlays the environment on Default.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c Config) Validate() error {
	switch {
	case c.USDToJPY <= 0:
		return fmt.Errorf("NBP_USD_TO_JPY must be positive, got %v", c.USDToJPY)
	case c.HistoryLimit < 1:
		return fmt.Errorf("NBP_HISTORY_LIMIT must be at least 1, got %d", c.HistoryLimit)
	case c.RequestsPerMinute < 0:
		return fmt.Errorf("NBP_REQUESTS_PER_MINUTE must not be negative, got %d", c.RequestsPerMinute)
	case c.BaseURL == "":
		return errors.New("NBP_BASE_URL must not be empty")
	}
	return nil
}

// Default returns the configuration used for every variable that is not set.
func Default() Config {
	return Config{
		BaseURL:      gemini.DefaultBaseURL,
		Model:        gemini.APIModelNanoBananaPro,
		OutputDir:    ".",
		USDToJPY:     nanobanana.DefaultUSDToJPY,
		HistoryLimit: nanobanana.DefaultHistoryLimit,
		ListenAddr:   "127.0.0.1:8080",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}
