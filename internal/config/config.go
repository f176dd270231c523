// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/pable/dota-coach/internal/apperr"
)

type Config struct {
	DBPath string `validate:"required"`

	OpenDotaBaseURL string `validate:"required,url"`
	OpenDotaAPIKey  string
	StratzURL       string `validate:"required,url"`
	StratzToken     string

	RulesetPath    string `validate:"omitempty,file"`
	ThresholdsPath string `validate:"omitempty,file"`

	BenchmarkTTL    time.Duration `validate:"gt=0"`
	HTTPTimeout     time.Duration `validate:"gt=0"`
	MaxRetries      int           `validate:"gte=0,lte=10"`
	WarmConcurrency int           `validate:"gte=1,lte=32"`

	LogLevel       string `validate:"oneof=debug info warn error"`
	LogFormat      string `validate:"oneof=console json"`
	DefaultBracket string `validate:"oneof=UNCALIBRATED HERALD_GUARDIAN CRUSADER_ARCHON LEGEND_ANCIENT DIVINE_IMMORTAL"`
}

var validate = validator.New()

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:          getEnv("DOTACOACH_DB", filepath.Join(userHome(), ".dotacoach", "coach.db")),
		OpenDotaBaseURL: getEnv("OPENDOTA_BASE_URL", "https://api.opendota.com/api"),
		OpenDotaAPIKey:  getEnv("OPENDOTA_API_KEY", ""),
		StratzURL:       getEnv("STRATZ_URL", "https://api.stratz.com/graphql"),
		StratzToken:     getEnv("STRATZ_API_TOKEN", ""),
		RulesetPath:     getEnv("DOTACOACH_RULESET", ""),
		ThresholdsPath:  getEnv("DOTACOACH_THRESHOLDS", ""),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "console")),
		DefaultBracket:  strings.ToUpper(getEnv("DOTACOACH_BRACKET", "LEGEND_ANCIENT")),
	}

	var err error
	if cfg.BenchmarkTTL, err = getDuration("BENCHMARK_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getInt("HTTP_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.WarmConcurrency, err = getInt("WARM_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperr.ConfigParse(err, "invalid configuration")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, apperr.ConfigParse(err, "%s", key)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.ConfigParse(err, "%s", key)
	}
	return n, nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
