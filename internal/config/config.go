package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/text/language"
)

type Config struct {
	RosterFeedURL   string        `env:"ROSTER_FEED_URL,required,notEmpty"`
	DBPath          string        `env:"DB_PATH" envDefault:"roster.db"`
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	RosterCacheTTL  time.Duration `env:"ROSTER_CACHE_TTL" envDefault:"5m"`
	PageSize        int           `env:"PAGE_SIZE" envDefault:"10"`
	SimilarLimit    int           `env:"SIMILAR_LIMIT" envDefault:"5"`
	CollationLocale string        `env:"COLLATION_LOCALE" envDefault:"en"`
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("roster_feed_url", cfg.RosterFeedURL).
		Dur("roster_cache_ttl", cfg.RosterCacheTTL).
		Int("page_size", cfg.PageSize).
		Int("similar_limit", cfg.SimilarLimit).
		Str("collation_locale", cfg.CollationLocale).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.SimilarLimit < 1 {
		return fmt.Errorf("SIMILAR_LIMIT must be positive, got %d", c.SimilarLimit)
	}
	if _, err := language.Parse(c.CollationLocale); err != nil {
		return fmt.Errorf("COLLATION_LOCALE %q: %w", c.CollationLocale, err)
	}
	return nil
}

// Locale is the collation language. Validate has already rejected bad tags.
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.CollationLocale)
	if err != nil {
		return language.English
	}
	return tag
}

var Module = fx.Provide(Load)
