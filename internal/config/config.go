package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Daphne210/amr-inference-server/internal/schema"
)

// Config is the full environment contract of the server process.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// ModelPath points at the serialized booster bundle.
	ModelPath string `env:"MODEL_PATH" envDefault:"models/boosters.json"`
	// SchemaPath points at the expected-features artifact. Empty falls back
	// to the model-embedded list, then the hardcoded baseline contract.
	SchemaPath string `env:"SCHEMA_PATH"`

	DBPath string `env:"DB_PATH" envDefault:"predictions.db"`

	// MissingFeaturePolicy: "fill" substitutes per-feature defaults,
	// "reject" fails requests that omit schema features.
	MissingFeaturePolicy string `env:"MISSING_FEATURE_POLICY" envDefault:"fill"`

	TopFeatures int `env:"TOP_FEATURES" envDefault:"5"`

	RequireAPIKey     bool   `env:"REQUIRE_API_KEY" envDefault:"false"`
	AdminUser         string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	ActivityLogSize int `env:"ACTIVITY_LOG_SIZE" envDefault:"300"`

	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("config: MODEL_PATH must not be empty")
	}
	if _, err := schema.ParseFillPolicy(c.MissingFeaturePolicy); err != nil {
		return fmt.Errorf("config: MISSING_FEATURE_POLICY: %w", err)
	}
	if c.TopFeatures < 0 {
		return fmt.Errorf("config: TOP_FEATURES must not be negative")
	}
	return nil
}

// FillPolicy returns the parsed missing-feature policy. Call after Validate.
func (c Config) FillPolicy() schema.FillPolicy {
	p, _ := schema.ParseFillPolicy(c.MissingFeaturePolicy)
	return p
}
