package courseprice

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/xraph/courseprice/schedule"
)

// EnvPrefix prefixes every environment variable read by LoadConfigFromEnv.
const EnvPrefix = "COURSEPRICE_"

// Config holds the engine configuration. The same struct is bound by the
// Forge extension from YAML and by LoadConfigFromEnv from the environment.
type Config struct {
	// Currency is used for objects that carry no _currency key.
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency" env:"CURRENCY" validate:"required,len=3,lowercase"`

	// WindowFactor bounds every schedule walk at total_sessions × WindowFactor
	// days (default: 14).
	WindowFactor int `json:"window_factor" mapstructure:"window_factor" yaml:"window_factor" env:"WINDOW_FACTOR" validate:"gte=7"`

	// SharedCache keeps one process-wide price memo on the engine. When
	// false only scopes created with Engine.Scope memoize.
	SharedCache bool `json:"shared_cache" mapstructure:"shared_cache" yaml:"shared_cache" env:"SHARED_CACHE"`

	// WarmSiblings loads all variations of a product in one batch the first
	// time a scope prices one of them.
	WarmSiblings bool `json:"warm_siblings" mapstructure:"warm_siblings" yaml:"warm_siblings" env:"WARM_SIBLINGS"`

	// DefaultLanguage enables canonical id resolution through translation
	// links. Empty disables it.
	DefaultLanguage string `json:"default_language" mapstructure:"default_language" yaml:"default_language" env:"DEFAULT_LANGUAGE" validate:"omitempty,min=2,max=35"`

	// Timezone is the host timezone used by Engine.Today (default: UTC).
	Timezone string `json:"timezone" mapstructure:"timezone" yaml:"timezone" env:"TIMEZONE" validate:"omitempty,timezone"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout" env:"PLUGIN_TIMEOUT" validate:"gte=0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:        "usd",
		WindowFactor:    schedule.DefaultWindowFactor,
		SharedCache:     true,
		WarmSiblings:    true,
		DefaultLanguage: "en",
		Timezone:        "UTC",
		PluginTimeout:   5 * time.Second,
	}
}

// LoadConfigFromEnv reads COURSEPRICE_* variables on top of DefaultConfig
// and validates the result.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("courseprice: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// withDefaults fills zero numeric and string fields from DefaultConfig.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Currency == "" {
		c.Currency = defaults.Currency
	}
	if c.WindowFactor == 0 {
		c.WindowFactor = defaults.WindowFactor
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
	}
	if c.PluginTimeout == 0 {
		c.PluginTimeout = defaults.PluginTimeout
	}
	return c
}

// Location returns the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
