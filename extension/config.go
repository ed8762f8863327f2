package extension

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/courseprice"
	redisstore "github.com/xraph/courseprice/store/redis"
)

// Store backends selectable from configuration.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds the courseprice extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.courseprice" or "courseprice" keys).
type Config struct {
	// Engine settings, flattened into the same YAML block.
	courseprice.Config `mapstructure:",squash" yaml:",inline"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Store selects the metadata backend: memory, sqlite or mongo
	// (default: memory). Ignored when a store is passed with WithStore.
	Store string `json:"store" mapstructure:"store" yaml:"store" validate:"omitempty,oneof=memory sqlite mongo"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `json:"sqlite_path" mapstructure:"sqlite_path" yaml:"sqlite_path" validate:"required_if=Store sqlite"`

	// MongoURI and MongoDatabase locate the mongo backend.
	MongoURI      string `json:"mongo_uri" mapstructure:"mongo_uri" yaml:"mongo_uri" validate:"required_if=Store mongo"`
	MongoDatabase string `json:"mongo_database" mapstructure:"mongo_database" yaml:"mongo_database"`

	// RedisAddr, when set, puts a Redis read-through cache in front of the
	// backend.
	RedisAddr string        `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisDB   int           `json:"redis_db" mapstructure:"redis_db" yaml:"redis_db" validate:"gte=0"`
	RedisTTL  time.Duration `json:"redis_ttl" mapstructure:"redis_ttl" yaml:"redis_ttl"`

	// Metrics registers the Prometheus metrics plugin.
	Metrics bool `json:"metrics" mapstructure:"metrics" yaml:"metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:        courseprice.DefaultConfig(),
		Store:         StoreMemory,
		MongoDatabase: "courseprice",
		RedisTTL:      redisstore.DefaultTTL,
	}
}

// Validate checks field constraints, including the engine settings.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", courseprice.ErrInvalidConfig, err)
	}
	return nil
}
