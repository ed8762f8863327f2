// Package extension provides the Forge extension adapter for courseprice.
//
// It implements the forge.Extension interface to integrate the course
// pricing engine into a Forge application with DI registration, store
// selection and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.courseprice" or
// "courseprice" keys.
package extension

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/courseprice"
	"github.com/xraph/courseprice/observability"
	"github.com/xraph/courseprice/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "courseprice"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Course session scheduling and pro-rated pricing"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// connectTimeout bounds backend connection during Register.
const connectTimeout = 10 * time.Second

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the courseprice Engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *courseprice.Engine
	store      store.Store
	engineOpts []courseprice.Option
	registerer prometheus.Registerer
}

// New creates a new courseprice Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
		config:        DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Engine.
// This is nil until Register is called.
func (e *Extension) Engine() *courseprice.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration, opens
// the store, builds the engine and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}
	if err := e.config.Validate(); err != nil {
		return err
	}

	if e.store == nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		st, err := openStore(ctx, e.config)
		if err != nil {
			return err
		}
		e.store = st
	}

	e.engine = courseprice.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*courseprice.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("courseprice: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("courseprice: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs courseprice.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []courseprice.Option {
	opts := make([]courseprice.Option, 0, len(e.engineOpts)+2)
	opts = append(opts, courseprice.WithConfig(e.config.Config))

	if e.config.Metrics {
		factory := observability.NewPrometheusFactory(e.registerer)
		opts = append(opts, courseprice.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Pass-through options go last so they can override config.
	return append(opts, e.engineOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("courseprice: configuration is required but not found in config files; " +
				"ensure 'extensions.courseprice' or 'courseprice' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("courseprice: configuration loaded",
		forge.F("store", e.config.Store),
		forge.F("redis_cache", e.config.RedisAddr != ""),
		forge.F("currency", e.config.Currency),
		forge.F("window_factor", e.config.WindowFactor),
		forge.F("shared_cache", e.config.SharedCache),
		forge.F("default_language", e.config.DefaultLanguage),
		forge.F("metrics", e.config.Metrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files. Keys
// absent from the file keep their defaults.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.courseprice", "courseprice"} {
		if !cm.IsSet(key) {
			continue
		}
		cfg := DefaultConfig()
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("courseprice: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("courseprice: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.WindowFactor == 0 {
		cfg.WindowFactor = defaults.WindowFactor
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaults.Timezone
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.Store == "" {
		cfg.Store = defaults.Store
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = defaults.MongoDatabase
	}
	if cfg.RedisTTL == 0 {
		cfg.RedisTTL = defaults.RedisTTL
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic flags and connection
// settings fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.Metrics {
		yamlConfig.Metrics = true
	}

	if yamlConfig.SQLitePath == "" {
		yamlConfig.SQLitePath = programmaticConfig.SQLitePath
	}
	if yamlConfig.MongoURI == "" {
		yamlConfig.MongoURI = programmaticConfig.MongoURI
	}
	if yamlConfig.RedisAddr == "" {
		yamlConfig.RedisAddr = programmaticConfig.RedisAddr
	}

	return mergeWithDefaults(yamlConfig)
}
