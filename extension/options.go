package extension

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/courseprice"
	audithook "github.com/xraph/courseprice/audit_hook"
	"github.com/xraph/courseprice/plugin"
	"github.com/xraph/courseprice/store"
)

// Option configures the courseprice Forge extension.
type Option func(*Extension)

// WithStore sets the metadata store, bypassing the configured backend.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a courseprice.Option through to the engine.
func WithEngineOption(opt courseprice.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, courseprice.WithPlugin(p))
	}
}

// WithAuditRecorder registers the audit hook plugin over r.
func WithAuditRecorder(r audithook.Recorder, opts ...audithook.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, courseprice.WithPlugin(audithook.New(r, opts...)))
	}
}

// WithPrometheusRegisterer sets where the metrics plugin registers its
// collectors and enables it. The default is prometheus.DefaultRegisterer.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(e *Extension) {
		e.registerer = reg
		e.config.Metrics = true
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithSQLite selects the sqlite backend at path.
func WithSQLite(path string) Option {
	return func(e *Extension) {
		e.config.Store = StoreSQLite
		e.config.SQLitePath = path
	}
}

// WithMongo selects the mongo backend.
func WithMongo(uri, database string) Option {
	return func(e *Extension) {
		e.config.Store = StoreMongo
		e.config.MongoURI = uri
		e.config.MongoDatabase = database
	}
}

// WithRedisCache puts a Redis read-through cache in front of the backend.
func WithRedisCache(addr string) Option {
	return func(e *Extension) { e.config.RedisAddr = addr }
}
