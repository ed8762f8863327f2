package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/courseprice/pricing"
	"github.com/xraph/courseprice/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry keeps registered plugins and dispatches hook calls. Hook lists
// are cached per interface at registration so dispatch never type-asserts.
// Hook errors are logged and never reach the caller.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit             []OnInit
	onShutdown         []OnShutdown
	onPriceComputed    []OnPriceComputed
	onGuardTriggered   []OnGuardTriggered
	onCacheHit         []OnCacheHit
	onHintMismatch     []OnHintMismatch
	onValidationFailed []OnValidationFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin and caches the hooks it implements.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnPriceComputed); ok {
		r.onPriceComputed = append(r.onPriceComputed, v)
		hooks = append(hooks, "OnPriceComputed")
	}
	if v, ok := p.(OnGuardTriggered); ok {
		r.onGuardTriggered = append(r.onGuardTriggered, v)
		hooks = append(hooks, "OnGuardTriggered")
	}
	if v, ok := p.(OnCacheHit); ok {
		r.onCacheHit = append(r.onCacheHit, v)
		hooks = append(hooks, "OnCacheHit")
	}
	if v, ok := p.(OnHintMismatch); ok {
		r.onHintMismatch = append(r.onHintMismatch, v)
		hooks = append(hooks, "OnHintMismatch")
	}
	if v, ok := p.(OnValidationFailed); ok {
		r.onValidationFailed = append(r.onValidationFailed, v)
		hooks = append(hooks, "OnValidationFailed")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)
	return nil
}

// Get returns a plugin by name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission
// ──────────────────────────────────────────────────

// emit runs call for every hook in list, logging failures as hook.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, list func() []T, call func(T) error) {
	r.mu.RLock()
	plugins := list()
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.WarnContext(ctx, "plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit on every plugin implementing it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", func() []OnInit { return r.onInit }, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown on every plugin implementing it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func() []OnShutdown { return r.onShutdown }, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitPriceComputed emits a price computed event.
func (r *Registry) EmitPriceComputed(ctx context.Context, ev PriceComputed) {
	emit(ctx, r, "OnPriceComputed", func() []OnPriceComputed { return r.onPriceComputed }, func(p OnPriceComputed) error {
		return p.OnPriceComputed(ctx, ev)
	})
}

// EmitGuardTriggered emits a guard event.
func (r *Registry) EmitGuardTriggered(ctx context.Context, canonicalID string, guard pricing.Guard) {
	emit(ctx, r, "OnGuardTriggered", func() []OnGuardTriggered { return r.onGuardTriggered }, func(p OnGuardTriggered) error {
		return p.OnGuardTriggered(ctx, canonicalID, guard)
	})
}

// EmitCacheHit emits a cache hit event.
func (r *Registry) EmitCacheHit(ctx context.Context, canonicalID string, asOf types.Date) {
	emit(ctx, r, "OnCacheHit", func() []OnCacheHit { return r.onCacheHit }, func(p OnCacheHit) error {
		return p.OnCacheHit(ctx, canonicalID, asOf)
	})
}

// EmitHintMismatch emits a hint mismatch event.
func (r *Registry) EmitHintMismatch(ctx context.Context, canonicalID string, hint, computed int) {
	emit(ctx, r, "OnHintMismatch", func() []OnHintMismatch { return r.onHintMismatch }, func(p OnHintMismatch) error {
		return p.OnHintMismatch(ctx, canonicalID, hint, computed)
	})
}

// EmitValidationFailed emits a validation failure event.
func (r *Registry) EmitValidationFailed(ctx context.Context, objectID string, err error) {
	emit(ctx, r, "OnValidationFailed", func() []OnValidationFailed { return r.onValidationFailed }, func(p OnValidationFailed) error {
		return p.OnValidationFailed(ctx, objectID, err)
	})
}

// callWithTimeout calls a plugin function with a timeout. A slow plugin
// must never stall a price calculation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
