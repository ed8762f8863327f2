// Package plugin provides lifecycle hooks for the course price engine.
// A plugin implements Plugin plus any subset of the hook interfaces; the
// Registry discovers which ones at registration time.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/courseprice/pricing"
	"github.com/xraph/courseprice/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// PriceComputed describes one price that was computed rather than served
// from the cache.
type PriceComputed struct {
	ProductID   string
	VariationID string
	CanonicalID string
	AsOf        types.Date
	Result      pricing.Result
	Elapsed     time.Duration
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once when the engine is created. engine is the
// *courseprice.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine is closed.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Pricing hooks
// ──────────────────────────────────────────────────

// OnPriceComputed is called after every cache miss.
type OnPriceComputed interface {
	Plugin
	OnPriceComputed(ctx context.Context, ev PriceComputed) error
}

// OnGuardTriggered is called when a guard short-circuits a computation.
type OnGuardTriggered interface {
	Plugin
	OnGuardTriggered(ctx context.Context, canonicalID string, guard pricing.Guard) error
}

// OnCacheHit is called when a price is served from the cache.
type OnCacheHit interface {
	Plugin
	OnCacheHit(ctx context.Context, canonicalID string, asOf types.Date) error
}

// OnHintMismatch is called when a caller's remaining-sessions hint
// disagrees with the computed value.
type OnHintMismatch interface {
	Plugin
	OnHintMismatch(ctx context.Context, canonicalID string, hint, computed int) error
}

// OnValidationFailed is called when stored metadata cannot be turned into
// a course context.
type OnValidationFailed interface {
	Plugin
	OnValidationFailed(ctx context.Context, objectID string, err error) error
}
