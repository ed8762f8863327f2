// Package observability provides a metrics plugin for the course price
// engine that records pricing events through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/courseprice/plugin"
	"github.com/xraph/courseprice/pricing"
	"github.com/xraph/courseprice/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnPriceComputed    = (*MetricsExtension)(nil)
	_ plugin.OnGuardTriggered   = (*MetricsExtension)(nil)
	_ plugin.OnCacheHit         = (*MetricsExtension)(nil)
	_ plugin.OnHintMismatch     = (*MetricsExtension)(nil)
	_ plugin.OnValidationFailed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records pricing metrics. Register it as an engine plugin.
type MetricsExtension struct {
	factory MetricFactory

	// Computation metrics
	PricesComputed   Counter
	ComputeLatency   Histogram
	PriceAmount      Histogram
	SessionsLeft     Histogram
	SessionRateUsed  Counter
	ProportionalUsed Counter

	// Cache metrics
	CacheHits Counter

	// Guard metrics
	GuardMissingTotalSessions Counter
	GuardFutureStart          Counter

	// Data quality metrics
	HintMismatches     Counter
	ValidationFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PricesComputed:   factory.Counter("courseprice.price.computed"),
		ComputeLatency:   factory.Histogram("courseprice.price.latency_ms"),
		PriceAmount:      factory.Histogram("courseprice.price.amount"),
		SessionsLeft:     factory.Histogram("courseprice.sessions.remaining"),
		SessionRateUsed:  factory.Counter("courseprice.method.session_rate"),
		ProportionalUsed: factory.Counter("courseprice.method.proportional"),

		CacheHits: factory.Counter("courseprice.cache.hits"),

		GuardMissingTotalSessions: factory.Counter("courseprice.guard.missing_total_sessions"),
		GuardFutureStart:          factory.Counter("courseprice.guard.future_start"),

		HintMismatches:     factory.Counter("courseprice.hint.mismatch"),
		ValidationFailures: factory.Counter("courseprice.validation.failed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// OnPriceComputed implements plugin.OnPriceComputed.
func (m *MetricsExtension) OnPriceComputed(_ context.Context, ev plugin.PriceComputed) error {
	m.PricesComputed.Inc()
	m.ComputeLatency.Observe(float64(ev.Elapsed.Microseconds()) / 1000)
	amount, _ := ev.Result.Price.Decimal().Float64()
	m.PriceAmount.Observe(amount)

	switch ev.Result.Method {
	case pricing.MethodSessionRate:
		m.SessionRateUsed.Inc()
		m.SessionsLeft.Observe(float64(ev.Result.Remaining))
	case pricing.MethodProportional:
		m.ProportionalUsed.Inc()
		m.SessionsLeft.Observe(float64(ev.Result.Remaining))
	}
	return nil
}

// OnGuardTriggered implements plugin.OnGuardTriggered.
func (m *MetricsExtension) OnGuardTriggered(_ context.Context, _ string, guard pricing.Guard) error {
	switch guard {
	case pricing.GuardMissingTotalSessions:
		m.GuardMissingTotalSessions.Inc()
	case pricing.GuardFutureStart:
		m.GuardFutureStart.Inc()
	}
	return nil
}

// OnCacheHit implements plugin.OnCacheHit.
func (m *MetricsExtension) OnCacheHit(_ context.Context, _ string, _ types.Date) error {
	m.CacheHits.Inc()
	return nil
}

// OnHintMismatch implements plugin.OnHintMismatch.
func (m *MetricsExtension) OnHintMismatch(_ context.Context, _ string, _, _ int) error {
	m.HintMismatches.Inc()
	return nil
}

// OnValidationFailed implements plugin.OnValidationFailed.
func (m *MetricsExtension) OnValidationFailed(_ context.Context, _ string, _ error) error {
	m.ValidationFailures.Inc()
	return nil
}
