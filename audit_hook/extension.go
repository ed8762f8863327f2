// Package audithook bridges course price engine events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// a specific audit library. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/courseprice/plugin"
	"github.com/xraph/courseprice/pricing"
	"github.com/xraph/courseprice/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnPriceComputed    = (*Extension)(nil)
	_ plugin.OnGuardTriggered   = (*Extension)(nil)
	_ plugin.OnCacheHit         = (*Extension)(nil)
	_ plugin.OnHintMismatch     = (*Extension)(nil)
	_ plugin.OnValidationFailed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension records pricing decisions in an audit trail, so a disputed
// price can be traced back to the guard, method and session counts that
// produced it.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = defaultActions
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Pricing hooks
// ──────────────────────────────────────────────────

// OnPriceComputed implements plugin.OnPriceComputed.
func (e *Extension) OnPriceComputed(ctx context.Context, ev plugin.PriceComputed) error {
	outcome := OutcomeSuccess
	if ev.Result.Guard.Fired() {
		outcome = OutcomeFallback
	}
	return e.record(ctx, ActionPriceComputed, SeverityInfo, outcome,
		ResourceCourse, ev.CanonicalID, CategoryPricing, nil,
		"product_id", ev.ProductID,
		"variation_id", ev.VariationID,
		"as_of", ev.AsOf.String(),
		"price", ev.Result.Price.FormatMajor(),
		"currency", ev.Result.Price.Currency,
		"method", string(ev.Result.Method),
		"guard", string(ev.Result.Guard),
		"remaining_sessions", ev.Result.Remaining,
		"total_sessions", ev.Result.Total,
	)
}

// OnGuardTriggered implements plugin.OnGuardTriggered.
func (e *Extension) OnGuardTriggered(ctx context.Context, canonicalID string, guard pricing.Guard) error {
	return e.record(ctx, ActionGuardTriggered, SeverityInfo, OutcomeFallback,
		ResourceCourse, canonicalID, CategoryPricing, nil,
		"guard", string(guard),
	)
}

// OnCacheHit implements plugin.OnCacheHit.
func (e *Extension) OnCacheHit(ctx context.Context, canonicalID string, asOf types.Date) error {
	return e.record(ctx, ActionCacheHit, SeverityInfo, OutcomeSuccess,
		ResourceCourse, canonicalID, CategoryPricing, nil,
		"as_of", asOf.String(),
	)
}

// ──────────────────────────────────────────────────
// Data quality hooks
// ──────────────────────────────────────────────────

// OnHintMismatch implements plugin.OnHintMismatch.
func (e *Extension) OnHintMismatch(ctx context.Context, canonicalID string, hint, computed int) error {
	return e.record(ctx, ActionHintMismatch, SeverityWarning, OutcomeSuccess,
		ResourceCourse, canonicalID, CategoryDataQuality, nil,
		"hint", hint,
		"computed", computed,
	)
}

// OnValidationFailed implements plugin.OnValidationFailed.
func (e *Extension) OnValidationFailed(ctx context.Context, objectID string, err error) error {
	return e.record(ctx, ActionValidationFailed, SeverityError, OutcomeFailure,
		ResourceMetadata, objectID, CategoryDataQuality, err,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func (e *Extension) isEnabled(action string) bool {
	if e.enabled != nil {
		return e.enabled[action]
	}
	return action != ActionCacheHit
}

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged, never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if !e.isEnabled(action) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.WarnContext(ctx, "audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
