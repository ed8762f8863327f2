package audithook

// Action constants for audit events.
const (
	// Pricing actions
	ActionPriceComputed  = "price.computed"
	ActionGuardTriggered = "price.guard_triggered"
	ActionCacheHit       = "price.cache_hit"

	// Data quality actions
	ActionHintMismatch     = "hint.mismatch"
	ActionValidationFailed = "metadata.invalid"
)

// Resource constants for audit events.
const (
	ResourceCourse   = "course"
	ResourceMetadata = "metadata"
)

// Category constants for audit events.
const (
	CategoryPricing     = "pricing"
	CategoryDataQuality = "data_quality"
)

// Severity levels for audit events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Outcome values for audit events.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeFailure  = "failure"
)
