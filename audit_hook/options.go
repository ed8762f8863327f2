package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions sets exactly which actions to audit. Without it every
// action except ActionCacheHit is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool)
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithDisabledActions removes actions from the audited set.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool)
			for _, action := range defaultActions() {
				e.enabled[action] = true
			}
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// defaultActions is the audited set when no option narrows it. Cache hits
// happen on every repeated lookup and are left out.
func defaultActions() []string {
	return []string{
		ActionPriceComputed,
		ActionGuardTriggered,
		ActionHintMismatch,
		ActionValidationFailed,
	}
}
