// Package pricing turns schedule facts into what a customer currently owes
// for a course.
package pricing

import (
	"context"
	"log/slog"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/schedule"
	"github.com/xraph/courseprice/types"
)

// Guard names the short-circuit that produced a fallback price.
type Guard string

const (
	GuardNone                 Guard = "none"
	GuardMissingTotalSessions Guard = "missing_total_sessions"
	GuardFutureStart          Guard = "future_start"
)

// Fired reports whether a guard short-circuited the calculation.
func (g Guard) Fired() bool { return g != "" && g != GuardNone }

// Method describes how a non-guarded price was derived.
type Method string

const (
	MethodGuard        Method = "guard"
	MethodSessionRate  Method = "session_rate"
	MethodProportional Method = "proportional"
)

// Result is the outcome of one price calculation.
type Result struct {
	Price     types.Money `json:"price"`
	Guard     Guard       `json:"guard"`
	Method    Method      `json:"method"`
	Remaining int         `json:"remaining_sessions"`
	Total     int         `json:"total_sessions"`
	// HintMismatch is set when a caller supplied remaining-sessions hint
	// disagreed with the computed value.
	HintMismatch bool `json:"hint_mismatch,omitempty"`
}

// Hint is a caller supplied remaining-sessions value. It is compared with
// the computed value and never used in its place.
type Hint struct {
	Remaining int
	Valid     bool
}

// RemainingHint returns a valid Hint.
func RemainingHint(n int) Hint { return Hint{Remaining: n, Valid: true} }

// Calculator applies the guard and fallback rules on top of a schedule
// calculator.
type Calculator struct {
	schedule *schedule.Calculator
	logger   *slog.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for hint mismatch warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// NewCalculator creates a pricing Calculator. A nil schedule calculator
// gets the defaults.
func NewCalculator(sc *schedule.Calculator, opts ...Option) *Calculator {
	if sc == nil {
		sc = schedule.NewCalculator()
	}
	c := &Calculator{
		schedule: sc,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule returns the underlying schedule calculator.
func (c *Calculator) Schedule() *schedule.Calculator { return c.schedule }

// Calculate prices cc on asOf.
//
//  1. No sessions configured: base price, guard missing_total_sessions.
//  2. asOf before the start date: base price, guard future_start.
//  3. A positive session rate with sessions left: rate × remaining.
//  4. Otherwise base price scaled by remaining/total, never above the base
//     price and zero once nothing remains.
//
// The result is floored at zero.
func (c *Calculator) Calculate(ctx context.Context, cc course.Context, asOf types.Date, hint Hint) Result {
	base := cc.BasePrice()

	if cc.TotalSessions() <= 0 {
		return Result{Price: base, Guard: GuardMissingTotalSessions, Method: MethodGuard}
	}

	if start := cc.StartDate(); !start.IsZero() && asOf.Before(start) {
		return Result{
			Price:     base,
			Guard:     GuardFutureStart,
			Method:    MethodGuard,
			Remaining: cc.TotalSessions(),
			Total:     c.schedule.TotalSessions(cc),
		}
	}

	remaining := c.schedule.RemainingSessions(cc, asOf)
	total := c.schedule.TotalSessions(cc)
	res := Result{Guard: GuardNone, Remaining: remaining, Total: total}
	res.HintMismatch = c.hintMismatch(ctx, cc, asOf, hint, remaining)

	rate := cc.SessionRate()
	switch {
	case rate.IsPositive() && remaining > 0:
		res.Method = MethodSessionRate
		res.Price = rate.Multiply(int64(remaining))
	default:
		res.Method = MethodProportional
		res.Price = proportional(base, remaining, total)
	}

	res.Price = res.Price.FloorZero()
	return res
}

func proportional(base types.Money, remaining, total int) types.Money {
	switch {
	case remaining <= 0:
		return types.Zero(base.Currency)
	case total <= 0 || remaining >= total:
		return base
	default:
		return base.Ratio(int64(remaining), int64(total))
	}
}

// CheckHint compares hint with the remaining sessions Calculate would use
// for cc on asOf and logs a warning when they differ. Guarded inputs never
// mismatch, since Calculate does not consult the hint for them.
func (c *Calculator) CheckHint(ctx context.Context, cc course.Context, asOf types.Date, hint Hint) (computed int, mismatch bool) {
	if !hint.Valid || cc.TotalSessions() <= 0 {
		return 0, false
	}
	if start := cc.StartDate(); !start.IsZero() && asOf.Before(start) {
		return cc.TotalSessions(), false
	}
	computed = c.schedule.RemainingSessions(cc, asOf)
	return computed, c.hintMismatch(ctx, cc, asOf, hint, computed)
}

func (c *Calculator) hintMismatch(ctx context.Context, cc course.Context, asOf types.Date, hint Hint, remaining int) bool {
	if !hint.Valid || hint.Remaining == remaining {
		return false
	}
	c.logger.WarnContext(ctx, "remaining sessions hint disagrees with schedule",
		"canonical_id", cc.CanonicalID(),
		"hint", hint.Remaining,
		"computed", remaining,
		"as_of", asOf.String(),
	)
	return true
}
