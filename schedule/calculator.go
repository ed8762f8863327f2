// Package schedule walks the calendar of a weekly course: which days are
// sessions, when the course ends and how many sessions are left on a date.
//
// All walks are bounded. A course of N sessions is searched over at most
// N × WindowFactor days (14 by default, i.e. two calendar weeks per
// session). When holidays push the course beyond that window the walk
// stops and reports the sessions it found instead of failing.
package schedule

import (
	"math"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/types"
)

// DefaultWindowFactor is the default number of days searched per session.
const DefaultWindowFactor = 14

// MaxSessions is the largest session count a walk honors. Larger counts
// are walked as MaxSessions.
const MaxSessions = 1000

// Calculator performs pure date arithmetic over a course.Context. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	windowFactor int
	weekdays     *WeekdayTable
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithWindowFactor sets the iteration cap multiplier. Values below 7 are
// raised to 7 so one session per week always fits.
func WithWindowFactor(n int) Option {
	return func(c *Calculator) {
		c.windowFactor = max(7, n)
	}
}

// WithWeekdayTable replaces the label lookup table.
func WithWeekdayTable(t *WeekdayTable) Option {
	return func(c *Calculator) {
		c.weekdays = t
	}
}

// NewCalculator creates a Calculator with the default window and weekday table.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		windowFactor: DefaultWindowFactor,
		weekdays:     DefaultWeekdayTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WindowFactor returns the configured iteration cap multiplier.
func (c *Calculator) WindowFactor() int { return c.windowFactor }

// ResolveWeekday returns the context's weekday, falling back to a lookup of
// its raw label. Unresolved input yields course.WeekdayUnknown.
func (c *Calculator) ResolveWeekday(cc course.Context) course.Weekday {
	if w := cc.Weekday(); w.Valid() {
		return w
	}
	return c.weekdays.Lookup(cc.WeekdayLabel())
}

// walkable reports whether the course has enough data to walk a calendar.
func (c *Calculator) walkable(cc course.Context) (course.Weekday, bool) {
	if cc.TotalSessions() <= 0 || cc.StartDate().IsZero() {
		return course.WeekdayUnknown, false
	}
	w := c.ResolveWeekday(cc)
	return w, w.Valid()
}

func isSession(cc course.Context, w course.Weekday, d types.Date) bool {
	return d.ISOWeekday() == int(w) && !cc.IsHoliday(d)
}

// Sessions returns the dates of every session in order, starting on the
// start date. It returns nil when the weekday or start date is missing.
// The result may hold fewer than TotalSessions dates when the search
// window runs out.
func (c *Calculator) Sessions(cc course.Context) []types.Date {
	w, ok := c.walkable(cc)
	if !ok {
		return nil
	}

	want := min(cc.TotalSessions(), MaxSessions)
	limit := math.MaxInt
	if c.windowFactor <= math.MaxInt/want {
		limit = want * c.windowFactor
	}
	dates := make([]types.Date, 0, min(want, 64))

	day := cc.StartDate()
	for i := 0; i < limit && len(dates) < want; i++ {
		if isSession(cc, w, day) {
			dates = append(dates, day)
		}
		day = day.AddDays(1)
	}
	return dates
}

// TotalSessions counts the sessions actually scheduled by the walk. When
// the calendar cannot be walked (no start date or weekday) the configured
// count is returned unchanged.
func (c *Calculator) TotalSessions(cc course.Context) int {
	if cc.TotalSessions() <= 0 {
		return 0
	}
	if _, ok := c.walkable(cc); !ok {
		return cc.TotalSessions()
	}
	return len(c.Sessions(cc))
}

// EndDate returns the date of the last session. It is zero when the
// weekday is unresolved, the start date is absent or no session fits the
// search window.
func (c *Calculator) EndDate(cc course.Context) types.Date {
	dates := c.Sessions(cc)
	if len(dates) == 0 {
		return types.Date{}
	}
	return dates[len(dates)-1]
}

// RemainingSessions returns the number of sessions on or after asOf.
//
// Missing data fails open: without a start date or weekday the full term is
// considered remaining. Before the start date nothing has been consumed and
// after the end date nothing is left.
func (c *Calculator) RemainingSessions(cc course.Context, asOf types.Date) int {
	total := cc.TotalSessions()
	if total <= 0 {
		return 0
	}
	w, ok := c.walkable(cc)
	if !ok {
		return total
	}
	if asOf.Before(cc.StartDate()) {
		return total
	}

	end := c.EndDate(cc)
	if end.IsZero() {
		return total
	}
	if asOf.After(end) {
		return 0
	}

	remaining := 0
	for day := asOf; !day.After(end); day = day.AddDays(1) {
		if isSession(cc, w, day) {
			remaining++
		}
	}
	return min(max(remaining, 0), total)
}

// SessionsElapsed counts sessions strictly before asOf.
func (c *Calculator) SessionsElapsed(cc course.Context, asOf types.Date) int {
	elapsed := 0
	for _, d := range c.Sessions(cc) {
		if !d.Before(asOf) {
			break
		}
		elapsed++
	}
	return elapsed
}

// Facts bundles the schedule outputs for one as-of date.
type Facts struct {
	Weekday   course.Weekday `json:"weekday"`
	Total     int            `json:"total_sessions"`
	Remaining int            `json:"remaining_sessions"`
	Elapsed   int            `json:"elapsed_sessions"`
	EndDate   types.Date     `json:"end_date"`
}

// Facts computes every schedule output for cc on asOf.
func (c *Calculator) Facts(cc course.Context, asOf types.Date) Facts {
	return Facts{
		Weekday:   c.ResolveWeekday(cc),
		Total:     c.TotalSessions(cc),
		Remaining: c.RemainingSessions(cc, asOf),
		Elapsed:   c.SessionsElapsed(cc, asOf),
		EndDate:   c.EndDate(cc),
	}
}
