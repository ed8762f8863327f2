// Package course defines the immutable pricing snapshot of one course
// variation and the metadata keys it is assembled from.
package course

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/xraph/courseprice/types"
)

// Weekday is an ISO day of week: Monday=1 through Sunday=7. Zero means the
// weekday could not be resolved.
type Weekday int

// ISO weekdays.
const (
	WeekdayUnknown Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Valid reports whether w is a resolved ISO weekday.
func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

// Params holds the fields a Context is built from.
type Params struct {
	ProductID     string
	VariationID   string
	CanonicalID   string
	BasePrice     types.Money
	TotalSessions int
	SessionRate   types.Money
	StartDate     types.Date
	Holidays      []types.Date
	Weekday       Weekday
	WeekdayLabel  string
}

// Context is an immutable snapshot of the pricing relevant configuration
// of one course variation. Build it with New; the zero value is an empty
// course with no sessions.
type Context struct {
	productID     string
	variationID   string
	canonicalID   string
	basePrice     types.Money
	totalSessions int
	sessionRate   types.Money
	startDate     types.Date
	holidays      []types.Date
	holidaySet    map[types.Date]struct{}
	weekday       Weekday
	weekdayLabel  string
	signature     string
}

// New builds a Context. Negative amounts and counts are clamped to zero,
// holidays are deduplicated and sorted, and the canonical id falls back to
// the variation id and then to the product id.
func New(p Params) Context {
	c := Context{
		productID:     p.ProductID,
		variationID:   p.VariationID,
		canonicalID:   p.CanonicalID,
		basePrice:     p.BasePrice.FloorZero(),
		totalSessions: max(0, p.TotalSessions),
		sessionRate:   p.SessionRate.FloorZero(),
		startDate:     p.StartDate,
		weekday:       p.Weekday,
		weekdayLabel:  p.WeekdayLabel,
	}
	if !c.weekday.Valid() {
		c.weekday = WeekdayUnknown
	}
	if c.canonicalID == "" {
		c.canonicalID = p.VariationID
	}
	if c.canonicalID == "" {
		c.canonicalID = p.ProductID
	}

	c.holidaySet = make(map[types.Date]struct{}, len(p.Holidays))
	for _, h := range p.Holidays {
		if h.IsZero() {
			continue
		}
		if _, dup := c.holidaySet[h]; dup {
			continue
		}
		c.holidaySet[h] = struct{}{}
		c.holidays = append(c.holidays, h)
	}
	slices.SortFunc(c.holidays, func(a, b types.Date) int {
		return a.Time().Compare(b.Time())
	})

	c.signature = c.computeSignature()
	return c
}

// ProductID returns the host catalog product id.
func (c Context) ProductID() string { return c.productID }

// VariationID returns the host catalog variation id.
func (c Context) VariationID() string { return c.variationID }

// CanonicalID returns the identity shared by translated copies of the course.
func (c Context) CanonicalID() string { return c.canonicalID }

// BasePrice returns the undiscounted list price.
func (c Context) BasePrice() types.Money { return c.basePrice }

// TotalSessions returns the configured number of sessions.
func (c Context) TotalSessions() int { return c.totalSessions }

// SessionRate returns the per-session price; zero means proportional pricing.
func (c Context) SessionRate() types.Money { return c.sessionRate }

// StartDate returns the first day of the course, zero when absent.
func (c Context) StartDate() types.Date { return c.startDate }

// Weekday returns the resolved weekday, WeekdayUnknown when unresolved.
func (c Context) Weekday() Weekday { return c.weekday }

// WeekdayLabel returns the raw locale-labeled weekday value.
func (c Context) WeekdayLabel() string { return c.weekdayLabel }

// Holidays returns a sorted copy of the holiday dates.
func (c Context) Holidays() []types.Date { return slices.Clone(c.holidays) }

// IsHoliday reports whether d is a configured holiday.
func (c Context) IsHoliday(d types.Date) bool {
	_, ok := c.holidaySet[d]
	return ok
}

// WithWeekday returns a copy of c with the weekday replaced. The receiver
// is left untouched.
func (c Context) WithWeekday(w Weekday) Context {
	p := c.params()
	p.Weekday = w
	return New(p)
}

// Signature returns the deterministic content signature over the pricing
// relevant fields. Two contexts with equal signatures and canonical ids
// price identically.
func (c Context) Signature() string { return c.signature }

func (c Context) params() Params {
	return Params{
		ProductID:     c.productID,
		VariationID:   c.variationID,
		CanonicalID:   c.canonicalID,
		BasePrice:     c.basePrice,
		TotalSessions: c.totalSessions,
		SessionRate:   c.sessionRate,
		StartDate:     c.startDate,
		Holidays:      c.holidays,
		Weekday:       c.weekday,
		WeekdayLabel:  c.weekdayLabel,
	}
}

func (c Context) computeSignature() string {
	var b strings.Builder
	b.WriteString(c.basePrice.Currency)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(c.basePrice.Amount, 10))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(c.totalSessions))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(c.sessionRate.Amount, 10))
	b.WriteByte('|')
	b.WriteString(c.startDate.String())
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(c.weekday)))
	b.WriteByte('|')
	for i, h := range c.holidays {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(h.String())
	}
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}
