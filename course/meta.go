package course

import "maps"

// Metadata keys read from the host store. Variation values override the
// parent product's values key by key.
const (
	MetaStartDate     = "_course_start_date"
	MetaTotalSessions = "_course_total_sessions"
	MetaSessionRate   = "_course_session_rate"
	MetaWeekday       = "_course_weekday"
	MetaHolidays      = "_course_holidays"
	MetaPrice         = "_price"
	MetaRegularPrice  = "_regular_price"
	MetaCurrency      = "_currency"
)

// Keys lists every metadata key the repository reads.
var Keys = []string{
	MetaStartDate,
	MetaTotalSessions,
	MetaSessionRate,
	MetaWeekday,
	MetaHolidays,
	MetaPrice,
	MetaRegularPrice,
	MetaCurrency,
}

// Object is one host catalog object (a product or one of its variations)
// with its raw metadata values. TranslationOf points at the object this one
// was translated from, if any.
type Object struct {
	ID            string            `json:"id"`
	ParentID      string            `json:"parent_id,omitempty"`
	Language      string            `json:"language,omitempty"`
	TranslationOf string            `json:"translation_of,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// Get returns the raw value for key, or "" when unset.
func (o *Object) Get(key string) string {
	if o == nil || o.Meta == nil {
		return ""
	}
	return o.Meta[key]
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	c.Meta = maps.Clone(o.Meta)
	return &c
}
