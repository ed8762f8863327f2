package schedule

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/xraph/courseprice/course"
)

// WeekdayTable maps locale-labeled weekday names to ISO weekdays. Lookups
// are case and accent insensitive. A nil table resolves nothing.
type WeekdayTable struct {
	names map[string]course.Weekday
}

// NewWeekdayTable builds a table from label → weekday pairs.
func NewWeekdayTable(labels map[string]course.Weekday) *WeekdayTable {
	t := &WeekdayTable{names: make(map[string]course.Weekday, len(labels))}
	for label, w := range labels {
		t.Add(label, w)
	}
	return t
}

// Add registers one more label. Invalid weekdays are ignored.
func (t *WeekdayTable) Add(label string, w course.Weekday) {
	if !w.Valid() {
		return
	}
	if key := foldLabel(label); key != "" {
		t.names[key] = w
	}
}

// Lookup resolves label to an ISO weekday. Bare ISO numbers "1".."7" are
// accepted as well. Unresolved labels yield course.WeekdayUnknown.
func (t *WeekdayTable) Lookup(label string) course.Weekday {
	key := foldLabel(label)
	if key == "" {
		return course.WeekdayUnknown
	}
	if n, err := strconv.Atoi(key); err == nil {
		if w := course.Weekday(n); w.Valid() {
			return w
		}
		return course.WeekdayUnknown
	}
	if t == nil {
		return course.WeekdayUnknown
	}
	return t.names[key]
}

// foldLabel lowercases, strips diacritics and surrounding punctuation so
// "Mercredi", "MERCREDI " and "mércredi" share one key.
func foldLabel(label string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, strings.TrimSpace(label))
	if err != nil {
		stripped = strings.TrimSpace(label)
	}
	stripped = strings.TrimFunc(stripped, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return cases.Fold().String(stripped)
}

// DefaultWeekdayTable covers English, French, German, Spanish, Italian and
// Dutch day names plus their common abbreviations.
func DefaultWeekdayTable() *WeekdayTable {
	return NewWeekdayTable(map[string]course.Weekday{
		// English
		"monday": course.Monday, "mon": course.Monday,
		"tuesday": course.Tuesday, "tue": course.Tuesday, "tues": course.Tuesday,
		"wednesday": course.Wednesday, "wed": course.Wednesday,
		"thursday": course.Thursday, "thu": course.Thursday, "thurs": course.Thursday,
		"friday": course.Friday, "fri": course.Friday,
		"saturday": course.Saturday, "sat": course.Saturday,
		"sunday": course.Sunday, "sun": course.Sunday,

		// French
		"lundi": course.Monday, "lun": course.Monday,
		"mardi": course.Tuesday, "mar": course.Tuesday,
		"mercredi": course.Wednesday, "mer": course.Wednesday,
		"jeudi": course.Thursday, "jeu": course.Thursday,
		"vendredi": course.Friday, "ven": course.Friday,
		"samedi": course.Saturday, "sam": course.Saturday,
		"dimanche": course.Sunday, "dim": course.Sunday,

		// German
		"montag": course.Monday, "mo": course.Monday,
		"dienstag": course.Tuesday, "di": course.Tuesday,
		"mittwoch": course.Wednesday, "mi": course.Wednesday,
		"donnerstag": course.Thursday, "do": course.Thursday,
		"freitag": course.Friday, "fr": course.Friday,
		"samstag": course.Saturday, "sonnabend": course.Saturday, "sa": course.Saturday,
		"sonntag": course.Sunday, "so": course.Sunday,

		// Spanish
		"lunes": course.Monday, "martes": course.Tuesday, "miercoles": course.Wednesday,
		"jueves": course.Thursday, "viernes": course.Friday, "sabado": course.Saturday,
		"domingo": course.Sunday,

		// Italian
		"lunedi": course.Monday, "martedi": course.Tuesday, "mercoledi": course.Wednesday,
		"giovedi": course.Thursday, "venerdi": course.Friday, "sabato": course.Saturday,
		"domenica": course.Sunday,

		// Dutch
		"maandag": course.Monday, "dinsdag": course.Tuesday, "woensdag": course.Wednesday,
		"donderdag": course.Thursday, "vrijdag": course.Friday, "zaterdag": course.Saturday,
		"zondag": course.Sunday,
	})
}
