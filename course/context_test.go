package course

import (
	"testing"

	"github.com/xraph/courseprice/types"
)

func baseParams() Params {
	return Params{
		ProductID:     "100",
		VariationID:   "101",
		BasePrice:     types.USD(20000),
		TotalSessions: 10,
		SessionRate:   types.USD(2000),
		StartDate:     types.MustParseDate("2024-01-01"),
		Holidays:      []types.Date{types.MustParseDate("2024-01-15"), types.MustParseDate("2024-01-08")},
		Weekday:       Monday,
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(Params{ProductID: "7", TotalSessions: -3, BasePrice: types.USD(-100), Weekday: 9})

	if c.CanonicalID() != "7" {
		t.Errorf("CanonicalID: got %q, want product fallback", c.CanonicalID())
	}
	if c.TotalSessions() != 0 {
		t.Errorf("TotalSessions: got %d, want 0", c.TotalSessions())
	}
	if !c.BasePrice().IsZero() {
		t.Errorf("BasePrice: got %v, want zero", c.BasePrice())
	}
	if c.Weekday() != WeekdayUnknown {
		t.Errorf("Weekday: got %d, want unknown", c.Weekday())
	}
	if !c.StartDate().IsZero() {
		t.Error("StartDate: expected absent")
	}
}

func TestCanonicalFallsBackToVariation(t *testing.T) {
	c := New(baseParams())
	if c.CanonicalID() != "101" {
		t.Errorf("got %q, want 101", c.CanonicalID())
	}

	p := baseParams()
	p.CanonicalID = "55"
	if got := New(p).CanonicalID(); got != "55" {
		t.Errorf("got %q, want 55", got)
	}
}

func TestHolidaysSortedAndDeduplicated(t *testing.T) {
	p := baseParams()
	p.Holidays = append(p.Holidays, types.MustParseDate("2024-01-08"), types.Date{})
	c := New(p)

	got := c.Holidays()
	if len(got) != 2 {
		t.Fatalf("expected 2 holidays, got %d", len(got))
	}
	if got[0].String() != "2024-01-08" || got[1].String() != "2024-01-15" {
		t.Errorf("unexpected order: %v", got)
	}
	if !c.IsHoliday(types.MustParseDate("2024-01-15")) {
		t.Error("expected 2024-01-15 to be a holiday")
	}
	if c.IsHoliday(types.MustParseDate("2024-01-22")) {
		t.Error("did not expect 2024-01-22 to be a holiday")
	}

	// Mutating the returned slice must not leak back.
	got[0] = types.MustParseDate("2030-01-01")
	if c.Holidays()[0].String() != "2024-01-08" {
		t.Error("Holidays returned shared storage")
	}
}

func TestSignature(t *testing.T) {
	a := New(baseParams())

	reordered := baseParams()
	reordered.Holidays = []types.Date{
		types.MustParseDate("2024-01-08"),
		types.MustParseDate("2024-01-15"),
		types.MustParseDate("2024-01-15"),
	}
	reordered.ProductID = "other"
	b := New(reordered)

	if a.Signature() != b.Signature() {
		t.Errorf("expected equal signatures for equivalent content: %s != %s", a.Signature(), b.Signature())
	}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"base price", func(p *Params) { p.BasePrice = types.USD(20001) }},
		{"total sessions", func(p *Params) { p.TotalSessions = 11 }},
		{"session rate", func(p *Params) { p.SessionRate = types.USD(0) }},
		{"start date", func(p *Params) { p.StartDate = types.MustParseDate("2024-01-02") }},
		{"holidays", func(p *Params) { p.Holidays = nil }},
		{"weekday", func(p *Params) { p.Weekday = Tuesday }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			if New(p).Signature() == a.Signature() {
				t.Errorf("signature did not change when %s changed", tt.name)
			}
		})
	}
}

func TestWithWeekdayLeavesReceiver(t *testing.T) {
	p := baseParams()
	p.Weekday = WeekdayUnknown
	c := New(p)

	d := c.WithWeekday(Wednesday)
	if c.Weekday() != WeekdayUnknown {
		t.Error("receiver was mutated")
	}
	if d.Weekday() != Wednesday {
		t.Errorf("got %d, want Wednesday", d.Weekday())
	}
	if c.Signature() == d.Signature() {
		t.Error("expected signature to change with weekday")
	}
}
