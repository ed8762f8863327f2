package meta

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/schedule"
	"github.com/xraph/courseprice/store/memory"
	"github.com/xraph/courseprice/types"
)

// countingStore counts reads that reach the backend.
type countingStore struct {
	*memory.Store
	reads atomic.Int32
}

func (s *countingStore) GetObject(ctx context.Context, objectID string) (*course.Object, error) {
	s.reads.Add(1)
	return s.Store.GetObject(ctx, objectID)
}

func (s *countingStore) GetObjects(ctx context.Context, ids []string) (map[string]*course.Object, error) {
	s.reads.Add(1)
	return s.Store.GetObjects(ctx, ids)
}

func (s *countingStore) FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error) {
	s.reads.Add(1)
	return s.Store.FindTranslation(ctx, sourceID, language)
}

func (s *countingStore) ListChildren(ctx context.Context, parentID string) ([]*course.Object, error) {
	s.reads.Add(1)
	return s.Store.ListChildren(ctx, parentID)
}

func catalog() *memory.Store {
	return memory.New().Seed(
		&course.Object{ID: "100", Language: "en", Meta: map[string]string{
			course.MetaStartDate:     "2024-01-01",
			course.MetaTotalSessions: "10",
			course.MetaWeekday:       "Monday",
			course.MetaHolidays:      "2024-01-08, 2024-01-15",
			course.MetaPrice:         "200.00",
		}},
		&course.Object{ID: "101", ParentID: "100", Language: "en", Meta: map[string]string{
			course.MetaSessionRate: "20",
			course.MetaWeekday:     "Mittwoch",
		}},
		&course.Object{ID: "102", ParentID: "100", Language: "en", Meta: map[string]string{
			course.MetaPrice: "150",
		}},
		&course.Object{ID: "201", ParentID: "200", Language: "fr", TranslationOf: "101"},
	)
}

func TestBuildMergesVariationOverProduct(t *testing.T) {
	r := NewRepository(catalog())

	cc, err := r.Build(context.Background(), "100", "101")
	if err != nil {
		t.Fatal(err)
	}
	if cc.Weekday() != course.Wednesday {
		t.Errorf("Weekday: got %d, want Wednesday from variation", cc.Weekday())
	}
	if cc.TotalSessions() != 10 {
		t.Errorf("TotalSessions: got %d, want 10 from product", cc.TotalSessions())
	}
	if !cc.SessionRate().Equal(types.USD(2000)) {
		t.Errorf("SessionRate: got %v", cc.SessionRate())
	}
	if !cc.BasePrice().Equal(types.USD(20000)) {
		t.Errorf("BasePrice: got %v", cc.BasePrice())
	}
	if cc.StartDate().String() != "2024-01-01" {
		t.Errorf("StartDate: got %s", cc.StartDate())
	}
	if len(cc.Holidays()) != 2 {
		t.Errorf("Holidays: got %v", cc.Holidays())
	}
	if cc.CanonicalID() != "101" {
		t.Errorf("CanonicalID: got %s", cc.CanonicalID())
	}
}

func TestBuildVariationWithoutProductID(t *testing.T) {
	cc, err := NewRepository(catalog()).Build(context.Background(), "", "102")
	if err != nil {
		t.Fatal(err)
	}
	if cc.ProductID() != "100" {
		t.Errorf("ProductID: got %q, want parent", cc.ProductID())
	}
	if !cc.BasePrice().Equal(types.USD(15000)) {
		t.Errorf("BasePrice: got %v, want variation override", cc.BasePrice())
	}
	if cc.TotalSessions() != 10 {
		t.Errorf("TotalSessions: got %d, want inherited 10", cc.TotalSessions())
	}
}

func TestBuildMissingObjectsGiveDefaults(t *testing.T) {
	cc, err := NewRepository(memory.New()).Build(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("missing objects must not be an error: %v", err)
	}
	if cc.TotalSessions() != 0 || len(cc.Holidays()) != 0 || cc.Weekday() != course.WeekdayUnknown {
		t.Errorf("expected defaults, got %+v", cc)
	}
	if !cc.StartDate().IsZero() {
		t.Errorf("StartDate: got %s", cc.StartDate())
	}
	if cc.CanonicalID() != "2" {
		t.Errorf("CanonicalID: got %s", cc.CanonicalID())
	}
}

func TestBuildWithBasePrice(t *testing.T) {
	cc, err := NewRepository(catalog()).Build(context.Background(), "100", "101", WithBasePrice(types.USD(999)))
	if err != nil {
		t.Fatal(err)
	}
	if !cc.BasePrice().Equal(types.USD(999)) {
		t.Errorf("BasePrice: got %v", cc.BasePrice())
	}
}

func TestBuildRegularPriceFallback(t *testing.T) {
	st := memory.New().Seed(&course.Object{ID: "1", Meta: map[string]string{
		course.MetaRegularPrice: "49.90",
		course.MetaCurrency:     "EUR",
	}})
	cc, err := NewRepository(st).Build(context.Background(), "1", "")
	if err != nil {
		t.Fatal(err)
	}
	if !cc.BasePrice().Equal(types.EUR(4990)) {
		t.Errorf("BasePrice: got %v", cc.BasePrice())
	}
}

func TestBuildVariationPriceKeysWin(t *testing.T) {
	st := memory.New().Seed(
		&course.Object{ID: "1", Meta: map[string]string{course.MetaPrice: "200.00"}},
		&course.Object{ID: "2", ParentID: "1", Meta: map[string]string{course.MetaRegularPrice: "150.00"}},
		&course.Object{ID: "3", ParentID: "1"},
	)
	r := NewRepository(st)

	cc, err := r.Build(context.Background(), "1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !cc.BasePrice().Equal(types.USD(15000)) {
		t.Errorf("variation regular price: got %v, want 150.00", cc.BasePrice())
	}

	cc, err = r.Build(context.Background(), "1", "3")
	if err != nil {
		t.Fatal(err)
	}
	if !cc.BasePrice().Equal(types.USD(20000)) {
		t.Errorf("product fallback: got %v, want 200.00", cc.BasePrice())
	}
}

func TestBuildMalformedValues(t *testing.T) {
	tests := []struct {
		name      string
		meta      map[string]string
		wantField string
	}{
		{"bad start date", map[string]string{course.MetaStartDate: "01/02/2024"}, course.MetaStartDate},
		{"start date with time", map[string]string{course.MetaStartDate: "2024-01-01T10:00:00"}, course.MetaStartDate},
		{"bad holiday", map[string]string{course.MetaHolidays: "2024-01-08,2024-13-01"}, course.MetaHolidays},
		{"bad holiday json", map[string]string{course.MetaHolidays: `["2024-01-08"`}, course.MetaHolidays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New().Seed(&course.Object{ID: "1", Meta: tt.meta})
			_, err := NewRepository(st).Build(context.Background(), "1", "")

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field: got %s, want %s", verr.Field, tt.wantField)
			}
			if !errors.Is(err, types.ErrInvalidDate) {
				t.Errorf("expected ErrInvalidDate in chain, got %v", err)
			}
		})
	}
}

func TestBuildIgnoresMalformedNumbers(t *testing.T) {
	st := memory.New().Seed(&course.Object{ID: "1", Meta: map[string]string{
		course.MetaTotalSessions: "ten",
		course.MetaSessionRate:   "twenty",
		course.MetaPrice:         "-5",
	}})
	cc, err := NewRepository(st).Build(context.Background(), "1", "")
	if err != nil {
		t.Fatal(err)
	}
	if cc.TotalSessions() != 0 || !cc.SessionRate().IsZero() || !cc.BasePrice().IsZero() {
		t.Errorf("expected zeroed values, got sessions=%d rate=%v base=%v",
			cc.TotalSessions(), cc.SessionRate(), cc.BasePrice())
	}
}

func TestParseSessions(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"", 0, true},
		{" 10 ", 10, true},
		{"-3", 0, true},
		{"1000", 1000, true},
		{"1001", 0, false},
		{"4294967296", 0, false},
		{"ten", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSessions(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%q: got (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBuildRejectsHugeSessionCount(t *testing.T) {
	st := memory.New().Seed(&course.Object{ID: "1", Meta: map[string]string{
		course.MetaTotalSessions: "4294967296",
		course.MetaStartDate:     "2024-01-01",
		course.MetaWeekday:       "Monday",
	}})
	cc, err := NewRepository(st).Build(context.Background(), "1", "")
	if err != nil {
		t.Fatal(err)
	}
	if cc.TotalSessions() != 0 {
		t.Errorf("TotalSessions: got %d, want 0", cc.TotalSessions())
	}
}

func TestParseHolidays(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"2024-01-08", 1},
		{"2024-01-08,2024-01-15", 2},
		{"2024-01-08; 2024-01-15", 2},
		{"2024-01-08\n2024-01-15\r\n", 2},
		{`["2024-01-08","2024-01-15","2024-01-08"]`, 3},
		{" , ,2024-01-08", 1},
	}
	for _, tt := range tests {
		got, _, err := parseHolidays(tt.raw)
		if err != nil {
			t.Errorf("%q: %v", tt.raw, err)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("%q: got %d dates, want %d", tt.raw, len(got), tt.want)
		}
	}
}

func TestTranslationResolver(t *testing.T) {
	st := catalog()
	resolve := TranslationResolver(st, "en")
	ctx := context.Background()

	if got := resolve(ctx, "201"); got != "101" {
		t.Errorf("french copy: got %s, want 101", got)
	}
	if got := resolve(ctx, "101"); got != "101" {
		t.Errorf("original: got %s", got)
	}
	if got := resolve(ctx, "unknown"); got != "unknown" {
		t.Errorf("unknown: got %s", got)
	}

	// Both language copies share one canonical identity.
	r := NewRepository(st, WithCanonicalResolver(resolve))
	en, _ := r.Build(ctx, "100", "101")
	fr, _ := r.Build(ctx, "200", "201")
	if en.CanonicalID() != fr.CanonicalID() {
		t.Errorf("canonical ids differ: %s vs %s", en.CanonicalID(), fr.CanonicalID())
	}
}

func TestScopeResolvesTranslationsThroughMemo(t *testing.T) {
	st := &countingStore{Store: catalog()}
	r := NewRepository(st, WithDefaultLanguage("en")).Scope()
	ctx := context.Background()

	fr, err := r.Build(ctx, "200", "201")
	if err != nil {
		t.Fatal(err)
	}
	if fr.CanonicalID() != "101" {
		t.Errorf("canonical id: got %s, want 101", fr.CanonicalID())
	}
	first := st.reads.Load()

	if _, err := r.Build(ctx, "200", "201"); err != nil {
		t.Fatal(err)
	}
	if st.reads.Load() != first {
		t.Errorf("repeated build hit the store: %d reads", st.reads.Load()-first)
	}

	en, err := r.Build(ctx, "100", "101")
	if err != nil {
		t.Fatal(err)
	}
	if en.CanonicalID() != fr.CanonicalID() {
		t.Errorf("canonical ids differ: %s vs %s", en.CanonicalID(), fr.CanonicalID())
	}
}

func TestUnscopedDefaultLanguage(t *testing.T) {
	r := NewRepository(catalog(), WithDefaultLanguage("en"))
	cc, err := r.Build(context.Background(), "200", "201")
	if err != nil {
		t.Fatal(err)
	}
	if cc.CanonicalID() != "101" {
		t.Errorf("canonical id: got %s, want 101", cc.CanonicalID())
	}
}

func TestScopeWarmsSiblings(t *testing.T) {
	st := &countingStore{Store: catalog()}
	r := NewRepository(st, WithSiblingWarming(true)).Scope()
	ctx := context.Background()

	if _, err := r.Build(ctx, "100", "101"); err != nil {
		t.Fatal(err)
	}
	first := st.reads.Load()
	if first != 2 {
		t.Errorf("first build: got %d reads, want batch + children", first)
	}

	if _, err := r.Build(ctx, "100", "102"); err != nil {
		t.Fatal(err)
	}
	if st.reads.Load() != first {
		t.Errorf("sibling build hit the store: %d reads", st.reads.Load()-first)
	}
	if r.memo.size() != 3 {
		t.Errorf("memo: got %d objects, want product + 2 variations", r.memo.size())
	}
}

func TestUnscopedRepositoryDoesNotMemoize(t *testing.T) {
	st := &countingStore{Store: catalog()}
	r := NewRepository(st, WithSiblingWarming(true))
	ctx := context.Background()

	_, _ = r.Build(ctx, "100", "101")
	_, _ = r.Build(ctx, "100", "101")
	if st.reads.Load() != 2 {
		t.Errorf("got %d reads, want one batch per build", st.reads.Load())
	}
}

func TestCustomWeekdayTable(t *testing.T) {
	st := memory.New().Seed(&course.Object{ID: "1", Meta: map[string]string{course.MetaWeekday: "środa"}})
	table := schedule.DefaultWeekdayTable()
	table.Add("środa", course.Wednesday)

	cc, err := NewRepository(st, WithWeekdayTable(table)).Build(context.Background(), "1", "")
	if err != nil {
		t.Fatal(err)
	}
	if cc.Weekday() != course.Wednesday {
		t.Errorf("Weekday: got %d", cc.Weekday())
	}
}
