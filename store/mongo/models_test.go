package mongo

import (
	"testing"

	"github.com/xraph/courseprice/course"
)

func TestObjectModelLanguageKey(t *testing.T) {
	m := toObjectModel(&course.Object{ID: "21", Language: "FR", TranslationOf: "11"})
	if m.LanguageKey != "fr" {
		t.Errorf("LanguageKey: got %q", m.LanguageKey)
	}
	if m.Language != "FR" {
		t.Errorf("Language must be kept as given, got %q", m.Language)
	}
	if m.CreatedAt.IsZero() || !m.CreatedAt.Equal(m.UpdatedAt) {
		t.Errorf("timestamps: %v / %v", m.CreatedAt, m.UpdatedAt)
	}
}

func TestFromObjectModelNilMeta(t *testing.T) {
	o := fromObjectModel(&objectModel{ID: "1"})
	if o.Meta == nil {
		t.Fatal("Meta must never be nil")
	}
	if o.Get(course.MetaPrice) != "" {
		t.Errorf("unexpected value %q", o.Get(course.MetaPrice))
	}
}

func TestMigrationIndexes(t *testing.T) {
	idx := migrationIndexes()
	if len(idx[colObjects]) != 2 {
		t.Errorf("expected 2 indexes on %s, got %d", colObjects, len(idx[colObjects]))
	}
}
