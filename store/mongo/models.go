package mongo

import (
	"strings"
	"time"

	"github.com/xraph/courseprice/course"
)

type objectModel struct {
	ID            string            `bson:"_id"`
	ParentID      string            `bson:"parent_id"`
	Language      string            `bson:"language"`
	LanguageKey   string            `bson:"language_key"`
	TranslationOf string            `bson:"translation_of"`
	Meta          map[string]string `bson:"meta,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func toObjectModel(o *course.Object) *objectModel {
	ts := now()
	return &objectModel{
		ID:            o.ID,
		ParentID:      o.ParentID,
		Language:      o.Language,
		LanguageKey:   strings.ToLower(o.Language),
		TranslationOf: o.TranslationOf,
		Meta:          o.Meta,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
}

func fromObjectModel(m *objectModel) *course.Object {
	meta := m.Meta
	if meta == nil {
		meta = make(map[string]string)
	}
	return &course.Object{
		ID:            m.ID,
		ParentID:      m.ParentID,
		Language:      m.Language,
		TranslationOf: m.TranslationOf,
		Meta:          meta,
	}
}
