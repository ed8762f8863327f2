package meta

import (
	"context"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/store"
)

// CanonicalResolver maps an object id to the id that identifies the same
// course across translations and duplicates. It must not fail; return the
// input when nothing better is known.
type CanonicalResolver func(ctx context.Context, objectID string) string

// IdentityResolver is the resolver for installs without a translation layer.
func IdentityResolver(_ context.Context, objectID string) string { return objectID }

// TranslationResolver resolves objectID to its translation in
// defaultLanguage using the store's translation links. Lookup failures fall
// back to the translation source, then to objectID itself.
//
// It reads st on every call. A Repository configured WithDefaultLanguage
// resolves the same way through its scope memo instead.
func TranslationResolver(st store.Store, defaultLanguage string) CanonicalResolver {
	return func(ctx context.Context, objectID string) string {
		return resolveTranslation(ctx, st, defaultLanguage, objectID)
	}
}

// objectReader is the part of store.Store translation lookups need.
type objectReader interface {
	GetObject(ctx context.Context, objectID string) (*course.Object, error)
	FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error)
}

func resolveTranslation(ctx context.Context, objects objectReader, language, objectID string) string {
	if objectID == "" {
		return ""
	}
	o, err := objects.GetObject(ctx, objectID)
	if err != nil {
		return objectID
	}
	source := o.ID
	if o.TranslationOf != "" {
		source = o.TranslationOf
	}
	if language == "" {
		return source
	}
	t, err := objects.FindTranslation(ctx, source, language)
	if err != nil {
		return source
	}
	return t.ID
}

// memoReader serves reads from a scope memo and records what it fetches.
type memoReader struct {
	store store.Store
	memo  *objectMemo
}

func (m memoReader) GetObject(ctx context.Context, objectID string) (*course.Object, error) {
	if m.memo.has(objectID) {
		if o := m.memo.get(objectID); o != nil {
			return o, nil
		}
		return nil, store.ErrNotFound
	}
	o, err := m.store.GetObject(ctx, objectID)
	switch {
	case store.IsNotFound(err):
		m.memo.put(objectID, nil)
	case err == nil:
		m.memo.put(objectID, o)
	}
	return o, err
}

func (m memoReader) FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error) {
	if translationID, ok := m.memo.translation(sourceID, language); ok {
		if o := m.memo.get(translationID); o != nil {
			return o, nil
		}
		return nil, store.ErrNotFound
	}
	o, err := m.store.FindTranslation(ctx, sourceID, language)
	switch {
	case store.IsNotFound(err):
		m.memo.putTranslation(sourceID, language, "")
	case err == nil:
		m.memo.put(o.ID, o)
		m.memo.putTranslation(sourceID, language, o.ID)
	}
	return o, err
}
