// Package memory provides an in-process Store for tests and development.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps catalog objects in maps guarded by a RWMutex. Objects are
// copied on the way in and out so callers cannot mutate stored state.
type Store struct {
	mu sync.RWMutex

	objects map[string]*course.Object
	// children indexes variation ids by parent id.
	children map[string][]string
	// translations indexes translation ids by "sourceID/language".
	translations map[string]string
}

func New() *Store {
	return &Store{
		objects:      make(map[string]*course.Object),
		children:     make(map[string][]string),
		translations: make(map[string]string),
	}
}

// Seed stores every object, replacing existing ones.
func (s *Store) Seed(objects ...*course.Object) *Store {
	for _, o := range objects {
		_ = s.PutObject(context.Background(), o)
	}
	return s
}

func (s *Store) GetObject(_ context.Context, objectID string) (*course.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.objects[objectID]; ok {
		return o.Clone(), nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetObjects(_ context.Context, ids []string) (map[string]*course.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*course.Object, len(ids))
	for _, objectID := range ids {
		if o, ok := s.objects[objectID]; ok {
			result[objectID] = o.Clone()
		}
	}
	return result, nil
}

func (s *Store) ListChildren(_ context.Context, parentID string) ([]*course.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[parentID]
	result := make([]*course.Object, 0, len(ids))
	for _, childID := range ids {
		result = append(result, s.objects[childID].Clone())
	}
	return result, nil
}

func (s *Store) FindTranslation(_ context.Context, sourceID, language string) (*course.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if translationID, ok := s.translations[translationKey(sourceID, language)]; ok {
		return s.objects[translationID].Clone(), nil
	}
	// The source itself counts as its own translation.
	if o, ok := s.objects[sourceID]; ok && strings.EqualFold(o.Language, language) {
		return o.Clone(), nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) PutObject(_ context.Context, o *course.Object) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("courseprice/memory: object id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.objects[o.ID]; ok {
		s.unindex(old)
	}
	c := o.Clone()
	s.objects[c.ID] = c
	s.index(c)
	return nil
}

func (s *Store) DeleteObject(_ context.Context, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[objectID]
	if !ok {
		return store.ErrNotFound
	}
	s.unindex(o)
	delete(s.objects, objectID)
	return nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// ──────────────────────────────────────────────────
// Indexes (callers hold s.mu)
// ──────────────────────────────────────────────────

func (s *Store) index(o *course.Object) {
	if o.ParentID != "" {
		ids := append(s.children[o.ParentID], o.ID)
		slices.Sort(ids)
		s.children[o.ParentID] = ids
	}
	if o.TranslationOf != "" && o.Language != "" {
		s.translations[translationKey(o.TranslationOf, o.Language)] = o.ID
	}
}

func (s *Store) unindex(o *course.Object) {
	if o.ParentID != "" {
		s.children[o.ParentID] = slices.DeleteFunc(s.children[o.ParentID], func(childID string) bool {
			return childID == o.ID
		})
		if len(s.children[o.ParentID]) == 0 {
			delete(s.children, o.ParentID)
		}
	}
	if o.TranslationOf != "" && o.Language != "" {
		key := translationKey(o.TranslationOf, o.Language)
		if s.translations[key] == o.ID {
			delete(s.translations, key)
		}
	}
}

func translationKey(sourceID, language string) string {
	return sourceID + "/" + strings.ToLower(language)
}
