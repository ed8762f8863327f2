// Package redis provides a read-through Redis cache in front of another
// metadata Store. Objects are cached as JSON under "courseprice:obj:<id>"
// and invalidated on every write that goes through this Store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/store"
)

const keyPrefix = "courseprice:obj:"

// DefaultTTL is how long a cached object lives when no TTL is given.
const DefaultTTL = 10 * time.Minute

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store caches GetObject and GetObjects results from next in Redis.
// Listing and translation lookups always hit next, and their results are
// cached for later point reads.
type Store struct {
	client redis.UniversalClient
	next   store.Store
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the lifetime of cached objects.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New wraps next with a Redis read-through cache.
func New(client redis.UniversalClient, next store.Store, opts ...Option) *Store {
	s := &Store{client: client, next: next, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func objectKey(objectID string) string {
	return keyPrefix + objectID
}

func (s *Store) GetObject(ctx context.Context, objectID string) (*course.Object, error) {
	data, err := s.client.Get(ctx, objectKey(objectID)).Bytes()
	switch {
	case err == nil:
		if o, decodeErr := decode(data); decodeErr == nil {
			return o, nil
		}
		// Corrupt entries fall through to the backend and get rewritten.
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("courseprice/redis: get object: %w", err)
	}

	o, err := s.next.GetObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if err := s.set(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) GetObjects(ctx context.Context, ids []string) (map[string]*course.Object, error) {
	result := make(map[string]*course.Object, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, objectID := range ids {
		keys[i] = objectKey(objectID)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("courseprice/redis: get objects: %w", err)
	}

	var missing []string
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		o, err := decode([]byte(raw))
		if err != nil {
			missing = append(missing, ids[i])
			continue
		}
		result[ids[i]] = o
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := s.next.GetObjects(ctx, missing)
	if err != nil {
		return nil, err
	}
	for objectID, o := range fetched {
		result[objectID] = o
	}
	if err := s.setMany(ctx, fetched); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListChildren(ctx context.Context, parentID string) ([]*course.Object, error) {
	children, err := s.next.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*course.Object, len(children))
	for _, o := range children {
		byID[o.ID] = o
	}
	if err := s.setMany(ctx, byID); err != nil {
		return nil, err
	}
	return children, nil
}

func (s *Store) FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error) {
	o, err := s.next.FindTranslation(ctx, sourceID, language)
	if err != nil {
		return nil, err
	}
	if err := s.set(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) PutObject(ctx context.Context, o *course.Object) error {
	if err := s.next.PutObject(ctx, o); err != nil {
		return err
	}
	return s.invalidate(ctx, o.ID)
}

func (s *Store) DeleteObject(ctx context.Context, objectID string) error {
	if err := s.next.DeleteObject(ctx, objectID); err != nil {
		return err
	}
	return s.invalidate(ctx, objectID)
}

// Invalidate drops cached copies of ids, for writes made behind this
// Store's back.
func (s *Store) Invalidate(ctx context.Context, ids ...string) error {
	return s.invalidate(ctx, ids...)
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.next.Migrate(ctx)
}

// Ping checks both Redis and the wrapped store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("courseprice/redis: ping: %w", err)
	}
	return s.next.Ping(ctx)
}

// Close closes the Redis client and the wrapped store.
func (s *Store) Close() error {
	return errors.Join(s.client.Close(), s.next.Close())
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (s *Store) set(ctx context.Context, o *course.Object) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, objectKey(o.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("courseprice/redis: set object: %w", err)
	}
	return nil
}

func (s *Store) setMany(ctx context.Context, objects map[string]*course.Object) error {
	if len(objects) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for objectID, o := range objects {
		data, err := json.Marshal(o)
		if err != nil {
			return err
		}
		pipe.Set(ctx, objectKey(objectID), data, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("courseprice/redis: set objects: %w", err)
	}
	return nil
}

func (s *Store) invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, objectID := range ids {
		keys[i] = objectKey(objectID)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("courseprice/redis: invalidate: %w", err)
	}
	return nil
}

func decode(data []byte) (*course.Object, error) {
	var o course.Object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o.Meta == nil {
		o.Meta = make(map[string]string)
	}
	return &o, nil
}
