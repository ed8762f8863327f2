// Package mongo provides a MongoDB-backed metadata Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/store"
)

// Collection name constants.
const (
	colObjects = "courseprice_objects"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB. Each catalog object is one
// document with its metadata embedded.
type Store struct {
	db *mongo.Database
}

// New creates a Store on an already connected database.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect dials uri and returns a Store on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("courseprice/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("courseprice/mongo: ping: %w", err)
	}
	return New(client.Database(database)), nil
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all courseprice collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("courseprice/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) objects() *mongo.Collection {
	return s.db.Collection(colObjects)
}

// ==================== Objects ====================

func (s *Store) GetObject(ctx context.Context, objectID string) (*course.Object, error) {
	var m objectModel
	err := s.objects().FindOne(ctx, bson.M{"_id": objectID}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("courseprice/mongo: get object: %w", err)
	}
	return fromObjectModel(&m), nil
}

func (s *Store) GetObjects(ctx context.Context, ids []string) (map[string]*course.Object, error) {
	result := make(map[string]*course.Object, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	models, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("courseprice/mongo: get objects: %w", err)
	}
	for i := range models {
		result[models[i].ID] = fromObjectModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListChildren(ctx context.Context, parentID string) ([]*course.Object, error) {
	models, err := s.find(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return nil, fmt.Errorf("courseprice/mongo: list children: %w", err)
	}
	result := make([]*course.Object, len(models))
	for i := range models {
		result[i] = fromObjectModel(&models[i])
	}
	return result, nil
}

func (s *Store) FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error) {
	lang := strings.ToLower(language)

	var m objectModel
	err := s.objects().FindOne(ctx, bson.M{"translation_of": sourceID, "language_key": lang}).Decode(&m)
	if isNoDocuments(err) {
		err = s.objects().FindOne(ctx, bson.M{"_id": sourceID, "language_key": lang}).Decode(&m)
	}
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("courseprice/mongo: find translation: %w", err)
	}
	return fromObjectModel(&m), nil
}

func (s *Store) PutObject(ctx context.Context, o *course.Object) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("courseprice/mongo: object id is required")
	}
	m := toObjectModel(o)

	_, err := s.objects().UpdateOne(ctx,
		bson.M{"_id": m.ID},
		bson.M{
			"$set": bson.M{
				"parent_id":      m.ParentID,
				"language":       m.Language,
				"language_key":   m.LanguageKey,
				"translation_of": m.TranslationOf,
				"meta":           m.Meta,
				"updated_at":     m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("courseprice/mongo: put object: %w", err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, objectID string) error {
	res, err := s.objects().DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("courseprice/mongo: delete object: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

func (s *Store) find(ctx context.Context, filter bson.M) ([]objectModel, error) {
	cur, err := s.objects().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var models []objectModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all courseprice collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colObjects: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "translation_of", Value: 1}, {Key: "language_key", Value: 1}}},
		},
	}
}
