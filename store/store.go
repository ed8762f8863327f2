// Package store defines the host metadata store the course price engine
// reads raw configuration from, and the errors its backends share.
package store

import (
	"context"
	"errors"

	"github.com/xraph/courseprice/course"
)

// ErrNotFound is returned by every backend for an unknown object id.
var ErrNotFound = errors.New("courseprice: object not found")

// Store is the storage interface for catalog objects and their metadata.
// Reads never fail for missing metadata keys; only an unknown object id is
// an error.
type Store interface {
	// GetObject returns one object by id.
	GetObject(ctx context.Context, objectID string) (*course.Object, error)
	// GetObjects returns the objects that exist among ids, keyed by id.
	// Unknown ids are omitted rather than reported.
	GetObjects(ctx context.Context, ids []string) (map[string]*course.Object, error)
	// ListChildren returns the variations of a product ordered by id.
	ListChildren(ctx context.Context, parentID string) ([]*course.Object, error)
	// FindTranslation returns the translation of sourceID in language.
	FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error)
	// PutObject creates or replaces an object.
	PutObject(ctx context.Context, o *course.Object) error
	// DeleteObject removes an object.
	DeleteObject(ctx context.Context, objectID string) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
