// Package sqlite provides a SQLite-backed metadata Store on top of the pure
// Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xraph/courseprice/course"
	"github.com/xraph/courseprice/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite. Objects live in one table and
// their metadata in a key/value table, like the host catalog they mirror.
type Store struct {
	db *sql.DB
}

// New wraps an already opened database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the SQLite database at path. ":memory:" gives a private
// in-memory database; the pool is pinned to one connection so every query
// sees the same database.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("courseprice/sqlite: storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("courseprice/sqlite: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("courseprice/sqlite: enable foreign keys: %w", err)
		}
	}
	return New(db), nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := applyMigrations(ctx, s.db, Migrations); err != nil {
		return fmt.Errorf("courseprice/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Objects ====================

const objectColumns = "id, parent_id, language, translation_of"

func (s *Store) GetObject(ctx context.Context, objectID string) (*course.Object, error) {
	o, err := scanObject(s.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+" FROM courseprice_objects WHERE id = ?", objectID))
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("courseprice/sqlite: get object: %w", err)
	}
	if err := s.loadMeta(ctx, map[string]*course.Object{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) GetObjects(ctx context.Context, ids []string) (map[string]*course.Object, error) {
	result := make(map[string]*course.Object, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+objectColumns+" FROM courseprice_objects WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("courseprice/sqlite: get objects: %w", err)
	}
	if err := collectObjects(rows, func(o *course.Object) { result[o.ID] = o }); err != nil {
		return nil, err
	}
	if err := s.loadMeta(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListChildren(ctx context.Context, parentID string) ([]*course.Object, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+objectColumns+" FROM courseprice_objects WHERE parent_id = ? ORDER BY id ASC", parentID)
	if err != nil {
		return nil, fmt.Errorf("courseprice/sqlite: list children: %w", err)
	}

	var result []*course.Object
	byID := make(map[string]*course.Object)
	if err := collectObjects(rows, func(o *course.Object) {
		result = append(result, o)
		byID[o.ID] = o
	}); err != nil {
		return nil, err
	}
	if err := s.loadMeta(ctx, byID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) FindTranslation(ctx context.Context, sourceID, language string) (*course.Object, error) {
	o, err := scanObject(s.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+` FROM courseprice_objects
		 WHERE (translation_of = ? OR id = ?) AND lower(language) = lower(?)
		 ORDER BY CASE WHEN id = ? THEN 1 ELSE 0 END
		 LIMIT 1`,
		sourceID, sourceID, language, sourceID))
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("courseprice/sqlite: find translation: %w", err)
	}
	if err := s.loadMeta(ctx, map[string]*course.Object{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) PutObject(ctx context.Context, o *course.Object) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("courseprice/sqlite: object id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("courseprice/sqlite: begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO courseprice_objects (id, parent_id, language, translation_of, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    parent_id = excluded.parent_id,
    language = excluded.language,
    translation_of = excluded.translation_of,
    updated_at = excluded.updated_at`,
		o.ID, o.ParentID, o.Language, o.TranslationOf, ts, ts,
	); err != nil {
		return fmt.Errorf("courseprice/sqlite: put object: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM courseprice_meta WHERE object_id = ?", o.ID); err != nil {
		return fmt.Errorf("courseprice/sqlite: clear meta: %w", err)
	}
	for key, value := range o.Meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO courseprice_meta (object_id, meta_key, meta_value) VALUES (?, ?, ?)",
			o.ID, key, value,
		); err != nil {
			return fmt.Errorf("courseprice/sqlite: put meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("courseprice/sqlite: commit put: %w", err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, objectID string) error {
	// The cascade only fires on connections with foreign keys enabled.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM courseprice_meta WHERE object_id = ?", objectID); err != nil {
		return fmt.Errorf("courseprice/sqlite: delete meta: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM courseprice_objects WHERE id = ?", objectID)
	if err != nil {
		return fmt.Errorf("courseprice/sqlite: delete object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (*course.Object, error) {
	o := &course.Object{Meta: make(map[string]string)}
	if err := row.Scan(&o.ID, &o.ParentID, &o.Language, &o.TranslationOf); err != nil {
		return nil, err
	}
	return o, nil
}

func collectObjects(rows *sql.Rows, fn func(*course.Object)) error {
	defer rows.Close()
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return fmt.Errorf("courseprice/sqlite: scan object: %w", err)
		}
		fn(o)
	}
	return rows.Err()
}

// loadMeta fills the Meta maps of objects in one query.
func (s *Store) loadMeta(ctx context.Context, objects map[string]*course.Object) error {
	if len(objects) == 0 {
		return nil
	}
	ids := make([]string, 0, len(objects))
	for objectID := range objects {
		ids = append(ids, objectID)
	}
	slices.Sort(ids)

	placeholders, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx,
		"SELECT object_id, meta_key, meta_value FROM courseprice_meta WHERE object_id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("courseprice/sqlite: load meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var objectID, key, value string
		if err := rows.Scan(&objectID, &key, &value); err != nil {
			return fmt.Errorf("courseprice/sqlite: scan meta: %w", err)
		}
		if o := objects[objectID]; o != nil {
			o.Meta[key] = value
		}
	}
	return rows.Err()
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, v := range ids {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func now() time.Time {
	return time.Now().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
