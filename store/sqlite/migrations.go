package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const migrationTable = "courseprice_schema_migrations"

// Migration is one forward schema change, applied at most once.
type Migration struct {
	Name    string
	Version string
	Up      string
}

// Migrations is the ordered schema history for the SQLite store.
var Migrations = []Migration{
	{
		Name:    "create_courseprice_objects",
		Version: "20240101000001",
		Up: `
CREATE TABLE IF NOT EXISTS courseprice_objects (
    id             TEXT PRIMARY KEY,
    parent_id      TEXT NOT NULL DEFAULT '',
    language       TEXT NOT NULL DEFAULT '',
    translation_of TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_courseprice_objects_parent ON courseprice_objects (parent_id);
CREATE INDEX IF NOT EXISTS idx_courseprice_objects_translation ON courseprice_objects (translation_of, language);
`,
	},
	{
		Name:    "create_courseprice_meta",
		Version: "20240101000002",
		Up: `
CREATE TABLE IF NOT EXISTS courseprice_meta (
    object_id  TEXT NOT NULL REFERENCES courseprice_objects (id) ON DELETE CASCADE,
    meta_key   TEXT NOT NULL,
    meta_value TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (object_id, meta_key)
);
`,
	},
}

// applyMigrations runs every migration not yet recorded, each in its own
// transaction.
func applyMigrations(ctx context.Context, db *sql.DB, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at INTEGER NOT NULL
);`, migrationTable)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, m := range migrations {
		var n int
		err := db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE version = ?", migrationTable), m.Version,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if n > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (version, name, applied_at) VALUES (?, ?, ?)", migrationTable),
			m.Version, m.Name, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
	}
	return nil
}
