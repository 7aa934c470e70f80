package vault

import (
	"database/sql"
	"fmt"

	"github.com/vanderheijden86/grove/pkg/debug"
)

// A migration moves the schema from version N to N+1. Migrations are additive
// and forward-only; downgrades are unsupported. Each one runs in its own
// transaction: it is either fully applied or not applied at all.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "initial schema",
		sql: `
			CREATE TABLE rooms (
				name         TEXT PRIMARY KEY,
				first_joined INTEGER NOT NULL
			);

			CREATE TABLE msgs (
				room    TEXT NOT NULL,
				id      INTEGER NOT NULL,
				parent  INTEGER,
				time    INTEGER NOT NULL,
				nick    TEXT NOT NULL,
				content TEXT NOT NULL,
				seen    INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (room, id),
				FOREIGN KEY (room) REFERENCES rooms(name) ON DELETE CASCADE
			);

			CREATE INDEX idx_msgs_parent ON msgs(room, parent);
			CREATE INDEX idx_msgs_time ON msgs(room, time, id);
		`,
	},
	{
		name: "raw event payloads",
		sql: `
			ALTER TABLE msgs ADD COLUMN data TEXT;
		`,
	},
	{
		name: "unseen index",
		sql: `
			CREATE INDEX idx_msgs_unseen ON msgs(room, time, id) WHERE seen = 0;
		`,
	},
}

// applyMigrations brings the schema from whatever version the file is at up
// to the current one, recording progress in PRAGMA user_version.
// Already-applied migrations are skipped, never reapplied. Any failure here
// is fatal to startup.
func applyMigrations(db *sql.DB) error {
	version, err := schemaVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("vault schema version %d is newer than this build understands (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		m := migrations[i]
		debug.Log("applying vault migration %d (%s)", i+1, m.name)
		if err := applyOne(db, i+1, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
	}
	return nil
}

func applyOne(db *sql.DB, target int, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return err
	}
	// PRAGMA does not support placeholders; target is always a small
	// integer from the migration table above.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return err
	}
	return tx.Commit()
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}
